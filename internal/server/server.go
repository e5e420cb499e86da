package server

import (
	"admissions-portal/internal/config"
	"admissions-portal/internal/handler"
	"admissions-portal/internal/middleware"
	"admissions-portal/internal/service"
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Applications service.ApplicationService
	Payments     service.PaymentService
	Refunds      service.RefundService
	Tickets      service.TicketService
	Universities service.UniversityService
	Documents    service.DocumentService
	Dashboard    service.DashboardService
}

type Options struct {
	Auth           config.Auth
	AllowedOrigins []string
	// ExposeErrorDetail adds provider detail to error bodies. Off in production.
	ExposeErrorDetail bool
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

type Server struct {
	echo               *echo.Echo
	opts               Options
	applicationHandler *handler.ApplicationHandler
	paymentHandler     *handler.PaymentHandler
	ticketHandler      *handler.TicketHandler
	catalogHandler     *handler.CatalogHandler
	adminHandler       *handler.AdminHandler
}

func NewServer(svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(opts.ExposeErrorDetail, opts.Logger)

	e.Use(requestLogger(opts.Logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: opts.AllowedOrigins,
	}))

	s := &Server{
		echo:               e,
		opts:               opts,
		applicationHandler: handler.NewApplicationHandler(svc.Applications, svc.Documents),
		paymentHandler:     handler.NewPaymentHandler(svc.Payments, svc.Refunds),
		ticketHandler:      handler.NewTicketHandler(svc.Tickets),
		catalogHandler:     handler.NewCatalogHandler(svc.Universities, svc.Documents),
		adminHandler:       handler.NewAdminHandler(svc.Applications, svc.Payments, svc.Refunds, svc.Documents, svc.Dashboard),
	}

	s.setupRoutes()
	return s
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

func (s *Server) setupRoutes() {
	if s.opts.Gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- public --------
	api.GET("/universities", s.catalogHandler.ListUniversities)
	api.GET("/universities/:id", s.catalogHandler.GetUniversity)
	api.GET("/document-types", s.catalogHandler.ListDocumentTypes)

	// -------- gateway webhooks --------
	api.POST("/payments/webhook", s.paymentHandler.Webhook)

	auth := api.Group("", middleware.AuthMiddleware(s.opts.Auth))

	applications := auth.Group("/applications")
	applications.POST("", s.applicationHandler.Create)
	applications.GET("", s.applicationHandler.List)
	applications.GET("/:id", s.applicationHandler.Get)
	applications.PUT("/:id", s.applicationHandler.Update)
	applications.DELETE("/:id", s.applicationHandler.Delete)
	applications.POST("/:id/submit", s.applicationHandler.Submit)
	applications.POST("/:id/withdraw", s.applicationHandler.Withdraw)
	applications.GET("/:id/issue-details", s.applicationHandler.IssueDetails)
	applications.POST("/:id/documents", s.applicationHandler.AttachDocument)
	applications.GET("/:id/documents", s.applicationHandler.ListDocuments)

	payments := auth.Group("/payments")
	payments.POST("/orders", s.paymentHandler.CreateOrder)
	payments.POST("/verify", s.paymentHandler.Verify)
	payments.GET("", s.paymentHandler.List)
	payments.GET("/:id", s.paymentHandler.Get)

	refunds := auth.Group("/refunds")
	refunds.POST("", s.paymentHandler.RequestRefund)
	refunds.GET("", s.paymentHandler.ListRefunds)
	refunds.GET("/:id", s.paymentHandler.GetRefund)

	tickets := auth.Group("/tickets")
	tickets.POST("", s.ticketHandler.Create)
	tickets.GET("", s.ticketHandler.List)
	tickets.GET("/:id", s.ticketHandler.Get)
	tickets.PUT("/:id", s.ticketHandler.Update)

	// -------- admin --------
	admin := auth.Group("/admin", middleware.RequireAdmin())
	admin.GET("/dashboard", s.adminHandler.Dashboard)
	admin.PUT("/applications/:id/review", s.adminHandler.Review)
	admin.POST("/applications/:id/verify", s.adminHandler.Verify())
	admin.POST("/applications/:id/raise-issue", s.adminHandler.RaiseIssue)
	admin.POST("/applications/:id/under-review", s.adminHandler.MarkUnderReview())
	admin.POST("/applications/:id/request-documents", s.adminHandler.RequestDocuments())
	admin.POST("/applications/:id/approve", s.adminHandler.Approve())
	admin.POST("/applications/:id/reject", s.adminHandler.Reject())
	admin.POST("/applications/:id/verification", s.adminHandler.TriggerVerification)
	admin.POST("/payments/:id/settle", s.adminHandler.SettlePayment)
	admin.POST("/refunds/:id/review", s.adminHandler.ReviewRefund)
	admin.POST("/documents/:id/review", s.adminHandler.ReviewDocument)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
