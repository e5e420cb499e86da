package handler

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/middleware"
	"admissions-portal/internal/repository"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindForbidden:          http.StatusForbidden,
	apperr.KindInvalidTransition:  http.StatusConflict,
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindAlreadyPaid:        http.StatusBadRequest,
	apperr.KindNotVerified:        http.StatusBadRequest,
	apperr.KindNoIssueRaised:      http.StatusBadRequest,
	apperr.KindGateway:            http.StatusBadGateway,
	apperr.KindScoringUnavailable: http.StatusServiceUnavailable,
	apperr.KindConflict:           http.StatusConflict,
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperr.Kind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders apperr kinds and echo errors as ErrorResponse.
// Provider detail is included only when exposeDetail is set.
func ErrorHandler(exposeDetail bool, logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			code int
			body ErrorResponse
		)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			body = ErrorResponse{Error: http.StatusText(he.Code), Message: http.StatusText(he.Code)}
			if msg, ok := he.Message.(string); ok {
				body.Message = msg
			}
		} else {
			kind := apperr.KindOf(err)
			code = StatusOf(kind)
			body = ErrorResponse{Error: string(kind), Message: err.Error()}
			if exposeDetail {
				body.Detail = apperr.DetailOf(err)
			}
			if code == http.StatusInternalServerError {
				logger.ErrorContext(c.Request().Context(), "request failed",
					slog.String("method", c.Request().Method),
					slog.String("path", c.Path()),
					slog.String("error", err.Error()),
				)
				body.Message = "internal server error"
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error("write error response", slog.String("error", err.Error()))
		}
	}
}

func actorFrom(c echo.Context) (lifecycle.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return lifecycle.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return actor, nil
}

func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func pageFrom(c echo.Context) (repository.Page, error) {
	var p repository.Page
	err := echo.QueryParamsBinder(c).
		Int("page", &p.Page).
		Int("limit", &p.Limit).
		BindError()
	if err != nil {
		return p, echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
	}
	return p, nil
}
