package service

import (
	"admissions-portal/internal/dto"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"

	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	Get(ctx context.Context, actor lifecycle.Actor) (*dto.Dashboard, error)
}

type dashboardServiceImpl struct {
	appRepo     repository.ApplicationRepository
	paymentRepo repository.PaymentRepository
	refundRepo  repository.RefundRepository
	ticketRepo  repository.TicketRepository
}

func NewDashboardService(
	appRepo repository.ApplicationRepository,
	paymentRepo repository.PaymentRepository,
	refundRepo repository.RefundRepository,
	ticketRepo repository.TicketRepository,
) DashboardService {
	return &dashboardServiceImpl{
		appRepo:     appRepo,
		paymentRepo: paymentRepo,
		refundRepo:  refundRepo,
		ticketRepo:  ticketRepo,
	}
}

func (s *dashboardServiceImpl) Get(ctx context.Context, actor lifecycle.Actor) (*dto.Dashboard, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var out dto.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.appRepo.CountByStatus(gctx)
		out.ApplicationsByStatus = counts
		return err
	})
	g.Go(func() error {
		n, err := s.refundRepo.CountByStatus(gctx, model.RefundPending)
		out.PendingRefunds = n
		return err
	})
	g.Go(func() error {
		n, err := s.ticketRepo.CountOpen(gctx)
		out.OpenTickets = n
		return err
	})
	g.Go(func() error {
		total, err := s.paymentRepo.SumCompleted(gctx)
		out.TotalRevenue = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, n := range out.ApplicationsByStatus {
		out.TotalApplications += n
	}
	return &out, nil
}
