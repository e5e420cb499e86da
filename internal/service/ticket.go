package service

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/dto"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TicketService interface {
	Create(ctx context.Context, actor lifecycle.Actor, req *dto.CreateTicketRequest) (*model.Ticket, error)
	Get(ctx context.Context, actor lifecycle.Actor, id string) (*model.Ticket, error)
	List(ctx context.Context, actor lifecycle.Actor, filter repository.TicketFilter) ([]*model.Ticket, int64, error)
	Update(ctx context.Context, actor lifecycle.Actor, id string, req *dto.UpdateTicketRequest) (*model.Ticket, error)
}

type ticketServiceImpl struct {
	ticketRepo repository.TicketRepository
	appRepo    repository.ApplicationRepository
	now        func() time.Time
}

func NewTicketService(ticketRepo repository.TicketRepository, appRepo repository.ApplicationRepository) TicketService {
	return &ticketServiceImpl{
		ticketRepo: ticketRepo,
		appRepo:    appRepo,
		now:        time.Now,
	}
}

func (s *ticketServiceImpl) Create(ctx context.Context, actor lifecycle.Actor, req *dto.CreateTicketRequest) (*model.Ticket, error) {
	subject := strings.TrimSpace(req.Subject)
	description := strings.TrimSpace(req.Description)
	if subject == "" || description == "" {
		return nil, apperr.Validation("subject and description are required")
	}

	category := req.Category
	if category == "" {
		category = model.TicketGeneral
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !category.Valid() || !priority.Valid() {
		return nil, apperr.Validation("unknown ticket category or priority")
	}

	ticket := &model.Ticket{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		Subject:     subject,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      model.TicketOpen,
	}

	if req.ApplicationID != "" {
		app, err := s.appRepo.FindByID(ctx, nil, req.ApplicationID)
		if err != nil {
			return nil, err
		}
		if err := canRead(actor, app.StudentID); err != nil {
			return nil, err
		}
		ticket.ApplicationID = &app.ID
	}

	err := allocateNumber(ctx, s.now(), model.NewTicketNumber, s.ticketRepo.NumberExists, func(number string) error {
		ticket.TicketNumber = number
		return s.ticketRepo.Create(ctx, ticket)
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	return ticket, nil
}

func (s *ticketServiceImpl) Get(ctx context.Context, actor lifecycle.Actor, id string) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canRead(actor, ticket.UserID); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *ticketServiceImpl) List(ctx context.Context, actor lifecycle.Actor, filter repository.TicketFilter) ([]*model.Ticket, int64, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	return s.ticketRepo.List(ctx, filter)
}

// Update lets the owner edit an open ticket and lets admins triage it.
func (s *ticketServiceImpl) Update(ctx context.Context, actor lifecycle.Actor, id string, req *dto.UpdateTicketRequest) (*model.Ticket, error) {
	ticket, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}

	if req.Subject != nil {
		if strings.TrimSpace(*req.Subject) == "" {
			return nil, apperr.Validation("subject cannot be empty")
		}
		updates["subject"] = strings.TrimSpace(*req.Subject)
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, apperr.Validation("description cannot be empty")
		}
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, apperr.Validation("unknown ticket category")
		}
		updates["category"] = *req.Category
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, apperr.Validation("unknown ticket priority")
		}
		updates["priority"] = *req.Priority
	}

	if actor.IsAdmin() {
		if req.Status != nil {
			if !req.Status.Valid() {
				return nil, apperr.Validation("unknown ticket status")
			}
			updates["status"] = *req.Status
			switch *req.Status {
			case model.TicketResolved, model.TicketClosed:
				updates["resolved_at"] = s.now()
			default:
				updates["resolved_at"] = nil
			}
		}
		if req.AssignedTo != nil {
			updates["assigned_to"] = *req.AssignedTo
		}
		if req.ResolutionNotes != nil {
			updates["resolution_notes"] = *req.ResolutionNotes
		}
	} else {
		if req.Status != nil || req.AssignedTo != nil || req.ResolutionNotes != nil {
			return nil, apperr.Forbidden("only an admin can change status, assignee or resolution")
		}
		if ticket.Status != model.TicketOpen {
			return nil, apperr.Newf(apperr.KindInvalidTransition, "cannot edit a ticket in status %s", ticket.Status)
		}
	}

	if len(updates) == 0 {
		return ticket, nil
	}
	if err := s.ticketRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.ticketRepo.Get(ctx, id)
}
