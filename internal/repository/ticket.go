package repository

import (
	"admissions-portal/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type TicketFilter struct {
	UserID   string
	Status   model.TicketStatus
	Category model.TicketCategory
	Priority model.TicketPriority
	Page
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) error
	NumberExists(ctx context.Context, number string) (bool, error)
	Get(ctx context.Context, id string) (*model.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]*model.Ticket, int64, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	CountOpen(ctx context.Context) (int64, error)
}

type ticketRepoImpl struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepoImpl{
		db: db,
	}
}

func (r *ticketRepoImpl) Create(ctx context.Context, ticket *model.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepoImpl) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("ticket_number = ?", number).
		Count(&count).Error

	return count > 0, err
}

func (r *ticketRepoImpl) Get(ctx context.Context, id string) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&ticket).Error

	if err != nil {
		return nil, notFound(err, "ticket")
	}

	return &ticket, nil
}

func (r *ticketRepoImpl) List(ctx context.Context, filter TicketFilter) ([]*model.Ticket, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Ticket{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.normalize()
	var tickets []*model.Ticket
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tickets).Error
	if err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

func (r *ticketRepoImpl) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *ticketRepoImpl) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("status IN ?", []model.TicketStatus{model.TicketOpen, model.TicketInProgress}).
		Count(&count).Error

	return count, err
}
