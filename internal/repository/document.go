package repository

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository interface {
	SeedTypes(ctx context.Context, types []model.DocumentType) error
	ListTypes(ctx context.Context) ([]*model.DocumentType, error)
	FindTypeByID(ctx context.Context, id string) (*model.DocumentType, error)

	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id string) (*model.Document, error)
	ListByApplication(ctx context.Context, applicationID string) ([]model.Document, error)
	Review(ctx context.Context, id string, status model.DocumentStatus, notes, reviewerID string) error
}

type documentRepoImpl struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepoImpl{
		db: db,
	}
}

// SeedTypes upserts document types by code.
func (r *documentRepoImpl) SeedTypes(ctx context.Context, types []model.DocumentType) error {
	if len(types) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "is_required", "max_file_size", "allowed_mime_types", "updated_at",
		}),
	}).Create(&types).Error
}

func (r *documentRepoImpl) ListTypes(ctx context.Context) ([]*model.DocumentType, error) {
	var types []*model.DocumentType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&types).Error

	if err != nil {
		return nil, err
	}

	return types, nil
}

func (r *documentRepoImpl) FindTypeByID(ctx context.Context, id string) (*model.DocumentType, error) {
	var t model.DocumentType
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&t).Error

	if err != nil {
		return nil, notFound(err, "document type")
	}

	return &t, nil
}

func (r *documentRepoImpl) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(doc).Error
}

func (r *documentRepoImpl) FindByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Preload("DocumentType").
		Where("id = ?", id).
		First(&doc).Error

	if err != nil {
		return nil, notFound(err, "document")
	}

	return &doc, nil
}

func (r *documentRepoImpl) ListByApplication(ctx context.Context, applicationID string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Preload("DocumentType").
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&docs).Error

	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (r *documentRepoImpl) Review(ctx context.Context, id string, status model.DocumentStatus, notes, reviewerID string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND status = ?", id, model.DocumentPending).
		Updates(map[string]interface{}{
			"status":       status,
			"review_notes": notes,
			"reviewed_by":  reviewerID,
			"reviewed_at":  now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindInvalidTransition, "document has already been reviewed")
	}

	return nil
}
