package repository

import (
	"admissions-portal/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UniversityRepository interface {
	Seed(ctx context.Context, universities []model.University) error
	FindByID(ctx context.Context, id string) (*model.University, error)
	List(ctx context.Context, activeOnly bool) ([]*model.University, error)
}

type universityRepoImpl struct {
	db *gorm.DB
}

func NewUniversityRepository(db *gorm.DB) UniversityRepository {
	return &universityRepoImpl{
		db: db,
	}
}

// Seed inserts universities, skipping codes that already exist.
func (r *universityRepoImpl) Seed(ctx context.Context, universities []model.University) error {
	if len(universities) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&universities).Error
}

func (r *universityRepoImpl) FindByID(ctx context.Context, id string) (*model.University, error) {
	var university model.University
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&university).Error

	if err != nil {
		return nil, notFound(err, "university")
	}

	return &university, nil
}

func (r *universityRepoImpl) List(ctx context.Context, activeOnly bool) ([]*model.University, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var universities []*model.University
	err := q.Order("name ASC").
		Find(&universities).
		Error

	if err != nil {
		return nil, err
	}

	return universities, nil
}
