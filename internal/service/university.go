package service

import (
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
)

type UniversityService interface {
	List(ctx context.Context) ([]*model.University, error)
	Get(ctx context.Context, id string) (*model.University, error)
}

type universityServiceImpl struct {
	universityRepo repository.UniversityRepository
}

func NewUniversityService(universityRepo repository.UniversityRepository) UniversityService {
	return &universityServiceImpl{universityRepo: universityRepo}
}

func (s *universityServiceImpl) List(ctx context.Context) ([]*model.University, error) {
	return s.universityRepo.List(ctx, true)
}

func (s *universityServiceImpl) Get(ctx context.Context, id string) (*model.University, error) {
	return s.universityRepo.FindByID(ctx, id)
}
