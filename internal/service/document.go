package service

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/dto"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
	"strings"

	"github.com/google/uuid"
)

type DocumentService interface {
	ListTypes(ctx context.Context) ([]*model.DocumentType, error)
	Attach(ctx context.Context, actor lifecycle.Actor, applicationID string, req *dto.AttachDocumentRequest) (*model.Document, error)
	ListForApplication(ctx context.Context, actor lifecycle.Actor, applicationID string) ([]model.Document, error)
	Review(ctx context.Context, actor lifecycle.Actor, id string, req *dto.ReviewDocumentRequest) (*model.Document, error)
}

type documentServiceImpl struct {
	documentRepo repository.DocumentRepository
	appRepo      repository.ApplicationRepository
}

func NewDocumentService(documentRepo repository.DocumentRepository, appRepo repository.ApplicationRepository) DocumentService {
	return &documentServiceImpl{
		documentRepo: documentRepo,
		appRepo:      appRepo,
	}
}

func (s *documentServiceImpl) ListTypes(ctx context.Context) ([]*model.DocumentType, error) {
	return s.documentRepo.ListTypes(ctx)
}

// Attach records an uploaded file against an application the student is still editing
// or one an admin asked more documents for.
func (s *documentServiceImpl) Attach(ctx context.Context, actor lifecycle.Actor, applicationID string, req *dto.AttachDocumentRequest) (*model.Document, error) {
	app, err := s.appRepo.FindByID(ctx, nil, applicationID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(app.StudentID) {
		return nil, apperr.Forbidden("only the owning student can attach documents")
	}
	if app.Status != model.StatusDraft && app.Status != model.StatusDocumentsPending {
		return nil, apperr.InvalidTransition("attach documents to", string(app.Status))
	}

	fileName := strings.TrimSpace(req.FileName)
	if req.DocumentTypeID == "" || fileName == "" {
		return nil, apperr.Validation("document_type_id and file_name are required")
	}

	docType, err := s.documentRepo.FindTypeByID(ctx, req.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	if !docType.IsActive {
		return nil, apperr.Validation("document type is not accepted")
	}
	if !docType.Allows(req.MimeType, req.FileSize) {
		return nil, apperr.Validation("file type or size not allowed for " + docType.Name)
	}

	doc := &model.Document{
		ID:             uuid.NewString(),
		UserID:         actor.ID,
		ApplicationID:  &app.ID,
		DocumentTypeID: docType.ID,
		DocumentType:   docType,
		FileName:       fileName,
		FileSize:       req.FileSize,
		MimeType:       req.MimeType,
		StorageKey:     req.StorageKey,
		Status:         model.DocumentPending,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentServiceImpl) ListForApplication(ctx context.Context, actor lifecycle.Actor, applicationID string) ([]model.Document, error) {
	app, err := s.appRepo.FindByID(ctx, nil, applicationID)
	if err != nil {
		return nil, err
	}
	if err := canRead(actor, app.StudentID); err != nil {
		return nil, err
	}
	return s.documentRepo.ListByApplication(ctx, applicationID)
}

func (s *documentServiceImpl) Review(ctx context.Context, actor lifecycle.Actor, id string, req *dto.ReviewDocumentRequest) (*model.Document, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if req.Status != model.DocumentApproved && req.Status != model.DocumentRejected {
		return nil, apperr.Validation("status must be approved or rejected")
	}
	if err := s.documentRepo.Review(ctx, id, req.Status, strings.TrimSpace(req.Notes), actor.ID); err != nil {
		return nil, err
	}
	return s.documentRepo.FindByID(ctx, id)
}
