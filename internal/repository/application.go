package repository

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type ApplicationFilter struct {
	StudentID    string
	UniversityID string
	Status       model.ApplicationStatus
	Page
}

type ApplicationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, app *model.Application) error
	NumberExists(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]*model.Application, int64, error)
	SaveTransition(ctx context.Context, tx *gorm.DB, app *model.Application, from model.ApplicationStatus) error
	SetIssuePayment(ctx context.Context, tx *gorm.DB, id, paymentID string) error
	UpdateDraft(ctx context.Context, app *model.Application) error
	DeleteDraft(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[model.ApplicationStatus]int64, error)

	BeginVerification(ctx context.Context, id string, now time.Time) (bool, error)
	CompleteVerification(ctx context.Context, id string, report *model.VerificationReport, now time.Time) error
	FailVerification(ctx context.Context, id string, reason string) error
	FailStaleVerifications(ctx context.Context, startedBefore time.Time, reason string) (int64, error)
	FindAwaitingVerification(ctx context.Context, submittedBefore time.Time, limit int) ([]string, error)
}

type applicationRepoImpl struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepoImpl{
		db: db,
	}
}

func (r *applicationRepoImpl) Create(ctx context.Context, tx *gorm.DB, app *model.Application) error {
	return conn(r.db, tx).WithContext(ctx).Create(app).Error
}

func (r *applicationRepoImpl) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("application_number = ?", number).
		Count(&count).Error

	return count > 0, err
}

func (r *applicationRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.Application, error) {
	var app model.Application
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", id).
		First(&app).Error

	if err != nil {
		return nil, notFound(err, "application")
	}

	return &app, nil
}

func (r *applicationRepoImpl) List(ctx context.Context, filter ApplicationFilter) ([]*model.Application, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Application{})
	if filter.StudentID != "" {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.UniversityID != "" {
		q = q.Where("university_id = ?", filter.UniversityID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.normalize()
	var apps []*model.Application
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error
	if err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

// SaveTransition persists the status-machine fields of app only if the stored status is still from.
func (r *applicationRepoImpl) SaveTransition(ctx context.Context, tx *gorm.DB, app *model.Application, from model.ApplicationStatus) error {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.Application{}).
		Where(`
			id = ?
			AND status = ?
		`,
			app.ID,
			from,
		).
		Updates(map[string]interface{}{
			"status":            app.Status,
			"submitted_at":      app.SubmittedAt,
			"reviewed_at":       app.ReviewedAt,
			"decision_at":       app.DecisionAt,
			"review_notes":      app.ReviewNotes,
			"reviewed_by":       app.ReviewedBy,
			"issue_details":     app.IssueDetails,
			"issue_raised_at":   app.IssueRaisedAt,
			"issue_resolved_at": app.IssueResolvedAt,
			"issue_payment_id":  app.IssuePaymentID,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.Newf(apperr.KindInvalidTransition, "application status changed from %s concurrently", from)
	}

	return nil
}

// SetIssuePayment records the pending issue-resolution payment while the issue is still open.
func (r *applicationRepoImpl) SetIssuePayment(ctx context.Context, tx *gorm.DB, id, paymentID string) error {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.StatusIssueRaised).
		Updates(map[string]interface{}{
			"issue_payment_id": paymentID,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindNoIssueRaised, "issue is no longer open")
	}

	return nil
}

func (r *applicationRepoImpl) UpdateDraft(ctx context.Context, app *model.Application) error {
	result := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", app.ID, model.StatusDraft).
		Updates(map[string]interface{}{
			"program_name":         app.ProgramName,
			"intake":               app.Intake,
			"application_data":     app.ApplicationData,
			"eligibility_criteria": app.EligibilityCriteria,
			"updated_at":           time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.InvalidTransition("update", "non-draft")
	}

	return nil
}

func (r *applicationRepoImpl) DeleteDraft(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, model.StatusDraft).
		Delete(&model.Application{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.InvalidTransition("delete", "non-draft")
	}

	return nil
}

func (r *applicationRepoImpl) CountByStatus(ctx context.Context) (map[model.ApplicationStatus]int64, error) {
	var rows []struct {
		Status model.ApplicationStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ApplicationStatus]int64, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

// BeginVerification claims the application for a verification run.
// It returns false when a run is already in progress.
func (r *applicationRepoImpl) BeginVerification(ctx context.Context, id string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND ai_verification_status <> ?", id, model.VerificationProcessing).
		Updates(map[string]interface{}{
			"ai_verification_status":     model.VerificationProcessing,
			"ai_verification_started_at": now,
			"ai_verification_error":      "",
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *applicationRepoImpl) CompleteVerification(ctx context.Context, id string, report *model.VerificationReport, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND ai_verification_status = ?", id, model.VerificationProcessing).
		Select("ai_verification_status", "ai_verification_result", "ai_verification_flags", "ai_verified_at", "ai_verification_error").
		Updates(&model.Application{
			AIVerificationStatus: model.VerificationCompleted,
			AIVerificationResult: report,
			AIVerificationFlags:  report.Flags,
			AIVerifiedAt:         &now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindConflict, "verification run is no longer active")
	}

	return nil
}

func (r *applicationRepoImpl) FailVerification(ctx context.Context, id string, reason string) error {
	return r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND ai_verification_status = ?", id, model.VerificationProcessing).
		Updates(map[string]interface{}{
			"ai_verification_status": model.VerificationFailed,
			"ai_verification_error":  reason,
		}).Error
}

// FailStaleVerifications marks runs that started before startedBefore and never finished as failed.
func (r *applicationRepoImpl) FailStaleVerifications(ctx context.Context, startedBefore time.Time, reason string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("ai_verification_status = ? AND ai_verification_started_at < ?", model.VerificationProcessing, startedBefore).
		Updates(map[string]interface{}{
			"ai_verification_status": model.VerificationFailed,
			"ai_verification_error":  reason,
		})

	return result.RowsAffected, result.Error
}

// FindAwaitingVerification lists applications submitted before submittedBefore whose automatic verification never ran.
func (r *applicationRepoImpl) FindAwaitingVerification(ctx context.Context, submittedBefore time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where(`
			status = ?
			AND ai_verification_status = ?
			AND submitted_at < ?
		`,
			model.StatusSubmitted,
			model.VerificationPending,
			submittedBefore,
		).
		Order("submitted_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error

	return ids, err
}
