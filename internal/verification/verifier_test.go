package verification

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/dbtest"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	apps     repository.ApplicationRepository
	verifier func(Backend) Verifier
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t)
	apps := repository.NewApplicationRepository(db)
	docs := repository.NewDocumentRepository(db)
	unis := repository.NewUniversityRepository(db)
	return &fixture{
		db:   db,
		apps: apps,
		verifier: func(b Backend) Verifier {
			return NewVerifier(apps, docs, unis, b, nil, nil)
		},
	}
}

func TestRunStoresDeterministicReport(t *testing.T) {
	f := newFixture(t)
	uni := dbtest.University(t, f.db, "2000")
	app := dbtest.Application(t, f.db, "stu-1", uni.ID, model.StatusSubmitted)
	dbtest.Documents(t, f.db, app, 5)

	report, err := f.verifier(nil).Run(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, 95, report.DocumentQuality.QualityScore)

	stored, err := f.apps.FindByID(context.Background(), nil, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationCompleted, stored.AIVerificationStatus)
	require.NotNil(t, stored.AIVerificationResult)
	assert.Equal(t, report.OverallScore, stored.AIVerificationResult.OverallScore)
	assert.Equal(t, report.Flags, stored.AIVerificationFlags)
	assert.NotNil(t, stored.AIVerifiedAt)
	assert.Equal(t, model.StatusSubmitted, stored.Status, "verification never moves the application")
}

func TestRunFallsBackWhenBackendFails(t *testing.T) {
	f := newFixture(t)
	uni := dbtest.University(t, f.db, "1500")
	app := dbtest.Application(t, f.db, "stu-1", uni.ID, model.StatusSubmitted)

	report, err := f.verifier(&fakeBackend{err: errors.New("503 from backend")}).Run(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportSourceDeterministic, report.Source)
	assert.Equal(t, 0, report.OverallScore)
	assert.Equal(t, model.RecommendReject, report.OverallRecommendation)
}

func TestRunUsesBackend(t *testing.T) {
	f := newFixture(t)
	uni := dbtest.University(t, f.db, "1500")
	app := dbtest.Application(t, f.db, "stu-1", uni.ID, model.StatusSubmitted)

	b := &fakeBackend{corr: &model.CorrespondenceReport{CorrespondenceScore: 91, Recommendation: model.RecommendApprove}}
	report, err := f.verifier(b).Run(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportSourceGenerative, report.Source)
	assert.Equal(t, 92, report.OverallScore)
}

func TestRunRejectsConcurrentTrigger(t *testing.T) {
	f := newFixture(t)
	uni := dbtest.University(t, f.db, "1500")
	app := dbtest.Application(t, f.db, "stu-1", uni.ID, model.StatusSubmitted)

	claimed, err := f.apps.BeginVerification(context.Background(), app.ID, app.CreatedAt)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = f.verifier(nil).Run(context.Background(), app.ID)
	assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)
}

func TestRunUnknownApplication(t *testing.T) {
	f := newFixture(t)
	_, err := f.verifier(nil).Run(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)
}

func TestRunCanBeRepeatedAfterCompletion(t *testing.T) {
	f := newFixture(t)
	uni := dbtest.University(t, f.db, "1500")
	app := dbtest.Application(t, f.db, "stu-1", uni.ID, model.StatusSubmitted)
	v := f.verifier(nil)

	_, err := v.Run(context.Background(), app.ID)
	require.NoError(t, err)

	dbtest.Documents(t, f.db, app, 2)
	report, err := v.Run(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, 89, report.DocumentQuality.QualityScore)
}

type failingCompleteRepo struct {
	repository.ApplicationRepository
}

func (failingCompleteRepo) CompleteVerification(context.Context, string, *model.VerificationReport, time.Time) error {
	return errors.New("disk I/O error")
}

func TestRunRecordsFailureWhenResultCannotBeStored(t *testing.T) {
	f := newFixture(t)
	uni := dbtest.University(t, f.db, "1500")
	app := dbtest.Application(t, f.db, "stu-1", uni.ID, model.StatusSubmitted)

	v := NewVerifier(
		failingCompleteRepo{f.apps},
		repository.NewDocumentRepository(f.db),
		repository.NewUniversityRepository(f.db),
		nil, nil, nil,
	)

	_, err := v.Run(context.Background(), app.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")

	stored, err := f.apps.FindByID(context.Background(), nil, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationFailed, stored.AIVerificationStatus)
	assert.Contains(t, stored.AIVerificationError, "store verification result")
}
