package service

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/dbtest"
	"admissions-portal/internal/dto"
	"admissions-portal/internal/model"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) transcriptType(t *testing.T) *model.DocumentType {
	t.Helper()
	dt := &model.DocumentType{
		ID:               uuid.NewString(),
		Name:             "Transcript",
		Code:             "TRANSCRIPT",
		IsRequired:       true,
		MaxFileSize:      5 << 20,
		AllowedMimeTypes: []string{"application/pdf"},
	}
	require.NoError(t, f.db.Create(dt).Error)
	return dt
}

func TestAttachDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dt := f.transcriptType(t)
	uni := dbtest.University(t, f.db, "2000")
	app := dbtest.Application(t, f.db, student.ID, uni.ID, model.StatusDraft)

	req := &dto.AttachDocumentRequest{
		DocumentTypeID: dt.ID,
		FileName:       "transcript.pdf",
		FileSize:       2048,
		MimeType:       "application/pdf",
		StorageKey:     "uploads/stu-1/transcript.pdf",
	}

	_, err := f.documents.Attach(ctx, other, app.ID, req)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	doc, err := f.documents.Attach(ctx, student, app.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentPending, doc.Status)
	assert.Equal(t, "TRANSCRIPT", doc.TypeCode())

	tooBig := *req
	tooBig.FileSize = 6 << 20
	_, err = f.documents.Attach(ctx, student, app.ID, &tooBig)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	wrongType := *req
	wrongType.MimeType = "image/gif"
	_, err = f.documents.Attach(ctx, student, app.ID, &wrongType)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	docs, err := f.documents.ListForApplication(ctx, admin, app.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "transcript.pdf", docs[0].FileName)
}

func TestAttachOnlyWhileEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dt := f.transcriptType(t)
	uni := dbtest.University(t, f.db, "2000")
	app := dbtest.Application(t, f.db, student.ID, uni.ID, model.StatusSubmitted)
	req := &dto.AttachDocumentRequest{DocumentTypeID: dt.ID, FileName: "t.pdf", FileSize: 10, MimeType: "application/pdf"}

	_, err := f.documents.Attach(ctx, student, app.ID, req)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.applications.RequestDocuments(ctx, admin, app.ID, "need transcript")
	require.NoError(t, err)

	_, err = f.documents.Attach(ctx, student, app.ID, req)
	assert.NoError(t, err)
}

func TestReviewDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dt := f.transcriptType(t)
	uni := dbtest.University(t, f.db, "2000")
	app := dbtest.Application(t, f.db, student.ID, uni.ID, model.StatusDraft)
	doc, err := f.documents.Attach(ctx, student, app.ID, &dto.AttachDocumentRequest{
		DocumentTypeID: dt.ID, FileName: "t.pdf", FileSize: 10, MimeType: "application/pdf",
	})
	require.NoError(t, err)

	_, err = f.documents.Review(ctx, student, doc.ID, &dto.ReviewDocumentRequest{Status: model.DocumentApproved})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.documents.Review(ctx, admin, doc.ID, &dto.ReviewDocumentRequest{Status: model.DocumentPending})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	reviewed, err := f.documents.Review(ctx, admin, doc.ID, &dto.ReviewDocumentRequest{Status: model.DocumentRejected, Notes: "blurry"})
	require.NoError(t, err)
	assert.Equal(t, model.DocumentRejected, reviewed.Status)
	assert.Equal(t, "blurry", reviewed.ReviewNotes)
	assert.Equal(t, admin.ID, reviewed.ReviewedBy)

	_, err = f.documents.Review(ctx, admin, doc.ID, &dto.ReviewDocumentRequest{Status: model.DocumentApproved})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.dashboard.Get(ctx, student)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	payment := f.paidFee(t)
	_, err = f.refunds.Request(ctx, student, &dto.CreateRefundRequest{PaymentID: payment.ID, Reason: "moving"})
	require.NoError(t, err)
	_, err = f.tickets.Create(ctx, student, &dto.CreateTicketRequest{Subject: "s", Description: "d"})
	require.NoError(t, err)

	got, err := f.dashboard.Get(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.TotalApplications)
	assert.EqualValues(t, 1, got.ApplicationsByStatus[model.StatusPaymentReceived])
	assert.EqualValues(t, 0, got.ApplicationsByStatus[model.StatusDraft])
	assert.EqualValues(t, 1, got.PendingRefunds)
	assert.EqualValues(t, 1, got.OpenTickets)
	assert.Equal(t, "2000.00", got.TotalRevenue.StringFixed(2))
}
