package verification

import (
	"admissions-portal/internal/model"
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// DocumentSummary is the document metadata shared with a scoring backend. File contents are never sent.
type DocumentSummary struct {
	Type       string    `json:"type"`
	FileName   string    `json:"file_name"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Subject is what a scoring backend sees of an application.
type Subject struct {
	ApplicationID  string                 `json:"-"`
	Program        string                 `json:"program"`
	University     string                 `json:"university"`
	StudentID      string                 `json:"student_id"`
	Intake         string                 `json:"intake,omitempty"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
	Documents      []DocumentSummary      `json:"documents"`
}

// Backend is a generative scoring service.
type Backend interface {
	AnalyzeCorrespondence(ctx context.Context, subject Subject) (*model.CorrespondenceReport, error)
	CheckEligibility(ctx context.Context, subject Subject, criteria map[string]interface{}) (*model.EligibilityReport, error)
}

// NewSubject builds the backend view of an application and its documents.
func NewSubject(app *model.Application, docs []model.Document, university *model.University) Subject {
	s := Subject{
		ApplicationID:  app.ID,
		Program:        app.ProgramName,
		StudentID:      app.StudentID,
		Intake:         app.Intake,
		AdditionalData: app.ApplicationData,
		Documents:      make([]DocumentSummary, 0, len(docs)),
	}
	if university != nil {
		s.University = university.Name
	}
	for _, d := range docs {
		typeName := ""
		if d.DocumentType != nil {
			typeName = d.DocumentType.Name
		}
		s.Documents = append(s.Documents, DocumentSummary{
			Type:       typeName,
			FileName:   d.FileName,
			Status:     string(d.Status),
			UploadedAt: d.CreatedAt,
		})
	}
	return s
}

// Criteria returns the eligibility criteria for an application: its own, else the university default.
func Criteria(app *model.Application, university *model.University) map[string]interface{} {
	if len(app.EligibilityCriteria) > 0 {
		return app.EligibilityCriteria
	}
	return university.EligibilityCriteria()
}

// Compose runs the backend checks concurrently and aggregates them into a report.
// Any backend error fails the whole composition.
func Compose(ctx context.Context, backend Backend, subject Subject, criteria map[string]interface{}, now time.Time) (*model.VerificationReport, error) {
	quality := model.DocumentQualityReport{
		QualityScore:   85,
		Clarity:        "clear",
		Completeness:   "complete",
		ExtractedInfo:  emptyExtractedInfo(),
		Issues:         []string{},
		Recommendation: model.RecommendApprove,
	}

	var (
		corr *model.CorrespondenceReport
		elig *model.EligibilityReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := backend.AnalyzeCorrespondence(gctx, subject)
		corr = r
		return err
	})
	g.Go(func() error {
		if len(criteria) == 0 {
			elig = &model.EligibilityReport{
				Eligible:        true,
				Score:           100,
				MetCriteria:     []string{},
				MissingCriteria: []string{},
				Recommendation:  model.RecommendApprove,
				Flags:           []string{},
			}
			return nil
		}
		r, err := backend.CheckEligibility(gctx, subject, criteria)
		elig = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overall := int(math.Round(float64(quality.QualityScore+corr.CorrespondenceScore+elig.Score) / 3))

	recs := []model.Recommendation{quality.Recommendation, corr.Recommendation, elig.Recommendation}
	recommendation := model.RecommendReview
	switch {
	case allEqual(recs, model.RecommendApprove):
		recommendation = model.RecommendApprove
	case anyEqual(recs, model.RecommendReject):
		recommendation = model.RecommendReject
	}

	flags := []string{}
	flags = append(flags, quality.Issues...)
	flags = append(flags, corr.Discrepancies...)
	flags = append(flags, corr.Flags...)
	flags = append(flags, elig.MissingCriteria...)
	flags = append(flags, elig.Flags...)

	return &model.VerificationReport{
		Source:                model.ReportSourceGenerative,
		DocumentQuality:       quality,
		Correspondence:        *corr,
		Eligibility:           *elig,
		OverallScore:          overall,
		OverallRecommendation: recommendation,
		Flags:                 flags,
		VerifiedAt:            now,
	}, nil
}

func allEqual(recs []model.Recommendation, want model.Recommendation) bool {
	for _, r := range recs {
		if r != want {
			return false
		}
	}
	return true
}

func anyEqual(recs []model.Recommendation, want model.Recommendation) bool {
	for _, r := range recs {
		if r == want {
			return true
		}
	}
	return false
}
