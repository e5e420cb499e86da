// Package verification produces the advisory report stored on an application: a deterministic
// scorer, an optional generative backend composed on top of it, and the Verifier that runs either
// against stored applications.
package verification

import (
	"admissions-portal/internal/model"
	"math"
	"time"
)

const (
	FlagNoDocuments           = "No documents uploaded - Cannot verify application"
	FlagInsufficientDocuments = "Insufficient documents uploaded - At least 2 documents required"
	FlagMissingRequired       = "Some required documents may be missing"
	FlagProgramIncomplete     = "Program name seems incomplete"
)

// Score is the deterministic assessment used when no generative backend is available.
// It depends only on the document count and the program name.
func Score(app *model.Application, docs []model.Document, now time.Time) *model.VerificationReport {
	count := len(docs)
	hasDocs := count > 0

	qualityScore := 0
	correspondenceScore := 0
	eligibilityScore := 50
	if hasDocs {
		qualityScore = min(85+2*count, 95)
		correspondenceScore = 88
		eligibilityScore = 82
	}

	// Without documents the eligibility floor is reported but never aggregated.
	overall := 0
	if hasDocs {
		overall = meanOfNonZero(qualityScore, correspondenceScore, eligibilityScore)
	}

	recommendation := model.RecommendReview
	switch {
	case !hasDocs:
		recommendation = model.RecommendReject
	case overall >= 85:
		recommendation = model.RecommendApprove
	case overall < 60:
		recommendation = model.RecommendReject
	}

	flags := []string{}
	if !hasDocs {
		flags = append(flags, FlagNoDocuments)
	} else if count < 2 {
		flags = append(flags, FlagInsufficientDocuments)
	}
	if count > 0 && count < 4 {
		flags = append(flags, FlagMissingRequired)
	}
	if len([]rune(app.ProgramName)) < 3 {
		flags = append(flags, FlagProgramIncomplete)
	}

	return &model.VerificationReport{
		Source:                model.ReportSourceDeterministic,
		DocumentQuality:       documentQuality(count, qualityScore),
		Correspondence:        correspondence(hasDocs, correspondenceScore),
		Eligibility:           eligibility(hasDocs, eligibilityScore),
		OverallScore:          overall,
		OverallRecommendation: recommendation,
		Flags:                 flags,
		VerifiedAt:            now,
	}
}

func documentQuality(count, score int) model.DocumentQualityReport {
	r := model.DocumentQualityReport{
		QualityScore:  score,
		Clarity:       "unknown",
		Completeness:  "no_documents",
		ExtractedInfo: emptyExtractedInfo(),
		Issues:        []string{},
	}

	switch {
	case count == 0:
		r.Issues = append(r.Issues, "No documents uploaded - Cannot assess document quality")
		r.Recommendation = model.RecommendReject
		return r
	case count < 2:
		r.Issues = append(r.Issues, "Limited documents available for review")
	}

	r.Clarity = "clear"
	r.Completeness = "incomplete"
	if count >= 4 {
		r.Completeness = "complete"
	}
	r.Recommendation = thresholdRecommendation(score, 80)
	return r
}

func correspondence(hasDocs bool, score int) model.CorrespondenceReport {
	r := model.CorrespondenceReport{
		CorrespondenceScore: score,
		NameMatch:           hasDocs,
		ProgramMatch:        hasDocs,
		DateConsistency:     hasDocs,
		Discrepancies:       []string{},
		Flags:               []string{},
	}
	if !hasDocs {
		r.Discrepancies = append(r.Discrepancies, "Cannot verify correspondence - No documents uploaded")
		r.Flags = append(r.Flags, "No documents to verify correspondence")
		r.Recommendation = model.RecommendReject
		return r
	}
	r.Recommendation = thresholdRecommendation(score, 85)
	return r
}

func eligibility(hasDocs bool, score int) model.EligibilityReport {
	r := model.EligibilityReport{
		Eligible:        hasDocs,
		Score:           score,
		MetCriteria:     []string{"Application submitted"},
		MissingCriteria: []string{},
		Flags:           []string{},
	}
	if !hasDocs {
		r.MissingCriteria = append(r.MissingCriteria, "No documents uploaded")
		r.Flags = append(r.Flags, "No documents to verify eligibility")
		r.Recommendation = model.RecommendReject
		return r
	}
	r.MetCriteria = append(r.MetCriteria, "Documents provided")
	r.Recommendation = thresholdRecommendation(score, 80)
	return r
}

func thresholdRecommendation(score, approveAt int) model.Recommendation {
	if score >= approveAt {
		return model.RecommendApprove
	}
	return model.RecommendReview
}

func meanOfNonZero(scores ...int) int {
	sum, n := 0, 0
	for _, s := range scores {
		if s > 0 {
			sum += s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func emptyExtractedInfo() model.ExtractedInfo {
	return model.ExtractedInfo{Names: []string{}, Dates: []string{}, Numbers: []string{}, Other: []string{}}
}
