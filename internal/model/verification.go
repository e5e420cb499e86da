package model

import "time"

type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReview  Recommendation = "review"
	RecommendReject  Recommendation = "reject"
)

const (
	ReportSourceDeterministic = "deterministic"
	ReportSourceGenerative    = "generative"
)

type ExtractedInfo struct {
	Names   []string `json:"names"`
	Dates   []string `json:"dates"`
	Numbers []string `json:"numbers"`
	Other   []string `json:"other"`
}

type DocumentQualityReport struct {
	QualityScore   int            `json:"quality_score"`
	Clarity        string         `json:"clarity"`
	Completeness   string         `json:"completeness"`
	ExtractedInfo  ExtractedInfo  `json:"extracted_info"`
	Issues         []string       `json:"issues"`
	Recommendation Recommendation `json:"recommendation"`
}

type CorrespondenceReport struct {
	CorrespondenceScore int            `json:"correspondence_score"`
	NameMatch           bool           `json:"name_match"`
	ProgramMatch        bool           `json:"program_match"`
	DateConsistency     bool           `json:"date_consistency"`
	Discrepancies       []string       `json:"discrepancies"`
	Recommendation      Recommendation `json:"recommendation"`
	Flags               []string       `json:"flags"`
}

type EligibilityReport struct {
	Eligible        bool           `json:"eligible"`
	Score           int            `json:"score"`
	MetCriteria     []string       `json:"met_criteria"`
	MissingCriteria []string       `json:"missing_criteria"`
	Recommendation  Recommendation `json:"recommendation"`
	Flags           []string       `json:"flags"`
}

// VerificationReport is the advisory assessment stored on an application.
type VerificationReport struct {
	Source                string                `json:"source"`
	DocumentQuality       DocumentQualityReport `json:"document_quality"`
	Correspondence        CorrespondenceReport  `json:"correspondence"`
	Eligibility           EligibilityReport     `json:"eligibility"`
	OverallScore          int                   `json:"overall_score"`
	OverallRecommendation Recommendation        `json:"overall_recommendation"`
	Flags                 []string              `json:"flags"`
	VerifiedAt            time.Time             `json:"verified_at"`
}
