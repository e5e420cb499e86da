package client

import (
	"admissions-portal/internal/config"
	"admissions-portal/internal/model"
	"admissions-portal/internal/verification"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrScoringNotConfigured = errors.New("gemini is not configured")

// jsonObject matches the outermost object in a model reply that may carry prose or code fences.
var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

type GeminiClient interface {
	verification.Backend
	Configured() bool
}

type geminiClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
	model      string
	limiter    *rate.Limiter
}

type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// The model is asked for camelCase keys; these mirror its reply shape.
type correspondenceReply struct {
	CorrespondenceScore int      `json:"correspondenceScore"`
	NameMatch           bool     `json:"nameMatch"`
	ProgramMatch        bool     `json:"programMatch"`
	DateConsistency     bool     `json:"dateConsistency"`
	Discrepancies       []string `json:"discrepancies"`
	Recommendation      string   `json:"recommendation"`
	Flags               []string `json:"flags"`
}

type eligibilityReply struct {
	Eligible        bool     `json:"eligible"`
	Score           int      `json:"score"`
	MetCriteria     []string `json:"metCriteria"`
	MissingCriteria []string `json:"missingCriteria"`
	Recommendation  string   `json:"recommendation"`
	Flags           []string `json:"flags"`
}

func NewGeminiClient(cfg *config.Gemini) GeminiClient {
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 30
	}
	return &geminiClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseApiURL: strings.TrimRight(cfg.BaseApiURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1),
	}
}

func (c *geminiClientImpl) Configured() bool {
	return c.apiKey != "" && c.apiKey != "your_gemini_api_key_here"
}

func (c *geminiClientImpl) AnalyzeCorrespondence(ctx context.Context, subject verification.Subject) (*model.CorrespondenceReport, error) {
	additional, err := json.Marshal(orEmpty(subject.AdditionalData))
	if err != nil {
		return nil, fmt.Errorf("encode application data: %w", err)
	}
	documents, err := json.MarshalIndent(subject.Documents, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}

	intake := subject.Intake
	if intake == "" {
		intake = "Not specified"
	}

	prompt := fmt.Sprintf(`You are a verification system. Compare the application details with the uploaded documents and verify correspondence.

Application Details:
- Program: %s
- University: %s
- Student ID: %s
- Intake: %s
- Additional Data: %s

Documents Information:
%s

Check for:
1. Name consistency across documents and application
2. Program/university match with documents
3. Date consistency
4. Any discrepancies or mismatches

Respond in JSON format:
{
  "correspondenceScore": number (0-100),
  "nameMatch": boolean,
  "programMatch": boolean,
  "dateConsistency": boolean,
  "discrepancies": [],
  "recommendation": "approve" | "review" | "reject",
  "flags": []
}`, subject.Program, subject.University, subject.StudentID, intake, additional, documents)

	reply := correspondenceReply{
		CorrespondenceScore: 70,
		NameMatch:           true,
		ProgramMatch:        true,
		DateConsistency:     true,
		Recommendation:      string(model.RecommendReview),
	}
	if err := c.generateJSON(ctx, prompt, &reply); err != nil {
		return nil, err
	}

	return &model.CorrespondenceReport{
		CorrespondenceScore: clampScore(reply.CorrespondenceScore),
		NameMatch:           reply.NameMatch,
		ProgramMatch:        reply.ProgramMatch,
		DateConsistency:     reply.DateConsistency,
		Discrepancies:       nonNil(reply.Discrepancies),
		Recommendation:      parseRecommendation(reply.Recommendation),
		Flags:               nonNil(reply.Flags),
	}, nil
}

func (c *geminiClientImpl) CheckEligibility(ctx context.Context, subject verification.Subject, criteria map[string]interface{}) (*model.EligibilityReport, error) {
	documents, err := json.Marshal(subject.Documents)
	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	additional, err := json.Marshal(orEmpty(subject.AdditionalData))
	if err != nil {
		return nil, fmt.Errorf("encode application data: %w", err)
	}
	rules, err := json.MarshalIndent(criteria, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode criteria: %w", err)
	}

	prompt := fmt.Sprintf(`You are an eligibility verification system. Check if the application meets the eligibility criteria.

Application Details:
- Program: %s
- University: %s
- Student Information: %s
- Documents: %s

Eligibility Criteria:
%s

Check each criterion and determine:
1. If all criteria are met
2. Which criteria are missing or not met
3. Overall eligibility score (0-100)
4. Any flags for admin review

Respond in JSON format:
{
  "eligible": boolean,
  "score": number (0-100),
  "metCriteria": [],
  "missingCriteria": [],
  "recommendation": "approve" | "review" | "reject",
  "flags": []
}`, subject.Program, subject.University, additional, documents, rules)

	reply := eligibilityReply{
		Eligible:       true,
		Score:          100,
		Recommendation: string(model.RecommendApprove),
	}
	if err := c.generateJSON(ctx, prompt, &reply); err != nil {
		return nil, err
	}

	return &model.EligibilityReport{
		Eligible:        reply.Eligible,
		Score:           clampScore(reply.Score),
		MetCriteria:     nonNil(reply.MetCriteria),
		MissingCriteria: nonNil(reply.MissingCriteria),
		Recommendation:  parseRecommendation(reply.Recommendation),
		Flags:           nonNil(reply.Flags),
	}, nil
}

// generateJSON sends prompt and decodes the first JSON object of the reply into out.
// A reply without an object leaves out untouched.
func (c *geminiClientImpl) generateJSON(ctx context.Context, prompt string, out interface{}) error {
	text, err := c.generate(ctx, prompt)
	if err != nil {
		return err
	}

	match := jsonObject.FindString(text)
	if match == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(match), out); err != nil {
		return fmt.Errorf("decode gemini reply: %w", err)
	}
	return nil
}

func (c *geminiClientImpl) generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrScoringNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("gemini rate limit: %w", err)
	}

	body, err := json.Marshal(generateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseApiURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 300 {
		var apiErr geminiErrorBody
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini %d %s: %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini error %d: %s", resp.StatusCode, string(respBody))
	}

	var out generateContentResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func parseRecommendation(s string) model.Recommendation {
	switch model.Recommendation(strings.ToLower(strings.TrimSpace(s))) {
	case model.RecommendApprove:
		return model.RecommendApprove
	case model.RecommendReject:
		return model.RecommendReject
	}
	return model.RecommendReview
}

func clampScore(n int) int {
	return max(0, min(n, 100))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
