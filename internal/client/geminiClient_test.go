package client

import (
	"admissions-portal/internal/config"
	"admissions-portal/internal/model"
	"admissions-portal/internal/verification"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, reply string) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompts = append(prompts, req.Contents[0].Parts[0].Text)

		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": reply}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &prompts
}

func newTestGemini(url string) GeminiClient {
	return NewGeminiClient(&config.Gemini{
		APIKey:         "test-key",
		Model:          "gemini-pro",
		BaseApiURL:     url,
		RequestsPerMin: 6000,
		Timeout:        5 * time.Second,
	})
}

func TestGeminiCorrespondence(t *testing.T) {
	reply := "Here is the result:\n```json\n" +
		`{"correspondenceScore": 78, "nameMatch": true, "programMatch": false, "dateConsistency": true,` +
		` "discrepancies": ["program differs on transcript"], "recommendation": "Review", "flags": []}` +
		"\n```"
	srv, prompts := geminiServer(t, reply)

	subject := verification.Subject{
		Program:    "Computer Science",
		University: "IIT Bombay",
		Documents:  []verification.DocumentSummary{{Type: "10th Marksheet", FileName: "tenth.pdf"}},
	}
	r, err := newTestGemini(srv.URL).AnalyzeCorrespondence(context.Background(), subject)
	require.NoError(t, err)

	assert.Equal(t, 78, r.CorrespondenceScore)
	assert.False(t, r.ProgramMatch)
	assert.Equal(t, []string{"program differs on transcript"}, r.Discrepancies)
	assert.Equal(t, model.RecommendReview, r.Recommendation)
	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "IIT Bombay")
	assert.Contains(t, (*prompts)[0], "tenth.pdf")
	assert.Contains(t, (*prompts)[0], "Intake: Not specified")
}

func TestGeminiEligibilityDefaultsWhenReplyHasNoJSON(t *testing.T) {
	srv, _ := geminiServer(t, "I cannot evaluate this application.")

	r, err := newTestGemini(srv.URL).CheckEligibility(context.Background(), verification.Subject{}, map[string]interface{}{"minPercentage": 60})
	require.NoError(t, err)
	assert.True(t, r.Eligible)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, model.RecommendApprove, r.Recommendation)
	assert.Equal(t, []string{}, r.MissingCriteria)
}

func TestGeminiClampsScores(t *testing.T) {
	srv, _ := geminiServer(t, `{"eligible": false, "score": 140, "recommendation": "reject"}`)

	r, err := newTestGemini(srv.URL).CheckEligibility(context.Background(), verification.Subject{}, map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, model.RecommendReject, r.Recommendation)
}

func TestGeminiAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	_, err := newTestGemini(srv.URL).AnalyzeCorrespondence(context.Background(), verification.Subject{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "RESOURCE_EXHAUSTED"))
}

func TestGeminiNotConfigured(t *testing.T) {
	c := NewGeminiClient(&config.Gemini{APIKey: "your_gemini_api_key_here", BaseApiURL: "http://unused"})
	assert.False(t, c.Configured())

	_, err := c.AnalyzeCorrespondence(context.Background(), verification.Subject{})
	assert.True(t, errors.Is(err, ErrScoringNotConfigured))
}
