package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}))

	assert.Equal(t, "development", cfg.Environment.Name)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "500", cfg.Fees.IssueResolution.String())
	assert.Equal(t, "INR", cfg.Fees.Currency)
	assert.Equal(t, 4, cfg.Verification.Workers)
	assert.Equal(t, 10*time.Minute, cfg.Verification.StaleAfter)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Razorpay.Configured())
	assert.False(t, cfg.Gemini.Configured())
}

func TestPrefixedGroups(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{
		"ENVIRONMENT":          "production",
		"DATABASE_DRIVER":      "postgres",
		"RAZORPAY_KEY_ID":      "rzp_test_1",
		"RAZORPAY_KEY_SECRET":  "secret",
		"GEMINI_API_KEY":       "your_gemini_api_key_here",
		"FEE_ISSUE_RESOLUTION": "750.50",
		"KAFKA_BROKERS":        "k1:9092,k2:9092",
	}}))

	assert.True(t, cfg.Environment.IsProduction())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Razorpay.Configured())
	assert.False(t, cfg.Gemini.Configured(), "placeholder key counts as missing")
	assert.Equal(t, "750.5", cfg.Fees.IssueResolution.String())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("VERIFICATION_WORKERS=7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("VERIFICATION_WORKERS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Verification.Workers)
}
