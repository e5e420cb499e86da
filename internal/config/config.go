package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database     Database     `envPrefix:"DATABASE_"`
	Auth         Auth         `envPrefix:"AUTH_"`
	Razorpay     Razorpay     `envPrefix:"RAZORPAY_"`
	Gemini       Gemini       `envPrefix:"GEMINI_"`
	Fees         Fees         `envPrefix:"FEE_"`
	Verification Verification `envPrefix:"VERIFICATION_"`
	Kafka        Kafka        `envPrefix:"KAFKA_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

type Log struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"json"`
	Output     string `env:"LOG_OUTPUT" envDefault:"stdout"`
	FilePath   string `env:"LOG_FILE_PATH" envDefault:"logs/api.log"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"10"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
}

type HTTPServer struct {
	Host            string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	AllowedOrigins  []string      `env:"HTTP_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type Database struct {
	Driver       string `env:"DRIVER" envDefault:"sqlite"`
	URL          string `env:"URL" envDefault:"admissions.db"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"50"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
	// DevBypass trusts X-User-Id / X-User-Role headers. Never enable in production.
	DevBypass bool `env:"DEV_BYPASS" envDefault:"false"`
}

type Razorpay struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID         string `env:"KEY_ID"`
	KeySecret     string `env:"KEY_SECRET"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

func (r Razorpay) Configured() bool {
	return r.KeyID != "" && r.KeySecret != ""
}

type Gemini struct {
	APIKey         string        `env:"API_KEY"`
	Model          string        `env:"MODEL" envDefault:"gemini-pro"`
	BaseApiURL     string        `env:"BASE_API_URL" envDefault:"https://generativelanguage.googleapis.com"`
	RequestsPerMin int           `env:"REQUESTS_PER_MIN" envDefault:"30"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

func (g Gemini) Configured() bool {
	return g.APIKey != "" && g.APIKey != "your_gemini_api_key_here"
}

type Fees struct {
	IssueResolution decimal.Decimal `env:"ISSUE_RESOLUTION" envDefault:"500.00"`
	Currency        string          `env:"CURRENCY" envDefault:"INR"`
}

type Verification struct {
	Workers       int           `env:"WORKERS" envDefault:"4"`
	QueueSize     int           `env:"QUEUE_SIZE" envDefault:"256"`
	SweepSchedule string        `env:"SWEEP_SCHEDULE" envDefault:"@every 1m"`
	StaleAfter    time.Duration `env:"STALE_AFTER" envDefault:"10m"`
	SweepBatch    int           `env:"SWEEP_BATCH" envDefault:"50"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"application-verification"`
	GroupID string   `env:"GROUP_ID" envDefault:"admissions-verifier"`
}

func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}
