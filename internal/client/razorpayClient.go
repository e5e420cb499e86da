package client

import (
	"admissions-portal/internal/config"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

var ErrGatewayNotConfigured = errors.New("razorpay is not configured")

// MinOrderPaise is the smallest order Razorpay accepts.
const MinOrderPaise = 100

type RazorpayClient interface {
	Configured() bool
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string, notes map[string]string) (*RazorpayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	FetchPayment(ctx context.Context, paymentID string) (*RazorpayPayment, error)
}

type razorpayClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	keyID         string
	keySecret     string
	webhookSecret string
}

type RazorpayOrder struct {
	ID       string                 `json:"id"`
	Amount   int64                  `json:"amount"`
	Currency string                 `json:"currency"`
	Receipt  string                 `json:"receipt"`
	Status   string                 `json:"status"`
	Raw      map[string]interface{} `json:"-"`
}

type RazorpayPayment struct {
	ID       string                 `json:"id"`
	OrderID  string                 `json:"order_id"`
	Amount   int64                  `json:"amount"`
	Currency string                 `json:"currency"`
	Status   string                 `json:"status"` // created, authorized, captured, refunded, failed
	Method   string                 `json:"method"`
	Raw      map[string]interface{} `json:"-"`
}

func (p *RazorpayPayment) Captured() bool {
	return p.Status == "captured"
}

type razorpayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Field       string `json:"field"`
		Reason      string `json:"reason"`
	} `json:"error"`
}

func NewRazorpayClient(cfg *config.Razorpay) RazorpayClient {
	return &razorpayClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    cfg.BaseApiURL,
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *razorpayClientImpl) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// ToPaise converts a rupee amount to the integer minor unit Razorpay expects.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (c *razorpayClientImpl) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string, notes map[string]string) (*RazorpayOrder, error) {
	if !c.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	paise := ToPaise(amount)
	if paise < MinOrderPaise {
		return nil, fmt.Errorf("minimum order amount is %d paise, got %d", MinOrderPaise, paise)
	}
	if len(receipt) > 40 {
		receipt = receipt[:40]
	}

	payload := map[string]interface{}{
		"amount":          paise,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/v1/orders", body)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	var order RazorpayOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode razorpay order: %w", err)
	}
	_ = json.Unmarshal(raw, &order.Raw)

	return &order, nil
}

func (c *razorpayClientImpl) FetchPayment(ctx context.Context, paymentID string) (*RazorpayPayment, error) {
	if !c.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	raw, err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch payment: %w", err)
	}

	var payment RazorpayPayment
	if err := json.Unmarshal(raw, &payment); err != nil {
		return nil, fmt.Errorf("decode razorpay payment: %w", err)
	}
	_ = json.Unmarshal(raw, &payment.Raw)

	return &payment, nil
}

// VerifySignature checks the checkout signature: hex(HMAC-SHA256(key_secret, order_id|payment_id)).
func (c *razorpayClientImpl) VerifySignature(orderID, paymentID, signature string) bool {
	if c.keySecret == "" {
		return false
	}
	return validHMAC(c.keySecret, []byte(orderID+"|"+paymentID), signature)
}

// VerifyWebhookSignature checks X-Razorpay-Signature against the raw body.
func (c *razorpayClientImpl) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.webhookSecret == "" {
		return false
	}
	return validHMAC(c.webhookSecret, body, signature)
}

func (c *razorpayClientImpl) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e razorpayErrorBody
		if json.Unmarshal(raw, &e) == nil && e.Error.Description != "" {
			return nil, fmt.Errorf("razorpay error %d: %s (%s)", resp.StatusCode, e.Error.Description, e.Error.Code)
		}
		return nil, fmt.Errorf("razorpay error %d: %s", resp.StatusCode, string(raw))
	}

	return raw, nil
}

// Sign returns hex(HMAC-SHA256(secret, payload)).
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func validHMAC(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
