// Package payment integrates Safaricom M-Pesa STK push for hotspot
// plan purchases. A push prompts the subscriber's phone for a PIN;
// the gateway reports the outcome to our callback endpoint.
package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// timestampLayout is the gateway's yyyymmddhhmmss format.
	timestampLayout = "20060102150405"

	// DefaultTimeout bounds each gateway HTTP call.
	DefaultTimeout = 30 * time.Second
)

// Config holds M-Pesa gateway credentials and endpoints.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Environment    string // "sandbox" or "production"
	CallbackURL    string
	Timeout        time.Duration
}

// Client talks to the Daraja STK push API.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	// now is replaceable in tests for deterministic timestamps.
	now func() time.Time
}

// New creates an M-Pesa client for the configured environment.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	env := cfg.Environment
	if env == "" {
		env = "sandbox"
	}
	return &Client{
		cfg:        cfg,
		baseURL:    fmt.Sprintf("https://%s.safaricom.co.ke", env),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "mpesa").Logger(),
		now:        time.Now,
	}
}

// SetBaseURL overrides the gateway endpoint. Used by tests.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetNow overrides the clock. Used by tests.
func (c *Client) SetNow(now func() time.Time) {
	c.now = now
}

// STKPushRequest describes one payment prompt.
type STKPushRequest struct {
	PhoneNumber      string
	Amount           int64
	PlanName         string
	AccountReference string
}

// STKPushResponse is the gateway's acceptance of a push request. It
// does not mean the subscriber has paid; the callback decides that.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Callback is the gateway's report on a completed or failed push.
// ResultCode 0 means the subscriber paid.
type Callback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
}

// Success reports whether the callback indicates a completed payment.
func (cb Callback) Success() bool {
	return cb.ResultCode == 0
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessToken fetches an OAuth token via client credentials.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	url := c.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return token.AccessToken, nil
}

// password derives the request password from the short code, consumer
// secret and timestamp.
func (c *Client) password(timestamp string) string {
	sum := sha256.Sum256([]byte(c.cfg.ShortCode + c.cfg.ConsumerSecret + timestamp))
	return hex.EncodeToString(sum[:])
}

// InitiateSTKPush asks the gateway to prompt the subscriber's phone.
func (c *Client) InitiateSTKPush(ctx context.Context, push STKPushRequest) (*STKPushResponse, error) {
	phone, err := NormalizePhone(push.PhoneNumber)
	if err != nil {
		return nil, err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format(timestampLayout)
	payload := map[string]any{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          c.password(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            push.Amount,
		"PartyA":            phone,
		"PartyB":            c.cfg.ShortCode,
		"PhoneNumber":       phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  push.AccountReference,
		"TransactionDesc":   "FortuNet " + push.PlanName,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push request: %w", err)
	}

	url := c.baseURL + "/mpesa/stkpush/v1/processrequest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push request returned status %d", resp.StatusCode)
	}

	var result STKPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}

	c.logger.Info().
		Str("checkout_request_id", result.CheckoutRequestID).
		Str("phone", phone).
		Int64("amount", push.Amount).
		Msg("STK push initiated")

	return &result, nil
}

// NormalizePhone converts a subscriber number to the 254XXXXXXXXX form
// the gateway requires. Accepts 07XX..., +2547XX... and 2547XX... input.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, "0") {
		phone = "254" + phone[1:]
	}

	if !strings.HasPrefix(phone, "254") || len(phone) != 12 {
		return "", fmt.Errorf("invalid phone number: %q", phone)
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid phone number: %q", phone)
		}
	}
	return phone, nil
}
