package portal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// SuccessResponse represents a generic success response.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CreateUserRequest describes a hotspot user to provision.
type CreateUserRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Profile    string `json:"profile"`
	MACAddress string `json:"mac_address"`
	Comment    string `json:"comment"`
}

// InitiatePaymentRequest starts an STK push for a plan purchase.
// Field names follow the portal frontend's camelCase convention. The
// client-supplied amount and packageName are advisory only; the stored
// plan is authoritative for both.
type InitiatePaymentRequest struct {
	PackageID   string `json:"packageId"`
	Amount      int64  `json:"amount"`
	PhoneNumber string `json:"phoneNumber"`
	PackageName string `json:"packageName"`
	Username    string `json:"username"`
}

// InitiatePaymentResponse acknowledges a sent push.
type InitiatePaymentResponse struct {
	Success           bool   `json:"success"`
	CheckoutRequestID string `json:"checkoutRequestID"`
	CustomerMessage   string `json:"customerMessage,omitempty"`
	Message           string `json:"message"`
}

// PlanRequest is the create/update payload for an internet plan.
type PlanRequest struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Speed       string `json:"speed"`
	Validity    string `json:"validity"`
	DataLimit   string `json:"data_limit"`
	Profile     string `json:"profile"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

// Config holds the portal server configuration.
type Config struct {
	ListenAddr      string
	AllowedOrigins  []string
	RateLimit       int
	RateLimitWindow time.Duration
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, `{"error":"Internal Server Error","message":"Failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}
