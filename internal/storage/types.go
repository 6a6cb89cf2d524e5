package storage

import (
	"time"

	"github.com/google/uuid"
)

// TransactionStatus tracks a payment through its lifecycle.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Plan represents a purchasable internet plan. Price is in whole
// Kenyan shillings. Profile names the hotspot user profile applied on
// the router when the plan is activated.
type Plan struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Speed       string    `json:"speed"`
	Validity    string    `json:"validity"`
	DataLimit   string    `json:"data_limit"`
	Profile     string    `json:"profile"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transaction represents one payment attempt against a plan.
type Transaction struct {
	ID                string            `json:"id"`
	CheckoutRequestID string            `json:"checkout_request_id"`
	Username          string            `json:"username"`
	PhoneNumber       string            `json:"phone_number"`
	PlanID            string            `json:"plan_id"`
	PlanName          string            `json:"plan_name"`
	Amount            int64             `json:"amount"`
	Status            TransactionStatus `json:"status"`
	ResultDescription string            `json:"result_description,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
}

// DefaultPlans returns the catalog seeded into an empty store.
func DefaultPlans() []Plan {
	now := time.Now().UTC()
	mk := func(name string, price int64, speed, validity, dataLimit, profile, desc string) Plan {
		return Plan{
			ID:          uuid.NewString(),
			Name:        name,
			Price:       price,
			Speed:       speed,
			Validity:    validity,
			DataLimit:   dataLimit,
			Profile:     profile,
			Description: desc,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	return []Plan{
		mk("1 Mbps - 30 Days", 300, "1 Mbps", "30 days", "Unlimited", "1mbps-monthly",
			"Unlimited browsing at 1 Mbps for a full month"),
		mk("2 Mbps - 30 Days", 500, "2 Mbps", "30 days", "Unlimited", "2mbps-monthly",
			"Unlimited browsing at 2 Mbps for a full month"),
		mk("Daily Unlimited", 100, "5 Mbps", "24 hours", "Unlimited", "daily-unlimited",
			"Full-speed unlimited access for 24 hours"),
		mk("Hourly Unlimited", 20, "5 Mbps", "1 hour", "Unlimited", "hourly-unlimited",
			"Full-speed unlimited access for 1 hour"),
	}
}
