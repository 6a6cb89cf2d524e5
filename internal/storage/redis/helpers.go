package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
)

// parsePlan converts a Redis hash to a Plan
func parsePlan(data map[string]string) (*storage.Plan, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	price, err := strconv.ParseInt(data["price"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}

	active, err := strconv.ParseBool(data["active"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse active: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, data["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &storage.Plan{
		ID:          data["id"],
		Name:        data["name"],
		Price:       price,
		Speed:       data["speed"],
		Validity:    data["validity"],
		DataLimit:   data["data_limit"],
		Profile:     data["profile"],
		Description: data["description"],
		Active:      active,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func planToHash(p *storage.Plan) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"price":       strconv.FormatInt(p.Price, 10),
		"speed":       p.Speed,
		"validity":    p.Validity,
		"data_limit":  p.DataLimit,
		"profile":     p.Profile,
		"description": p.Description,
		"active":      strconv.FormatBool(p.Active),
		"created_at":  p.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  p.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// parseTransaction converts a Redis hash to a Transaction
func parseTransaction(data map[string]string) (*storage.Transaction, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	amount, err := strconv.ParseInt(data["amount"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	txn := &storage.Transaction{
		ID:                data["id"],
		CheckoutRequestID: data["checkout_request_id"],
		Username:          data["username"],
		PhoneNumber:       data["phone_number"],
		PlanID:            data["plan_id"],
		PlanName:          data["plan_name"],
		Amount:            amount,
		Status:            storage.TransactionStatus(data["status"]),
		ResultDescription: data["result_description"],
		CreatedAt:         createdAt,
	}

	if v := data["completed_at"]; v != "" {
		completedAt, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse completed_at: %w", err)
		}
		txn.CompletedAt = &completedAt
	}

	return txn, nil
}

func transactionToHash(t *storage.Transaction) map[string]interface{} {
	h := map[string]interface{}{
		"id":                  t.ID,
		"checkout_request_id": t.CheckoutRequestID,
		"username":            t.Username,
		"phone_number":        t.PhoneNumber,
		"plan_id":             t.PlanID,
		"plan_name":           t.PlanName,
		"amount":              strconv.FormatInt(t.Amount, 10),
		"status":              string(t.Status),
		"result_description":  t.ResultDescription,
		"created_at":          t.CreatedAt.Format(time.RFC3339Nano),
	}
	if t.CompletedAt != nil {
		h["completed_at"] = t.CompletedAt.Format(time.RFC3339Nano)
	} else {
		h["completed_at"] = ""
	}
	return h
}
