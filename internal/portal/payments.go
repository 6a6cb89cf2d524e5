package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Davemasibo/mikrotikDashboard/internal/metrics"
	"github.com/Davemasibo/mikrotikDashboard/internal/payment"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
)

// handleInitiatePayment validates the purchase, records a pending
// transaction and sends the STK push. The transaction is completed or
// failed later by the gateway callback.
func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PhoneNumber == "" {
		WriteError(w, http.StatusBadRequest, "Missing required field: phoneNumber")
		return
	}
	if req.PackageID == "" {
		WriteError(w, http.StatusBadRequest, "Missing required field: packageId")
		return
	}

	phone, err := payment.NormalizePhone(req.PhoneNumber)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := s.store.Plans().Get(r.Context(), req.PackageID)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Plan not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", req.PackageID).Msg("Failed to get plan for payment")
		WriteError(w, http.StatusInternalServerError, "Failed to initiate payment")
		return
	}
	if !plan.Active {
		WriteError(w, http.StatusBadRequest, "Plan is not available")
		return
	}
	if req.Amount != 0 && req.Amount != plan.Price {
		s.logger.Warn().
			Str("plan_id", plan.ID).
			Int64("client_amount", req.Amount).
			Int64("plan_price", plan.Price).
			Msg("Client amount differs from plan price, charging plan price")
	}

	username := req.Username
	if username == "" {
		username = phone
	}

	resp, err := s.payments.InitiateSTKPush(r.Context(), payment.STKPushRequest{
		PhoneNumber:      phone,
		Amount:           plan.Price,
		PlanName:         plan.Name,
		AccountReference: username,
	})
	if err != nil {
		metrics.PaymentsInitiated.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("phone", phone).Msg("STK push failed")
		WriteError(w, http.StatusBadGateway, "Payment initiation failed: "+err.Error())
		return
	}

	txn := storage.Transaction{
		CheckoutRequestID: resp.CheckoutRequestID,
		Username:          username,
		PhoneNumber:       phone,
		PlanID:            plan.ID,
		PlanName:          plan.Name,
		Amount:            plan.Price,
		Status:            storage.StatusPending,
	}
	if err := s.store.Transactions().Create(r.Context(), &txn); err != nil {
		s.logger.Error().Err(err).Str("checkout_request_id", resp.CheckoutRequestID).Msg("Failed to record transaction")
		WriteError(w, http.StatusInternalServerError, "Failed to record transaction")
		return
	}

	metrics.PaymentsInitiated.WithLabelValues("ok").Inc()
	WriteJSON(w, http.StatusOK, InitiatePaymentResponse{
		Success:           true,
		CheckoutRequestID: resp.CheckoutRequestID,
		CustomerMessage:   resp.CustomerMessage,
		Message:           "STK push sent successfully",
	})
}

// handleMpesaCallback settles a pending transaction. A successful
// payment activates the purchased plan on the router.
func (s *Server) handleMpesaCallback(w http.ResponseWriter, r *http.Request) {
	var cb payment.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid callback body")
		return
	}
	if cb.CheckoutRequestID == "" {
		WriteError(w, http.StatusBadRequest, "Missing CheckoutRequestID")
		return
	}

	txn, err := s.store.Transactions().GetByCheckoutID(r.Context(), cb.CheckoutRequestID)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn().Str("checkout_request_id", cb.CheckoutRequestID).Msg("Callback for unknown transaction")
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("checkout_request_id", cb.CheckoutRequestID).Msg("Failed to load transaction")
		WriteError(w, http.StatusInternalServerError, "Failed to process callback")
		return
	}

	if cb.Success() {
		now := time.Now().UTC()
		txn.Status = storage.StatusCompleted
		txn.CompletedAt = &now
		txn.ResultDescription = cb.ResultDesc
		metrics.PaymentCallbacks.WithLabelValues("completed").Inc()

		if err := s.activatePlan(r, txn); err != nil {
			// The payment is settled; activation failure must not lose
			// the transaction record.
			s.logger.Error().Err(err).
				Str("username", txn.Username).
				Str("plan_id", txn.PlanID).
				Msg("Failed to activate plan after payment")
		}
	} else {
		txn.Status = storage.StatusFailed
		txn.ResultDescription = cb.ResultDesc
		metrics.PaymentCallbacks.WithLabelValues("failed").Inc()
	}

	if err := s.store.Transactions().Update(r.Context(), txn); err != nil {
		s.logger.Error().Err(err).Str("transaction_id", txn.ID).Msg("Failed to update transaction")
		WriteError(w, http.StatusInternalServerError, "Failed to process callback")
		return
	}

	s.logger.Info().
		Str("transaction_id", txn.ID).
		Str("status", string(txn.Status)).
		Int("result_code", cb.ResultCode).
		Msg("Payment callback processed")

	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) activatePlan(r *http.Request, txn *storage.Transaction) error {
	plan, err := s.store.Plans().Get(r.Context(), txn.PlanID)
	if err != nil {
		return err
	}
	return s.routerCtl.ActivatePlan(r.Context(), txn.Username, plan.Profile, "")
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.store.Transactions().List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list transactions")
		WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
}
