package portal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.Plans().List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list plans")
		WriteError(w, http.StatusInternalServerError, "Failed to list plans")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	plan, err := s.store.Plans().Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Plan not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", id).Msg("Failed to get plan")
		WriteError(w, http.StatusInternalServerError, "Failed to get plan")
		return
	}
	WriteJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "Plan name is required")
		return
	}
	if req.Price <= 0 {
		WriteError(w, http.StatusBadRequest, "Plan price must be positive")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	plan := storage.Plan{
		Name:        req.Name,
		Price:       req.Price,
		Speed:       req.Speed,
		Validity:    req.Validity,
		DataLimit:   req.DataLimit,
		Profile:     req.Profile,
		Description: req.Description,
		Active:      active,
	}
	if err := s.store.Plans().Create(r.Context(), &plan); err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to create plan")
		WriteError(w, http.StatusInternalServerError, "Failed to create plan")
		return
	}

	s.logger.Info().Str("plan_id", plan.ID).Str("name", plan.Name).Msg("Plan created")
	WriteJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	plan, err := s.store.Plans().Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Plan not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", id).Msg("Failed to get plan")
		WriteError(w, http.StatusInternalServerError, "Failed to update plan")
		return
	}

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name != "" {
		plan.Name = req.Name
	}
	if req.Price > 0 {
		plan.Price = req.Price
	}
	if req.Speed != "" {
		plan.Speed = req.Speed
	}
	if req.Validity != "" {
		plan.Validity = req.Validity
	}
	if req.DataLimit != "" {
		plan.DataLimit = req.DataLimit
	}
	if req.Profile != "" {
		plan.Profile = req.Profile
	}
	if req.Description != "" {
		plan.Description = req.Description
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}

	if err := s.store.Plans().Update(r.Context(), plan); err != nil {
		s.logger.Error().Err(err).Str("plan_id", id).Msg("Failed to update plan")
		WriteError(w, http.StatusInternalServerError, "Failed to update plan")
		return
	}

	WriteJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := s.store.Plans().Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Plan not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", id).Msg("Failed to delete plan")
		WriteError(w, http.StatusInternalServerError, "Failed to delete plan")
		return
	}

	s.logger.Info().Str("plan_id", id).Msg("Plan deleted")
	WriteJSON(w, http.StatusOK, SuccessResponse{Message: "Plan deleted successfully"})
}
