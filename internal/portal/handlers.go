package portal

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Davemasibo/mikrotikDashboard/internal/router"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
)

const (
	cacheKeySystemInfo   = "system-info"
	cacheKeyHotspotUsers = "hotspot-users"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.monitor.State()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"router_active":  state.Active,
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"timestamp":      time.Now(),
	})
}

// handleCurrentSession returns the caller's own hotspot session,
// resolved by client IP. Wire keys use the router's kebab-case names,
// which the dashboard frontend expects.
func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	state := s.monitor.State()
	if !state.Active && state.LastError != "" {
		WriteError(w, http.StatusServiceUnavailable, state.LastError)
		return
	}

	snap, ok := s.monitor.Lookup(clientIP(r))
	if !ok {
		WriteError(w, http.StatusNotFound, "No active session found")
		return
	}

	timeLeft := snap.RemainingDisplay
	if snap.Unlimited {
		timeLeft = ""
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"username":                  snap.Username,
		"address":                   snap.Address,
		"mac-address":               snap.MACAddress,
		"bytes-in":                  snap.BytesIn,
		"bytes-out":                 snap.BytesOut,
		"bytes-in-formatted":        snap.BytesInDisplay,
		"bytes-out-formatted":       snap.BytesOutDisplay,
		"uptime":                    snap.UptimeDisplay,
		"idle-time":                 snap.IdleTimeDisplay,
		"session-time-left":         timeLeft,
		"session-time-left-seconds": snap.RemainingSeconds,
		"profile":                   snap.Profile,
		"rate-limit":                snap.RateLimit,
		"limit-uptime":              snap.LimitUptime,
	})
}

func (s *Server) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	state := s.monitor.State()
	if !state.Active && state.LastError != "" {
		WriteError(w, http.StatusServiceUnavailable, state.LastError)
		return
	}

	sessions := make([]map[string]interface{}, 0, len(state.Sessions))
	for _, snap := range state.Sessions {
		timeLeft := snap.RemainingDisplay
		if snap.Unlimited {
			timeLeft = ""
		}
		sessions = append(sessions, map[string]interface{}{
			"id":              snap.ID,
			"username":        snap.Username,
			"ip":              snap.Address,
			"mac":             snap.MACAddress,
			"uptime":          snap.UptimeDisplay,
			"idleTime":        snap.IdleTimeDisplay,
			"bytesIn":         snap.BytesIn,
			"bytesOut":        snap.BytesOut,
			"bytesInDisplay":  snap.BytesInDisplay,
			"bytesOutDisplay": snap.BytesOutDisplay,
			"timeLeft":        timeLeft,
			"plan":            snap.Profile,
			"status":          "active",
			"lastSeen":        snap.RetrievedAt.Format("2006-01-02 15:04:05"),
		})
	}

	WriteJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleHotspotUsers(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.cache.Get(cacheKeyHotspotUsers); ok {
		WriteJSON(w, http.StatusOK, cached)
		return
	}

	users, err := s.routerCtl.HotspotUsers(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list hotspot users")
		WriteError(w, http.StatusBadGateway, "Failed to list hotspot users: "+err.Error())
		return
	}

	s.cache.Add(cacheKeyHotspotUsers, users)
	WriteJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := router.NewUser{
		Username:   req.Username,
		Password:   req.Password,
		Profile:    req.Profile,
		MACAddress: req.MACAddress,
		Comment:    req.Comment,
	}
	if err := s.routerCtl.CreateUser(r.Context(), user); err != nil {
		s.logger.Error().Err(err).Str("username", req.Username).Msg("Failed to create hotspot user")
		WriteError(w, http.StatusBadGateway, "Failed to create user: "+err.Error())
		return
	}

	s.cache.Remove(cacheKeyHotspotUsers)
	WriteJSON(w, http.StatusCreated, SuccessResponse{Message: "User created successfully"})
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.cache.Get(cacheKeySystemInfo); ok {
		WriteJSON(w, http.StatusOK, cached)
		return
	}

	info, err := s.routerCtl.SystemInfo(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read system info")
		WriteError(w, http.StatusBadGateway, "Failed to read system info: "+err.Error())
		return
	}

	s.cache.Add(cacheKeySystemInfo, info)
	WriteJSON(w, http.StatusOK, info)
}

// handleStats aggregates dashboard statistics. Revenue figures come
// from recorded transactions, not the router.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	state := s.monitor.State()

	var totalUsers int
	if users, err := s.routerCtl.HotspotUsers(r.Context()); err == nil {
		totalUsers = len(users)
	} else {
		s.logger.Warn().Err(err).Msg("Failed to count hotspot users for stats")
	}

	txns, err := s.store.Transactions().List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list transactions for stats")
		WriteError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var totalRevenue, monthlyRevenue int64
	var todayTransactions int
	for _, txn := range txns {
		if txn.Status != storage.StatusCompleted {
			continue
		}
		totalRevenue += txn.Amount
		if txn.CompletedAt != nil {
			if txn.CompletedAt.After(startOfMonth) {
				monthlyRevenue += txn.Amount
			}
			if txn.CompletedAt.After(startOfDay) {
				todayTransactions++
			}
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"activeUsers":       len(state.Sessions),
		"onlineSessions":    len(state.Sessions),
		"totalUsers":        totalUsers,
		"totalRevenue":      totalRevenue,
		"monthlyRevenue":    monthlyRevenue,
		"todayTransactions": todayTransactions,
		"routerActive":      state.Active,
	})
}

func (s *Server) handleDisconnectUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.routerCtl.DisconnectSession(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("Failed to disconnect user")
		WriteError(w, http.StatusBadGateway, "Failed to disconnect user: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, SuccessResponse{Message: "User disconnected successfully"})
}

func (s *Server) handleBlockUser(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if err := s.routerCtl.BlockAddress(r.Context(), address, "Blocked via portal"); err != nil {
		s.logger.Error().Err(err).Str("address", address).Msg("Failed to block user")
		WriteError(w, http.StatusBadGateway, "Failed to block user: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, SuccessResponse{Message: "User blocked successfully"})
}

// handleLogout ends the caller's own hotspot session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.monitor.Lookup(clientIP(r))
	if ok {
		if err := s.routerCtl.DisconnectSession(r.Context(), snap.ID); err != nil {
			s.logger.Error().Err(err).Str("session_id", snap.ID).Msg("Failed to disconnect on logout")
			WriteError(w, http.StatusBadGateway, "Failed to log out: "+err.Error())
			return
		}
	}
	WriteJSON(w, http.StatusOK, SuccessResponse{Message: "Logged out successfully"})
}
