// Package portal serves the hotspot billing front-end: the subscriber
// dashboard API, the admin session/user/plan endpoints, and the M-Pesa
// payment flow.
package portal

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/Davemasibo/mikrotikDashboard/internal/payment"
	"github.com/Davemasibo/mikrotikDashboard/internal/router"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
	"github.com/Davemasibo/mikrotikDashboard/internal/telemetry"
)

// routerCacheTTL bounds how stale the cached system-info and
// hotspot-user reads may get. These endpoints are hit by dashboard
// refreshes far more often than the router needs to be asked.
const routerCacheTTL = 10 * time.Second

// SessionMonitor provides the portal's view of live hotspot sessions.
type SessionMonitor interface {
	State() telemetry.State
	Lookup(address string) (telemetry.SessionSnapshot, bool)
}

// RouterControl is the subset of router operations the portal drives.
type RouterControl interface {
	SystemInfo(ctx context.Context) (*router.SystemInfo, error)
	HotspotUsers(ctx context.Context) ([]router.HotspotUser, error)
	DisconnectSession(ctx context.Context, sessionID string) error
	BlockAddress(ctx context.Context, address, comment string) error
	CreateUser(ctx context.Context, user router.NewUser) error
	ActivatePlan(ctx context.Context, username, profile, limitUptime string) error
}

// PaymentGateway initiates STK push requests.
type PaymentGateway interface {
	InitiateSTKPush(ctx context.Context, push payment.STKPushRequest) (*payment.STKPushResponse, error)
}

// Server represents the portal HTTP server.
type Server struct {
	config      Config
	monitor     SessionMonitor
	routerCtl   RouterControl
	store       storage.Store
	payments    PaymentGateway
	rateLimiter *RateLimiter
	router      *mux.Router
	server      *http.Server
	listener    net.Listener
	cache       *expirable.LRU[string, any]
	startTime   time.Time
	logger      zerolog.Logger
}

// NewServer creates a new portal server.
func NewServer(cfg Config, monitor SessionMonitor, routerCtl RouterControl, store storage.Store, payments PaymentGateway, logger zerolog.Logger) *Server {
	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = 100
	}
	rateLimitWindow := cfg.RateLimitWindow
	if rateLimitWindow == 0 {
		rateLimitWindow = time.Minute
	}

	s := &Server{
		config:      cfg,
		monitor:     monitor,
		routerCtl:   routerCtl,
		store:       store,
		payments:    payments,
		rateLimiter: NewRateLimiter(rateLimit, rateLimitWindow),
		router:      mux.NewRouter(),
		cache:       expirable.NewLRU[string, any](8, nil, routerCacheTTL),
		startTime:   time.Now(),
		logger:      logger.With().Str("component", "portal").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Apply global middleware
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RateLimitMiddleware(s.rateLimiter))

	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(CORSMiddleware(s.config.AllowedOrigins))
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Subscriber dashboard
	api.HandleFunc("/current-session", s.handleCurrentSession).Methods("GET")
	api.HandleFunc("/logout", s.handleLogout).Methods("POST")

	// Admin panel
	api.HandleFunc("/active-sessions", s.handleActiveSessions).Methods("GET")
	api.HandleFunc("/hotspot-users", s.handleHotspotUsers).Methods("GET")
	api.HandleFunc("/hotspot-users", s.handleCreateUser).Methods("POST")
	api.HandleFunc("/system-info", s.handleSystemInfo).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/disconnect-user/{id}", s.handleDisconnectUser).Methods("POST")
	api.HandleFunc("/block-user/{address}", s.handleBlockUser).Methods("POST")

	// Plan management
	api.HandleFunc("/internet-plans", s.handleListPlans).Methods("GET")
	api.HandleFunc("/internet-plans", s.handleCreatePlan).Methods("POST")
	api.HandleFunc("/internet-plans/{id}", s.handleGetPlan).Methods("GET")
	api.HandleFunc("/internet-plans/{id}", s.handleUpdatePlan).Methods("PUT")
	api.HandleFunc("/internet-plans/{id}", s.handleDeletePlan).Methods("DELETE")

	// Payments
	api.HandleFunc("/initiate-payment", s.handleInitiatePayment).Methods("POST")
	api.HandleFunc("/mpesa-callback", s.handleMpesaCallback).Methods("POST")
	api.HandleFunc("/transactions", s.handleListTransactions).Methods("GET")
}

// SetUI mounts the embedded captive-portal page at the root path. Must
// be called before Start.
func (s *Server) SetUI(ui http.Handler) {
	s.router.PathPrefix("/").Handler(ui)
}

// SetListener sets a pre-bound listener (socket activation). Must be
// called before Start.
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Info().Str("addr", s.listener.Addr().String()).Msg("Portal server starting on systemd socket")
			err = s.server.Serve(s.listener)
		} else {
			s.logger.Info().Str("addr", s.config.ListenAddr).Msg("Portal server starting")
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Portal server error")
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
