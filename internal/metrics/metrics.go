package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Telemetry poll metrics
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fortunet_polls_total",
			Help: "Total session telemetry polls against the router",
		},
		[]string{"result"},
	)

	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fortunet_poll_duration_seconds",
			Help:    "Session telemetry poll duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fortunet_active_sessions",
			Help: "Hotspot sessions reported by the last successful poll",
		},
	)

	// Router connection metrics
	RouterReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fortunet_router_reconnects_total",
			Help: "RouterOS API reconnect attempts after a failed command",
		},
	)

	// Payment metrics
	PaymentsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fortunet_payments_initiated_total",
			Help: "STK push payment initiations",
		},
		[]string{"result"},
	)

	PaymentCallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fortunet_payment_callbacks_total",
			Help: "Payment gateway callbacks received",
		},
		[]string{"status"},
	)

	// Portal HTTP metrics
	PortalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fortunet_portal_requests_total",
			Help: "Portal HTTP requests processed",
		},
		[]string{"method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		PollsTotal,
		PollDuration,
		ActiveSessions,
		RouterReconnects,
		PaymentsInitiated,
		PaymentCallbacks,
		PortalRequests,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
