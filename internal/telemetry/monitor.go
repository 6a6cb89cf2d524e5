package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Davemasibo/mikrotikDashboard/internal/metrics"
	"github.com/Davemasibo/mikrotikDashboard/internal/router"
)

const (
	// DefaultPollInterval is the authoritative refresh cadence.
	DefaultPollInterval = 30 * time.Second

	// DefaultTickInterval drives local countdown interpolation.
	DefaultTickInterval = time.Second
)

// Source provides the router's active session table.
type Source interface {
	ActiveSessions(ctx context.Context) ([]router.ActiveSession, error)
}

// Config holds monitor settings.
type Config struct {
	PollInterval time.Duration
	TickInterval time.Duration
}

// State is a consistent read of the monitor: the last-known snapshots
// with interpolated remaining time, plus the poll health flags.
type State struct {
	Sessions  []SessionSnapshot
	Active    bool
	LastError string
	LastPoll  time.Time
}

// Monitor polls the session source on a fixed cadence and keeps a
// per-session countdown ticking between polls. On a failed poll the
// last-known snapshots are preserved; only the active flag and error
// message change. Both timers share one lifecycle: Stop cancels the
// poll and the tick together.
type Monitor struct {
	source   Source
	interval time.Duration
	tick     time.Duration
	logger   zerolog.Logger

	mu         sync.RWMutex
	sessions   []SessionSnapshot
	countdowns map[string]*Countdown
	active     bool
	lastError  string
	lastPoll   time.Time

	// polling guards against overlapping polls: an interval that fires
	// while the previous poll is still in flight is skipped.
	polling atomic.Bool

	cancel context.CancelFunc
}

// NewMonitor creates a session telemetry monitor.
func NewMonitor(source Source, cfg Config, logger zerolog.Logger) *Monitor {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	return &Monitor{
		source:     source,
		interval:   cfg.PollInterval,
		tick:       cfg.TickInterval,
		logger:     logger.With().Str("component", "telemetry").Logger(),
		countdowns: make(map[string]*Countdown),
	}
}

// Start begins polling and ticking. The first poll runs immediately.
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.run(ctx)
	m.logger.Info().
		Dur("poll_interval", m.interval).
		Dur("tick_interval", m.tick).
		Msg("Session telemetry monitor started")
}

// Stop cancels both timers. Safe to call once after Start.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.logger.Info().Msg("Session telemetry monitor stopped")
}

func (m *Monitor) run(ctx context.Context) {
	m.pollGuarded(ctx)

	pollTicker := time.NewTicker(m.interval)
	defer pollTicker.Stop()
	tickTicker := time.NewTicker(m.tick)
	defer tickTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			m.pollGuarded(ctx)
		case <-tickTicker.C:
			m.tickAll()
		}
	}
}

// pollGuarded runs one poll in its own goroutine so a hung router call
// blocks only that cycle, never the tick loop. Overlap is resolved as
// skip: if the previous poll is still in flight, this cycle is dropped.
func (m *Monitor) pollGuarded(ctx context.Context) {
	if !m.polling.CompareAndSwap(false, true) {
		m.logger.Warn().Msg("Previous poll still in flight, skipping cycle")
		return
	}
	go func() {
		defer m.polling.Store(false)
		m.poll(ctx)
	}()
}

// poll fetches the active session table and replaces the snapshot set.
func (m *Monitor) poll(ctx context.Context) {
	start := time.Now()
	sessions, err := m.source.ActiveSessions(ctx)
	metrics.PollDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PollsTotal.WithLabelValues("error").Inc()
		m.logger.Error().Err(err).Msg("Session poll failed")

		m.mu.Lock()
		m.active = false
		m.lastError = "Failed to refresh session data: " + err.Error()
		m.mu.Unlock()
		return
	}

	metrics.PollsTotal.WithLabelValues("ok").Inc()
	metrics.ActiveSessions.Set(float64(len(sessions)))

	now := time.Now()
	snapshots := make([]SessionSnapshot, 0, len(sessions))
	for _, s := range sessions {
		snapshots = append(snapshots, NewSnapshot(s, now))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(snapshots))
	for _, snap := range snapshots {
		seen[snap.ID] = true
		if snap.Unlimited {
			delete(m.countdowns, snap.ID)
			continue
		}
		cd := m.countdowns[snap.ID]
		if cd == nil {
			cd = &Countdown{}
			m.countdowns[snap.ID] = cd
		}
		cd.Seed(snap.SessionTimeLeft.TotalSeconds())
	}
	for id := range m.countdowns {
		if !seen[id] {
			delete(m.countdowns, id)
		}
	}

	m.sessions = snapshots
	m.active = true
	m.lastError = ""
	m.lastPoll = now
}

// tickAll advances every countdown by one second.
func (m *Monitor) tickAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cd := range m.countdowns {
		cd.Tick()
	}
}

// State returns the current snapshots with interpolated remaining time.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]SessionSnapshot, len(m.sessions))
	copy(sessions, m.sessions)
	for i := range sessions {
		m.interpolateLocked(&sessions[i])
	}

	return State{
		Sessions:  sessions,
		Active:    m.active,
		LastError: m.lastError,
		LastPoll:  m.lastPoll,
	}
}

// Lookup returns the session snapshot for a client address.
func (m *Monitor) Lookup(address string) (SessionSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, snap := range m.sessions {
		if snap.Address == address {
			m.interpolateLocked(&snap)
			return snap, true
		}
	}
	return SessionSnapshot{}, false
}

// interpolateLocked overlays the countdown's current value onto a
// snapshot copy. Must be called with at least a read lock held.
func (m *Monitor) interpolateLocked(snap *SessionSnapshot) {
	if snap.Unlimited {
		return
	}
	if cd, ok := m.countdowns[snap.ID]; ok {
		snap.RemainingSeconds = cd.Remaining()
		snap.RemainingDisplay = cd.Display()
	}
}
