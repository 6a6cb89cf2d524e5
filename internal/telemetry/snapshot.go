// Package telemetry keeps the portal's view of hotspot sessions fresh:
// a slow authoritative poll of the router's active table, and a fast
// local countdown that interpolates remaining session time between
// polls. The local tick is never a source of truth; every poll result
// overrides it.
package telemetry

import (
	"time"

	"github.com/Davemasibo/mikrotikDashboard/internal/format"
	"github.com/Davemasibo/mikrotikDashboard/internal/router"
)

// SessionSnapshot is one polled read of a hotspot session, with the
// router's raw encodings normalized for display and arithmetic. A
// snapshot is immutable once captured; a fresh poll supersedes it.
type SessionSnapshot struct {
	ID              string          `json:"id"`
	Username        string          `json:"username"`
	Address         string          `json:"address"`
	MACAddress      string          `json:"mac_address"`
	BytesIn         int64           `json:"bytes_in"`
	BytesOut        int64           `json:"bytes_out"`
	BytesInDisplay  string          `json:"bytes_in_display"`
	BytesOutDisplay string          `json:"bytes_out_display"`
	Uptime          format.Duration `json:"-"`
	IdleTime        format.Duration `json:"-"`
	SessionTimeLeft format.Duration `json:"-"`
	UptimeDisplay   string          `json:"uptime"`
	IdleTimeDisplay string          `json:"idle_time"`
	Profile         string          `json:"profile"`
	RateLimit       string          `json:"rate_limit,omitempty"`
	LimitUptime     string          `json:"limit_uptime,omitempty"`

	// Unlimited marks sessions the router reports without a
	// session-time-left value; no countdown applies.
	Unlimited bool `json:"unlimited"`

	// RemainingSeconds and RemainingDisplay are interpolated by the
	// countdown engine when the snapshot is read between polls.
	RemainingSeconds int64  `json:"remaining_seconds"`
	RemainingDisplay string `json:"session_time_left"`

	RetrievedAt time.Time `json:"retrieved_at"`
}

// NewSnapshot normalizes one router session row into a snapshot.
func NewSnapshot(s router.ActiveSession, at time.Time) SessionSnapshot {
	uptime := format.ParseDuration(s.Uptime)
	idle := format.ParseDuration(s.IdleTime)
	left := format.ParseDuration(s.SessionTimeLeft)

	return SessionSnapshot{
		ID:               s.ID,
		Username:         s.Username,
		Address:          s.Address,
		MACAddress:       s.MACAddress,
		BytesIn:          s.BytesIn,
		BytesOut:         s.BytesOut,
		BytesInDisplay:   format.FormatBytes(s.BytesIn),
		BytesOutDisplay:  format.FormatBytes(s.BytesOut),
		Uptime:           uptime,
		IdleTime:         idle,
		SessionTimeLeft:  left,
		UptimeDisplay:    uptime.String(),
		IdleTimeDisplay:  idle.String(),
		Profile:          s.Profile,
		RateLimit:        s.RateLimit,
		LimitUptime:      s.LimitUptime,
		Unlimited:        s.SessionTimeLeft == "",
		RemainingSeconds: left.TotalSeconds(),
		RemainingDisplay: left.String(),
		RetrievedAt:      at,
	}
}
