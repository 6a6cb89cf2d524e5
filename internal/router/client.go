// Package router wraps the MikroTik RouterOS binary API for hotspot
// management: active session telemetry, user administration and the
// firewall block list.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-routeros/routeros/v3"
	"github.com/rs/zerolog"

	"github.com/Davemasibo/mikrotikDashboard/internal/metrics"
)

// DefaultTimeout bounds the RouterOS dial when none is configured.
const DefaultTimeout = 10 * time.Second

// blockList is the firewall address-list holding blocked client IPs.
const blockList = "blocked_users"

// Config holds RouterOS connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = 8728
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// Conn is the subset of the RouterOS client the wrapper needs. It is
// satisfied by *routeros.Client and replaced by a fake in tests.
type Conn interface {
	Run(sentence ...string) (*routeros.Reply, error)
	Close() error
}

// DialFunc opens a RouterOS API connection.
type DialFunc func(address, username, password string, timeout time.Duration) (Conn, error)

func defaultDial(address, username, password string, timeout time.Duration) (Conn, error) {
	c, err := routeros.DialTimeout(address, username, password, timeout)
	if err != nil {
		return nil, err
	}
	return rosConn{c}, nil
}

type rosConn struct {
	client *routeros.Client
}

func (c rosConn) Run(sentence ...string) (*routeros.Reply, error) {
	return c.client.Run(sentence...)
}

func (c rosConn) Close() error {
	c.client.Close()
	return nil
}

// Client is a RouterOS API client with lazy connect and
// reconnect-on-failure. A failed command invalidates the connection;
// the next command (or the in-flight retry) redials. Safe for
// concurrent use; commands are serialized over the single connection.
type Client struct {
	cfg    Config
	dial   DialFunc
	logger zerolog.Logger

	mu   sync.Mutex
	conn Conn
}

// New creates a RouterOS client. No connection is made until the first
// command runs; the router may well be offline at startup.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:    cfg,
		dial:   defaultDial,
		logger: logger.With().Str("component", "router").Logger(),
	}
}

// SetDial overrides the dial function. Used by tests.
func (c *Client) SetDial(dial DialFunc) {
	c.dial = dial
}

// Close tears down the connection if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// run executes one API sentence, redialing once if the connection was
// lost since the previous command.
func (c *Client) run(ctx context.Context, sentence ...string) (*routeros.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connectLocked(); err != nil {
			return nil, err
		}
	}

	reply, err := c.conn.Run(sentence...)
	if err == nil {
		return reply, nil
	}

	c.logger.Warn().Err(err).Str("command", sentence[0]).Msg("Command failed, reconnecting")
	_ = c.conn.Close()
	c.conn = nil
	metrics.RouterReconnects.Inc()

	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c.conn.Run(sentence...)
}

func (c *Client) connectLocked() error {
	conn, err := c.dial(c.cfg.Addr(), c.cfg.Username, c.cfg.Password, c.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("connect to router at %s: %w", c.cfg.Addr(), err)
	}
	c.conn = conn
	c.logger.Info().Str("addr", c.cfg.Addr()).Msg("Connected to router")
	return nil
}

// SystemInfo reads /system/resource and /system/identity.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	resource, err := c.run(ctx, "/system/resource/print")
	if err != nil {
		return nil, fmt.Errorf("read system resource: %w", err)
	}
	identity, err := c.run(ctx, "/system/identity/print")
	if err != nil {
		return nil, fmt.Errorf("read system identity: %w", err)
	}

	info := &SystemInfo{}
	if len(resource.Re) > 0 {
		m := resource.Re[0].Map
		info.Version = m["version"]
		info.Uptime = m["uptime"]
		info.CPULoad = m["cpu-load"]
		info.FreeMemory = m["free-memory"]
		info.TotalMemory = m["total-memory"]
		info.FreeHDDSpace = m["free-hdd-space"]
		info.TotalHDDSpace = m["total-hdd-space"]
	}
	if len(identity.Re) > 0 {
		info.Identity = identity.Re[0].Map["name"]
	}
	return info, nil
}

// ActiveSessions lists /ip/hotspot/active.
func (c *Client) ActiveSessions(ctx context.Context) ([]ActiveSession, error) {
	reply, err := c.run(ctx, "/ip/hotspot/active/print")
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	sessions := make([]ActiveSession, 0, len(reply.Re))
	for _, re := range reply.Re {
		sessions = append(sessions, sessionFromSentence(re))
	}
	return sessions, nil
}

// HotspotUsers lists /ip/hotspot/user.
func (c *Client) HotspotUsers(ctx context.Context) ([]HotspotUser, error) {
	reply, err := c.run(ctx, "/ip/hotspot/user/print")
	if err != nil {
		return nil, fmt.Errorf("list hotspot users: %w", err)
	}

	users := make([]HotspotUser, 0, len(reply.Re))
	for _, re := range reply.Re {
		users = append(users, userFromSentence(re))
	}
	return users, nil
}

// DisconnectSession removes an entry from /ip/hotspot/active.
func (c *Client) DisconnectSession(ctx context.Context, sessionID string) error {
	if _, err := c.run(ctx, "/ip/hotspot/active/remove", "=.id="+sessionID); err != nil {
		return fmt.Errorf("disconnect session %s: %w", sessionID, err)
	}
	c.logger.Info().Str("session_id", sessionID).Msg("Disconnected session")
	return nil
}

// BlockAddress adds a client IP to the blocked address list and kicks
// any active session it currently holds. The disconnect is best-effort;
// the firewall entry is what enforces the block.
func (c *Client) BlockAddress(ctx context.Context, address, comment string) error {
	if comment == "" {
		comment = "Blocked user: " + address
	}
	_, err := c.run(ctx, "/ip/firewall/address-list/add",
		"=address="+address,
		"=list="+blockList,
		"=comment="+comment,
	)
	if err != nil {
		return fmt.Errorf("block address %s: %w", address, err)
	}

	sessions, err := c.ActiveSessions(ctx)
	if err == nil {
		for _, s := range sessions {
			if s.Address != address {
				continue
			}
			if err := c.DisconnectSession(ctx, s.ID); err != nil {
				c.logger.Warn().Err(err).Str("address", address).Msg("Failed to kick blocked session")
			}
		}
	}

	c.logger.Info().Str("address", address).Msg("Blocked address")
	return nil
}

// CreateUser adds a hotspot user.
func (c *Client) CreateUser(ctx context.Context, user NewUser) error {
	if user.Username == "" || user.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	if user.Profile == "" {
		user.Profile = "default"
	}

	sentence := []string{
		"/ip/hotspot/user/add",
		"=name=" + user.Username,
		"=password=" + user.Password,
		"=profile=" + user.Profile,
	}
	if user.MACAddress != "" {
		sentence = append(sentence, "=mac-address="+user.MACAddress)
	}
	if user.Comment != "" {
		sentence = append(sentence, "=comment="+user.Comment)
	}

	if _, err := c.run(ctx, sentence...); err != nil {
		return fmt.Errorf("create hotspot user %s: %w", user.Username, err)
	}
	c.logger.Info().Str("username", user.Username).Str("profile", user.Profile).Msg("Created hotspot user")
	return nil
}

// ActivatePlan points an existing hotspot user at the profile and
// uptime limit of a purchased plan.
func (c *Client) ActivatePlan(ctx context.Context, username, profile, limitUptime string) error {
	reply, err := c.run(ctx, "/ip/hotspot/user/print", "?name="+username)
	if err != nil {
		return fmt.Errorf("look up hotspot user %s: %w", username, err)
	}
	if len(reply.Re) == 0 {
		return fmt.Errorf("hotspot user %s not found", username)
	}

	sentence := []string{
		"/ip/hotspot/user/set",
		"=.id=" + reply.Re[0].Map[".id"],
		"=profile=" + profile,
	}
	if limitUptime != "" {
		sentence = append(sentence, "=limit-uptime="+limitUptime)
	}

	if _, err := c.run(ctx, sentence...); err != nil {
		return fmt.Errorf("activate plan for %s: %w", username, err)
	}
	c.logger.Info().
		Str("username", username).
		Str("profile", profile).
		Str("limit_uptime", limitUptime).
		Msg("Activated plan")
	return nil
}
