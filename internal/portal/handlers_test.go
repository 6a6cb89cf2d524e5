package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Davemasibo/mikrotikDashboard/internal/payment"
	"github.com/Davemasibo/mikrotikDashboard/internal/router"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage/bolt"
	"github.com/Davemasibo/mikrotikDashboard/internal/telemetry"
)

type stubMonitor struct {
	state telemetry.State
}

func (m *stubMonitor) State() telemetry.State { return m.state }

func (m *stubMonitor) Lookup(address string) (telemetry.SessionSnapshot, bool) {
	for _, s := range m.state.Sessions {
		if s.Address == address {
			return s, true
		}
	}
	return telemetry.SessionSnapshot{}, false
}

type stubRouter struct {
	users        []router.HotspotUser
	info         *router.SystemInfo
	disconnected []string
	blocked      []string
	created      []router.NewUser
	activated    []string
}

func (r *stubRouter) SystemInfo(ctx context.Context) (*router.SystemInfo, error) {
	return r.info, nil
}

func (r *stubRouter) HotspotUsers(ctx context.Context) ([]router.HotspotUser, error) {
	return r.users, nil
}

func (r *stubRouter) DisconnectSession(ctx context.Context, sessionID string) error {
	r.disconnected = append(r.disconnected, sessionID)
	return nil
}

func (r *stubRouter) BlockAddress(ctx context.Context, address, comment string) error {
	r.blocked = append(r.blocked, address)
	return nil
}

func (r *stubRouter) CreateUser(ctx context.Context, user router.NewUser) error {
	r.created = append(r.created, user)
	return nil
}

func (r *stubRouter) ActivatePlan(ctx context.Context, username, profile, limitUptime string) error {
	r.activated = append(r.activated, username+"/"+profile)
	return nil
}

type stubGateway struct {
	resp *payment.STKPushResponse
	err  error
}

func (g *stubGateway) InitiateSTKPush(ctx context.Context, push payment.STKPushRequest) (*payment.STKPushResponse, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

type testEnv struct {
	server  *Server
	monitor *stubMonitor
	router  *stubRouter
	gateway *stubGateway
	store   storage.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := bolt.Open(filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	monitor := &stubMonitor{state: telemetry.State{Active: true}}
	routerCtl := &stubRouter{}
	gateway := &stubGateway{resp: &payment.STKPushResponse{
		CheckoutRequestID: "ws_CO_test",
		CustomerMessage:   "Success. Request accepted for processing",
	}}

	server := NewServer(Config{}, monitor, routerCtl, store, gateway, zerolog.Nop())
	return &testEnv{server: server, monitor: monitor, router: routerCtl, gateway: gateway, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	e.server.router.ServeHTTP(rec, req)
	return rec
}

func activeSnapshot() telemetry.SessionSnapshot {
	return telemetry.NewSnapshot(router.ActiveSession{
		ID:              "*1",
		Username:        "alice",
		Address:         "10.5.50.20",
		MACAddress:      "AA:BB:CC:DD:EE:FF",
		Uptime:          "2h15m",
		IdleTime:        "30s",
		SessionTimeLeft: "1h",
		BytesIn:         1536,
		BytesOut:        1073741824,
		Profile:         "daily-unlimited",
	}, time.Now())
}

func TestCurrentSessionByClientIP(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.state.Sessions = []telemetry.SessionSnapshot{activeSnapshot()}

	rec := env.do(t, http.MethodGet, "/api/current-session", nil, "10.5.50.20:51234")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["username"] != "alice" {
		t.Errorf("username = %v, want alice", got["username"])
	}
	if got["mac-address"] != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("mac-address = %v", got["mac-address"])
	}
	if got["uptime"] != "2h 15m" {
		t.Errorf("uptime = %v, want 2h 15m", got["uptime"])
	}
	if got["session-time-left"] != "1h" {
		t.Errorf("session-time-left = %v, want 1h", got["session-time-left"])
	}
	if got["bytes-out-formatted"] != "1.00 GB" {
		t.Errorf("bytes-out-formatted = %v, want 1.00 GB", got["bytes-out-formatted"])
	}
}

func TestCurrentSessionNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/current-session", nil, "10.5.50.99:51234")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCurrentSessionRouterDown(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.state = telemetry.State{
		Active:    false,
		LastError: "Failed to refresh session data: connection refused",
		Sessions:  []telemetry.SessionSnapshot{activeSnapshot()},
	}

	rec := env.do(t, http.MethodGet, "/api/current-session", nil, "10.5.50.20:51234")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestActiveSessionsList(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.state.Sessions = []telemetry.SessionSnapshot{activeSnapshot()}

	rec := env.do(t, http.MethodGet, "/api/active-sessions", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0]["ip"] != "10.5.50.20" || got[0]["status"] != "active" {
		t.Errorf("session = %+v", got[0])
	}
}

func TestDisconnectAndBlockUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/disconnect-user/*1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("disconnect status = %d, want 200", rec.Code)
	}
	if len(env.router.disconnected) != 1 || env.router.disconnected[0] != "*1" {
		t.Errorf("disconnected = %v, want [*1]", env.router.disconnected)
	}

	rec = env.do(t, http.MethodPost, "/api/block-user/10.5.50.20", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("block status = %d, want 200", rec.Code)
	}
	if len(env.router.blocked) != 1 || env.router.blocked[0] != "10.5.50.20" {
		t.Errorf("blocked = %v, want [10.5.50.20]", env.router.blocked)
	}
}

func TestLogoutDisconnectsOwnSession(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.state.Sessions = []telemetry.SessionSnapshot{activeSnapshot()}

	rec := env.do(t, http.MethodPost, "/api/logout", nil, "10.5.50.20:51234")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(env.router.disconnected) != 1 || env.router.disconnected[0] != "*1" {
		t.Errorf("disconnected = %v, want [*1]", env.router.disconnected)
	}
}

func TestPlanCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/internet-plans", PlanRequest{
		Name:     "Daily Unlimited",
		Price:    100,
		Speed:    "5 Mbps",
		Validity: "24 hours",
		Profile:  "daily-unlimited",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created storage.Plan
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created plan has no ID")
	}

	rec = env.do(t, http.MethodGet, "/api/internet-plans", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var list struct {
		Plans []storage.Plan `json:"plans"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Plans) != 1 {
		t.Fatalf("len(plans) = %d, want 1", len(list.Plans))
	}

	inactive := false
	rec = env.do(t, http.MethodPut, "/api/internet-plans/"+created.ID, PlanRequest{Price: 120, Active: &inactive}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var updated storage.Plan
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated plan: %v", err)
	}
	if updated.Price != 120 || updated.Active {
		t.Errorf("updated plan = %+v", updated)
	}

	rec = env.do(t, http.MethodDelete, "/api/internet-plans/"+created.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/internet-plans/"+created.ID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestInitiatePaymentRecordsPendingTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plan := storage.Plan{Name: "Daily Unlimited", Price: 100, Profile: "daily-unlimited", Active: true}
	if err := env.store.Plans().Create(ctx, &plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/initiate-payment", InitiatePaymentRequest{
		PackageID:   plan.ID,
		Amount:      plan.Price,
		PhoneNumber: "0712345678",
		PackageName: plan.Name,
		Username:    "alice",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp InitiatePaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.CheckoutRequestID != "ws_CO_test" {
		t.Errorf("response = %+v", resp)
	}

	txn, err := env.store.Transactions().GetByCheckoutID(ctx, "ws_CO_test")
	if err != nil {
		t.Fatalf("transaction not recorded: %v", err)
	}
	if txn.Status != storage.StatusPending {
		t.Errorf("Status = %q, want pending", txn.Status)
	}
	if txn.Amount != 100 {
		t.Errorf("Amount = %d, want plan price 100", txn.Amount)
	}
	if txn.PhoneNumber != "254712345678" {
		t.Errorf("PhoneNumber = %q, want normalized", txn.PhoneNumber)
	}
}

func TestInitiatePaymentRejectsInactivePlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plan := storage.Plan{Name: "Retired", Price: 50, Active: false}
	if err := env.store.Plans().Create(ctx, &plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/initiate-payment", InitiatePaymentRequest{
		PackageID:   plan.ID,
		PhoneNumber: "0712345678",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMpesaCallbackCompletesAndActivates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plan := storage.Plan{Name: "Daily Unlimited", Price: 100, Profile: "daily-unlimited", Active: true}
	if err := env.store.Plans().Create(ctx, &plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	txn := storage.Transaction{
		CheckoutRequestID: "ws_CO_cb1",
		Username:          "alice",
		PhoneNumber:       "254712345678",
		PlanID:            plan.ID,
		PlanName:          plan.Name,
		Amount:            100,
	}
	if err := env.store.Transactions().Create(ctx, &txn); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/mpesa-callback", payment.Callback{
		CheckoutRequestID: "ws_CO_cb1",
		ResultCode:        0,
		ResultDesc:        "The service request is processed successfully.",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	got, err := env.store.Transactions().Get(ctx, txn.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.Status != storage.StatusCompleted || got.CompletedAt == nil {
		t.Errorf("transaction = %+v", got)
	}
	if len(env.router.activated) != 1 || env.router.activated[0] != "alice/daily-unlimited" {
		t.Errorf("activated = %v, want [alice/daily-unlimited]", env.router.activated)
	}
}

func TestMpesaCallbackFailureMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	txn := storage.Transaction{CheckoutRequestID: "ws_CO_cb2", Username: "bob", Amount: 20}
	if err := env.store.Transactions().Create(ctx, &txn); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/mpesa-callback", payment.Callback{
		CheckoutRequestID: "ws_CO_cb2",
		ResultCode:        1032,
		ResultDesc:        "Request cancelled by user",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	got, err := env.store.Transactions().Get(ctx, txn.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.Status != storage.StatusFailed {
		t.Errorf("Status = %q, want failed", got.Status)
	}
	if len(env.router.activated) != 0 {
		t.Errorf("activated = %v, want none", env.router.activated)
	}
}

func TestStatsFromTransactions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.monitor.state.Sessions = []telemetry.SessionSnapshot{activeSnapshot()}
	env.router.users = []router.HotspotUser{{Username: "alice"}, {Username: "bob"}}

	now := time.Now().UTC()
	completed := storage.Transaction{Amount: 100, Status: storage.StatusCompleted, CompletedAt: &now}
	if err := env.store.Transactions().Create(ctx, &completed); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	pending := storage.Transaction{Amount: 500, Status: storage.StatusPending}
	if err := env.store.Transactions().Create(ctx, &pending); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/stats", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got["activeUsers"] != float64(1) {
		t.Errorf("activeUsers = %v, want 1", got["activeUsers"])
	}
	if got["totalUsers"] != float64(2) {
		t.Errorf("totalUsers = %v, want 2", got["totalUsers"])
	}
	if got["totalRevenue"] != float64(100) {
		t.Errorf("totalRevenue = %v, want 100 (pending excluded)", got["totalRevenue"])
	}
	if got["todayTransactions"] != float64(1) {
		t.Errorf("todayTransactions = %v, want 1", got["todayTransactions"])
	}
}

func TestCreateHotspotUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/hotspot-users", CreateUserRequest{
		Username: "carol",
		Password: "secret123",
		Profile:  "hourly-unlimited",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(env.router.created) != 1 || env.router.created[0].Username != "carol" {
		t.Errorf("created = %+v", env.router.created)
	}
}
