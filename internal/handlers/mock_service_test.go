package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"sprinkler_client/internal/models"
	"sprinkler_client/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockZones struct {
	mu    sync.Mutex
	zones []models.ZoneSnapshot
}

func (m *mockZones) List(ctx context.Context) []models.ZoneSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ZoneSnapshot(nil), m.zones...)
}

func (m *mockZones) Get(ctx context.Context, id models.ZoneID) (models.ZoneSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, z := range m.zones {
		if z.ID == id {
			return z, nil
		}
	}
	return models.ZoneSnapshot{}, service.ErrZoneNotFound
}

func (m *mockZones) set(zones ...models.ZoneSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zones = zones
}

type mockOverride struct {
	snap models.ZoneSnapshot
	err  error

	lastZone    models.ZoneID
	lastMinutes int
	lastOn      bool
	setCalls    int
	toggleCalls int

	// operator seen on the request context
	lastOperator int
}

func (m *mockOverride) SetDuration(ctx context.Context, id models.ZoneID, minutes int) (models.ZoneSnapshot, error) {
	m.setCalls++
	m.lastOperator, _ = service.OperatorFrom(ctx)
	m.lastZone = id
	m.lastMinutes = minutes
	return m.snap, m.err
}

func (m *mockOverride) Toggle(ctx context.Context, id models.ZoneID, on bool) (models.ZoneSnapshot, error) {
	m.toggleCalls++
	m.lastOperator, _ = service.OperatorFrom(ctx)
	m.lastZone = id
	m.lastOn = on
	return m.snap, m.err
}

type mockSync struct {
	err   error
	calls int
}

func (m *mockSync) Bootstrap(ctx context.Context) error { return m.err }

func (m *mockSync) Refresh(ctx context.Context) error {
	m.calls++
	return m.err
}

type mockSchedule struct {
	events []models.ScheduleEvent
	err    error
}

func (m *mockSchedule) Upcoming(ctx context.Context) ([]models.ScheduleEvent, error) {
	return m.events, m.err
}

func (m *mockSchedule) Refresh(ctx context.Context) error { return m.err }

type mockEventLog struct {
	resp     []models.OverrideEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
	lastZone models.ZoneID
	lastOp   int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.OverrideEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastZone = f.Zone
	m.lastOp = f.Operator
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func authed(req *http.Request) *http.Request {
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
