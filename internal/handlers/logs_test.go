package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sprinkler_client/internal/models"
	"sprinkler_client/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.OverrideEvent{
		{EventID: "e1", OccurredAt: now, ZoneID: "zone1", Type: models.EventArmRequested, Description: "requested"},
		{EventID: "e2", OccurredAt: now.Add(1 * time.Second), ZoneID: "zone1", Type: models.EventStartSent, Description: "started"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	// Missing/invalid 'from' → 400
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/logs?from=notatime", nil)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// Valid range, type and zone (lowercase type is normalized before the service call)
	w = httptest.NewRecorder()
	q := "/api/v1/logs?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=start_sent&zone=zone1"
	r.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, q, nil)))
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                    `json:"count"`
		Events []models.OverrideEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != models.EventStartSent {
		t.Fatalf("expected lastType START_SENT, got %q", logs.lastType)
	}
	if logs.lastZone != "zone1" {
		t.Fatalf("expected lastZone zone1, got %q", logs.lastZone)
	}

	// Date-only 'to' covers the whole day
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/logs?to=2025-08-31", nil)))
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	wantTo := time.Date(2025, time.August, 31, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("expected end-of-day 'to', got %v", logs.lastTo)
	}

	// from after to → 400
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/logs?from=2025-09-02&to=2025-09-01", nil)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
}

func TestLogsHandler_OperatorFilter(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 99}, EventLog: logs})

	cases := []struct {
		query    string
		wantCode int
		wantOp   int
	}{
		{query: "", wantCode: http.StatusOK, wantOp: 0},
		{query: "?operator=7", wantCode: http.StatusOK, wantOp: 7},
		{query: "?operator=me", wantCode: http.StatusOK, wantOp: 99},
		{query: "?operator=0", wantCode: http.StatusBadRequest},
		{query: "?operator=alice", wantCode: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run("logs"+tc.query, func(t *testing.T) {
			logs.lastOp = -1
			w := httptest.NewRecorder()
			r.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/logs"+tc.query, nil)))
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
			}
			if tc.wantCode == http.StatusOK && logs.lastOp != tc.wantOp {
				t.Fatalf("operator filter: got %d, want %d", logs.lastOp, tc.wantOp)
			}
		})
	}
}

func TestLogsHandler_ListFailure(t *testing.T) {
	r := newTestRouter(&service.Service{
		Authorization: &mockAuth{parseID: 1},
		EventLog:      &mockEventLog{err: errors.New("db down")},
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
