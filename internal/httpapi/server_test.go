package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/service"
	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/store/memory"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

var serverNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type testServer struct {
	srv    *Server
	tasks  *memory.TaskStore
	events *memory.DoorEventStore
}

// newTestServer wires the full handler stack over in-memory stores:
// vendor 1, PIC 2, DCFM 3; gate 10 (GATE-A, door-a, online), gate 11
// (GATE-B, no door binding, inactive), and gate 12 (GATE-C, active,
// never on any task).
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hb := serverNow.Add(-time.Minute)
	users := memory.NewUserStore(
		store.UserRecord{ID: 1, Name: "Vendor One", Email: "v1@example.com", Role: types.RoleVendor},
		store.UserRecord{ID: 2, Name: "PIC One", Email: "pic1@example.com", Role: types.RolePIC},
		store.UserRecord{ID: 3, Name: "DCFM One", Email: "dcfm1@example.com", Role: types.RoleDCFM},
	)
	gates := memory.NewGateStore(
		store.GateRecord{ID: 10, Code: "GATE-A", Name: "Cage A", Active: true, DoorID: "door-a", Integration: types.IntegrationActive, LastHeartbeatAt: &hb},
		store.GateRecord{ID: 11, Code: "GATE-B", Name: "Cage B", Active: false},
		store.GateRecord{ID: 12, Code: "GATE-C", Name: "Cage C", Active: true},
	)
	audit := memory.NewAuditStore()
	tasks := memory.NewTaskStore(audit)
	events := memory.NewDoorEventStore()

	clock := service.FixedClock(serverNow)
	logger := log.New(io.Discard, "", 0)

	srv := NewServer(Dependencies{
		Logger:     logger,
		Access:     service.NewAccessService(users, gates, tasks, audit, clock),
		Tasks:      service.NewTaskService(users, gates, tasks, clock),
		Heartbeats: service.NewHeartbeatService(gates, tasks, clock),
		DoorEvents: service.NewDoorEventService(gates, users, events, clock),
		Users:      users,
	})

	return &testServer{srv: srv, tasks: tasks, events: events}
}

func (ts *testServer) do(t *testing.T, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if s, ok := body.(string); ok {
		rd = strings.NewReader(s)
	} else if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}
	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// seedTask creates an active task for vendor 1 / PIC 2 on gate 10,
// windowed around serverNow, via the task endpoint.
func (ts *testServer) seedTask(t *testing.T) int64 {
	t.Helper()

	w := ts.do(t, http.MethodPost, "/api/tasks", "2", types.CreateTaskRequest{
		Title:     "rack swap",
		VendorIDs: []int64{1},
		PICID:     2,
		StartTime: serverNow.Add(-time.Hour).Format(time.RFC3339),
		EndTime:   serverNow.Add(time.Hour).Format(time.RFC3339),
		GateIDs:   []int64{10},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed task: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	res := decodeBody[types.TaskResult](t, w)
	if res.Task == nil {
		t.Fatal("seed task: no task in response")
	}
	return res.Task.ID
}

func TestValidateAccess(t *testing.T) {
	ts := newTestServer(t)
	ts.seedTask(t)

	w := ts.do(t, http.MethodPost, "/api/access/validate", "", types.ValidateRequest{
		VendorID: 1, PICID: 2, GateID: "GATE-A",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[types.ValidateResponse](t, w)
	if !resp.Approved || resp.Reason != types.ReasonOK {
		t.Errorf("expected approval, got %+v", resp)
	}

	// Gate B is inactive.
	w = ts.do(t, http.MethodPost, "/api/access/validate", "", types.ValidateRequest{
		VendorID: 1, PICID: 2, GateID: "GATE-B",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	resp = decodeBody[types.ValidateResponse](t, w)
	if resp.Approved || resp.Reason != types.ReasonGateInactive {
		t.Errorf("expected gate_inactive denial, got %+v", resp)
	}

	// Gate C is active but not on the task.
	w = ts.do(t, http.MethodPost, "/api/access/validate", "", types.ValidateRequest{
		VendorID: 1, PICID: 2, GateID: "GATE-C",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	resp = decodeBody[types.ValidateResponse](t, w)
	if resp.Approved || resp.Reason != types.ReasonGateNotAuthorized {
		t.Errorf("expected gate_not_authorized denial, got %+v", resp)
	}
}

func TestValidateAccess_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/access/validate", "", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/access/validate", "", types.ValidateRequest{VendorID: 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing fields: expected 400, got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/access/validate", "", types.ValidateRequest{
		VendorID: 1, PICID: 2, GateID: "GATE-A", Timestamp: "yesterday",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad timestamp: expected 400, got %d", w.Code)
	}
}

func TestHeartbeat(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/doors/heartbeat", "", types.HeartbeatRequest{DoorID: "door-a"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[types.HeartbeatResponse](t, w)
	if !resp.Success || resp.GateID != 10 {
		t.Errorf("unexpected heartbeat response: %+v", resp)
	}

	w = ts.do(t, http.MethodPost, "/api/doors/heartbeat", "", types.HeartbeatRequest{DoorID: "door-zz"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown door: expected 404, got %d", w.Code)
	}
}

func TestGateInfo(t *testing.T) {
	ts := newTestServer(t)
	ts.seedTask(t)

	w := ts.do(t, http.MethodGet, "/api/doors/door-a/info", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[types.GateInfoResponse](t, w)
	if resp.Gate.GateID != "GATE-A" || resp.Gate.ActiveTasksCount != 1 {
		t.Errorf("unexpected gate info: %+v", resp.Gate)
	}

	w = ts.do(t, http.MethodGet, "/api/doors/door-zz/info", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown door: expected 404, got %d", w.Code)
	}
}

func TestLogAccess(t *testing.T) {
	ts := newTestServer(t)

	vendorID := int64(1)
	w := ts.do(t, http.MethodPost, "/api/doors/log-access", "", types.LogAccessRequest{
		DoorID: "door-a", EventType: types.DoorEventEntry, VendorID: &vendorID, SessionID: "sess-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[types.LogAccessResponse](t, w)
	if !resp.Success || resp.LogID == 0 {
		t.Errorf("unexpected log-access response: %+v", resp)
	}

	w = ts.do(t, http.MethodPost, "/api/doors/log-access", "", types.LogAccessRequest{
		DoorID: "door-a", EventType: "teleport",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad event type: expected 400, got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/doors/log-access", "", types.LogAccessRequest{
		DoorID: "door-zz", EventType: types.DoorEventEntry,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown door: expected 404, got %d", w.Code)
	}
}

func TestGateAccessLogs(t *testing.T) {
	ts := newTestServer(t)

	vendorID := int64(1)
	for _, sess := range []string{"sess-1", "sess-2"} {
		w := ts.do(t, http.MethodPost, "/api/doors/log-access", "", types.LogAccessRequest{
			DoorID: "door-a", EventType: types.DoorEventEntry, VendorID: &vendorID, SessionID: sess,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("log-access seed: got %d", w.Code)
		}
	}

	w := ts.do(t, http.MethodGet, "/api/gates/GATE-A/access-logs", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	page := decodeBody[types.GateAccessLogs](t, w)
	if page.GateID != 10 || len(page.Logs) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Logs[0].Vendor != "Vendor One" {
		t.Errorf("expected vendor name resolved, got %q", page.Logs[0].Vendor)
	}
	if page.Timestamp == "" {
		t.Error("expected a polling cursor timestamp")
	}

	// Cursor past all events returns an empty page.
	w = ts.do(t, http.MethodGet,
		"/api/gates/GATE-A/access-logs?since="+serverNow.Add(time.Hour).UTC().Format(time.RFC3339), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page = decodeBody[types.GateAccessLogs](t, w)
	if len(page.Logs) != 0 {
		t.Errorf("expected empty page past cursor, got %d logs", len(page.Logs))
	}

	w = ts.do(t, http.MethodGet, "/api/gates/GATE-A/access-logs?since=lately", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad since: expected 400, got %d", w.Code)
	}
	w = ts.do(t, http.MethodGet, "/api/gates/GATE-A/access-logs?limit=-3", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", w.Code)
	}
	w = ts.do(t, http.MethodGet, "/api/gates/GATE-Z/access-logs", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown gate: expected 404, got %d", w.Code)
	}
}

func TestCreateTaskEndpoint(t *testing.T) {
	ts := newTestServer(t)

	id := ts.seedTask(t)
	if id == 0 {
		t.Fatal("expected nonzero task id")
	}

	// Vendors cannot act as PICs.
	w := ts.do(t, http.MethodPost, "/api/tasks", "2", types.CreateTaskRequest{
		Title:     "bad pic",
		VendorIDs: []int64{1},
		PICID:     1,
		StartTime: serverNow.Format(time.RFC3339),
		EndTime:   serverNow.Add(time.Hour).Format(time.RFC3339),
		GateIDs:   []int64{10},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid create: expected 422, got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/tasks", "", types.CreateTaskRequest{})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing actor: expected 401, got %d", w.Code)
	}
	w = ts.do(t, http.MethodPost, "/api/tasks", "777", types.CreateTaskRequest{})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown actor: expected 401, got %d", w.Code)
	}
}

func TestListTasksEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.seedTask(t)

	// The PIC sees the task.
	w := ts.do(t, http.MethodGet, "/api/tasks", "2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeBody[types.TaskListResponse](t, w)
	if len(resp.Tasks) != 1 || resp.Tasks[0].Status != types.TaskActive {
		t.Fatalf("unexpected task list: %+v", resp.Tasks)
	}

	// A vendor only sees tasks they are attached to; vendor 1 is on the
	// task, so the scoped list still contains it.
	w = ts.do(t, http.MethodGet, "/api/tasks", "1", nil)
	resp = decodeBody[types.TaskListResponse](t, w)
	if len(resp.Tasks) != 1 {
		t.Errorf("vendor on task: expected 1 task, got %d", len(resp.Tasks))
	}

	w = ts.do(t, http.MethodGet, "/api/tasks?status=paused", "2", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status filter: expected 400, got %d", w.Code)
	}
}

func TestTaskTransitionsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id := ts.seedTask(t)

	w := ts.do(t, http.MethodPost, "/api/tasks/"+itoa(id)+"/revoke", "3", types.RevokeTaskRequest{Reason: "schedule change"})
	if w.Code != http.StatusOK {
		t.Fatalf("revoke: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Already terminal.
	w = ts.do(t, http.MethodPost, "/api/tasks/"+itoa(id)+"/complete", "3", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("terminal complete: expected 409, got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/tasks/999/revoke", "3", types.RevokeTaskRequest{})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing task: expected 404, got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/tasks/abc/revoke", "3", types.RevokeTaskRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: expected 400, got %d", w.Code)
	}
}

// The revoke reason is optional; a request without any body succeeds.
func TestRevokeTaskEndpoint_NoBody(t *testing.T) {
	ts := newTestServer(t)
	id := ts.seedTask(t)

	w := ts.do(t, http.MethodPost, "/api/tasks/"+itoa(id)+"/revoke", "3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("bodyless revoke: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = ts.do(t, http.MethodPost, "/api/tasks/"+itoa(id)+"/revoke", "3", `{broken`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", w.Code)
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
