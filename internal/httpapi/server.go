// Package httpapi exposes the sentinel core over JSON HTTP: the access
// validation endpoint for gate devices, the door bridge endpoints
// (heartbeat, info, event logging), the polling feed for dashboards,
// and the task lifecycle surface for the operator UI.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentinel-dc/sentinel/internal/sentinel/service"
	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

type Dependencies struct {
	Logger     *log.Logger
	Addr       string
	Access     *service.AccessService
	Tasks      *service.TaskService
	Heartbeats *service.HeartbeatService
	DoorEvents *service.DoorEventService
	Users      store.UserStore
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	router     chi.Router

	access     *service.AccessService
	tasks      *service.TaskService
	heartbeats *service.HeartbeatService
	doorEvents *service.DoorEventService
	users      store.UserStore
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:     d.Logger,
		access:     d.Access,
		tasks:      d.Tasks,
		heartbeats: d.Heartbeats,
		doorEvents: d.DoorEvents,
		users:      d.Users,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(d.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/access/validate", s.handleValidateAccess)

		r.Post("/doors/heartbeat", s.handleHeartbeat)
		r.Get("/doors/{door_id}/info", s.handleGateInfo)
		r.Post("/doors/log-access", s.handleLogAccess)

		r.Get("/gates/{gate_id}/access-logs", s.handleGateAccessLogs)

		r.Post("/tasks", s.handleCreateTask)
		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks/{task_id}/revoke", s.handleRevokeTask)
		r.Post("/tasks/{task_id}/complete", s.handleCompleteTask)
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ── Access validation ────────────────────────────────────────────────────────

func (s *Server) handleValidateAccess(w http.ResponseWriter, r *http.Request) {
	var req types.ValidateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if req.VendorID == 0 || req.PICID == 0 || req.GateID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "vendor_id, pic_id and gate_id are required")
		return
	}

	in := service.ValidateInput{
		VendorID: req.VendorID,
		PICID:    req.PICID,
		GateCode: req.GateID,
		SourceIP: r.RemoteAddr,
	}
	if req.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_timestamp", "timestamp must be RFC3339")
			return
		}
		u := t.UTC()
		in.At = &u
	}

	resp, err := s.access.Validate(r.Context(), in)
	if err != nil {
		s.internalError(w, "access validate", err)
		return
	}

	status := http.StatusOK
	if !resp.Approved {
		status = http.StatusForbidden
	}
	writeJSON(w, status, resp)
}

// ── Door bridge ──────────────────────────────────────────────────────────────

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req types.HeartbeatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	gate, err := s.heartbeats.Record(r.Context(), req.DoorID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "gate_not_found", "no gate bound to door_id")
		return
	}
	if err != nil {
		s.internalError(w, "heartbeat", err)
		return
	}

	writeJSON(w, http.StatusOK, types.HeartbeatResponse{Success: true, GateID: gate.ID})
}

func (s *Server) handleGateInfo(w http.ResponseWriter, r *http.Request) {
	doorID := chi.URLParam(r, "door_id")

	info, err := s.heartbeats.GateInfo(r.Context(), doorID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "gate_not_found", "no gate bound to door_id")
		return
	}
	if err != nil {
		s.internalError(w, "gate info", err)
		return
	}

	writeJSON(w, http.StatusOK, types.GateInfoResponse{Success: true, Gate: info})
}

func (s *Server) handleLogAccess(w http.ResponseWriter, r *http.Request) {
	var req types.LogAccessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	id, err := s.doorEvents.Record(r.Context(), service.LogEventInput{
		DoorID:    req.DoorID,
		EventType: req.EventType,
		VendorID:  req.VendorID,
		PICID:     req.PICID,
		TaskID:    req.TaskID,
		SessionID: req.SessionID,
		Reason:    req.Reason,
		Details:   req.Details,
		ClientIP:  r.RemoteAddr,
	})
	switch {
	case errors.Is(err, service.ErrBadEventType):
		writeError(w, http.StatusBadRequest, "bad_event_type", "event_type must be entry, exit, or denied")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "gate_not_found", "no gate bound to door_id")
		return
	case err != nil:
		s.internalError(w, "log access", err)
		return
	}

	writeJSON(w, http.StatusOK, types.LogAccessResponse{Success: true, LogID: id})
}

// ── Polling feed ─────────────────────────────────────────────────────────────

func (s *Server) handleGateAccessLogs(w http.ResponseWriter, r *http.Request) {
	gateCode := chi.URLParam(r, "gate_id")

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_since", "since must be RFC3339")
			return
		}
		since = t.UTC()
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	page, err := s.doorEvents.ListForGate(r.Context(), gateCode, since, limit)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "gate_not_found", "unknown gate")
		return
	}
	if err != nil {
		s.internalError(w, "gate access logs", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// ── Task lifecycle ───────────────────────────────────────────────────────────

// actor resolves the acting user from the X-Actor-ID header. Session
// handling lives outside this core; the header carries the principal
// the operator UI authenticated.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) (store.UserRecord, bool) {
	raw := r.Header.Get("X-Actor-ID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == "" || err != nil {
		writeError(w, http.StatusUnauthorized, "missing_actor", "X-Actor-ID header is required")
		return store.UserRecord{}, false
	}

	u, err := s.users.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "unknown_actor", "no such user")
		return store.UserRecord{}, false
	}
	if err != nil {
		s.internalError(w, "resolve actor", err)
		return store.UserRecord{}, false
	}
	return u, true
}

func taskView(t store.TaskRecord) types.TaskView {
	return types.TaskView{
		ID:        t.ID,
		Title:     t.Title,
		PICID:     t.PICID,
		VendorIDs: t.VendorIDs,
		GateIDs:   t.GateIDs,
		StartTime: t.StartTime.Format(time.RFC3339),
		EndTime:   t.EndTime.Format(time.RFC3339),
		Status:    t.Status,
		CreatedBy: t.CreatedBy,
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	creator, ok := s.actor(w, r)
	if !ok {
		return
	}

	var req types.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, types.TaskResult{Error: "start_time must be RFC3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, types.TaskResult{Error: "end_time must be RFC3339"})
		return
	}

	task, err := s.tasks.Create(r.Context(), service.CreateTaskInput{
		Title:     req.Title,
		VendorIDs: req.VendorIDs,
		PICID:     req.PICID,
		StartTime: start,
		EndTime:   end,
		GateIDs:   req.GateIDs,
	}, creator, r.RemoteAddr)
	if errors.Is(err, service.ErrValidation) {
		writeJSON(w, http.StatusUnprocessableEntity, types.TaskResult{Error: err.Error()})
		return
	}
	if err != nil {
		s.internalError(w, "create task", err)
		return
	}

	view := taskView(task)
	writeJSON(w, http.StatusCreated, types.TaskResult{Success: true, Task: &view})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	var f store.TaskFilter
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		ts := types.TaskStatus(status)
		if !ts.Valid() {
			writeError(w, http.StatusBadRequest, "bad_status", "status must be active, completed, or revoked")
			return
		}
		f.Status = ts
	}
	if raw := q.Get("from_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_from_date", "from_date must be RFC3339")
			return
		}
		f.StartedAfter = t.UTC()
	}
	if raw := q.Get("to_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_to_date", "to_date must be RFC3339")
			return
		}
		f.EndedBefore = t.UTC()
	}

	tasks, err := s.tasks.ListFor(r.Context(), actor, f)
	if err != nil {
		s.internalError(w, "list tasks", err)
		return
	}

	views := make([]types.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView(t))
	}
	writeJSON(w, http.StatusOK, types.TaskListResponse{Success: true, Tasks: views})
}

func (s *Server) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "task_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_task_id", "task id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *Server) handleRevokeTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	// The reason is optional; a bodyless revoke is valid.
	var req types.RevokeTaskRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	err := s.tasks.Revoke(r.Context(), id, actor, req.Reason, r.RemoteAddr)
	s.writeTaskTransition(w, "revoke task", err)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	err := s.tasks.Complete(r.Context(), id, actor)
	s.writeTaskTransition(w, "complete task", err)
}

func (s *Server) writeTaskTransition(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, types.TaskResult{Error: "task not found"})
	case errors.Is(err, store.ErrTaskNotActive):
		writeJSON(w, http.StatusConflict, types.TaskResult{Error: "only active tasks can be transitioned"})
	case err != nil:
		s.internalError(w, op, err)
	default:
		writeJSON(w, http.StatusOK, types.TaskResult{Success: true})
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Printf("%s error: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
}
