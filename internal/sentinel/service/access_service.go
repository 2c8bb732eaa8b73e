package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

// AccessService is the access-authorization decision engine. It carries
// no per-call state: every Validate call re-resolves everything from
// the stores and returns an immutable result, so concurrent calls need
// no mutual exclusion.
type AccessService struct {
	users store.UserStore
	gates store.GateStore
	tasks store.TaskStore
	audit store.AuditStore
	now   Clock
}

func NewAccessService(users store.UserStore, gates store.GateStore, tasks store.TaskStore, audit store.AuditStore, clock Clock) *AccessService {
	if clock == nil {
		clock = UTCClock()
	}
	return &AccessService{users: users, gates: gates, tasks: tasks, audit: audit, now: clock}
}

// ValidateInput is one access attempt from a gate device.
type ValidateInput struct {
	VendorID int64
	PICID    int64
	GateCode string
	At       *time.Time // nil = decide at the service clock's now
	SourceIP string
}

// validation accumulates whatever was resolved before the pipeline
// short-circuited, so denials still log partial context.
type validation struct {
	vendor *store.UserRecord
	pic    *store.UserRecord
	gate   *store.GateRecord
	task   *store.TaskRecord
}

// Validate runs the ordered, short-circuiting check pipeline and writes
// exactly one audit entry before returning. A failed audit write fails
// the whole call: no verdict is released without its trail.
//
// Task state is read without any lock against concurrent lifecycle
// transitions; a revocation may race the tail of the pipeline. Accepted.
func (s *AccessService) Validate(ctx context.Context, in ValidateInput) (types.ValidateResponse, error) {
	at := s.now()
	if in.At != nil {
		at = in.At.UTC()
	}

	var v validation

	vendor, err := s.users.GetUser(ctx, in.VendorID)
	if errors.Is(err, store.ErrNotFound) {
		return s.deny(ctx, in, v, types.ReasonVendorNotFound)
	}
	if err != nil {
		return types.ValidateResponse{}, err
	}
	v.vendor = &vendor

	if !vendor.Role.IsVendor() {
		return s.deny(ctx, in, v, types.ReasonInvalidVendorRole)
	}

	pic, err := s.users.GetUser(ctx, in.PICID)
	if errors.Is(err, store.ErrNotFound) {
		return s.deny(ctx, in, v, types.ReasonPICNotFound)
	}
	if err != nil {
		return types.ValidateResponse{}, err
	}
	v.pic = &pic

	if !pic.Role.EscortEligible() {
		return s.deny(ctx, in, v, types.ReasonInvalidPICRole)
	}

	gate, err := s.gates.GetGateByCode(ctx, in.GateCode)
	if errors.Is(err, store.ErrNotFound) {
		return s.deny(ctx, in, v, types.ReasonGateNotFound)
	}
	if err != nil {
		return types.ValidateResponse{}, err
	}
	v.gate = &gate

	if !gate.Active {
		return s.deny(ctx, in, v, types.ReasonGateInactive)
	}

	task, err := s.tasks.FindActiveForPair(ctx, vendor.ID, pic.ID)
	if errors.Is(err, store.ErrNotFound) {
		return s.deny(ctx, in, v, types.ReasonNoActiveTask)
	}
	if err != nil {
		return types.ValidateResponse{}, err
	}
	v.task = &task

	if !task.WindowContains(at) {
		return s.deny(ctx, in, v, types.ReasonTaskOutsideTimeWindow)
	}

	if !task.AllowsGate(gate.ID) {
		return s.deny(ctx, in, v, types.ReasonGateNotAuthorized)
	}

	return s.approve(ctx, in, v)
}

func (s *AccessService) deny(ctx context.Context, in ValidateInput, v validation, reason string) (types.ValidateResponse, error) {
	if err := s.record(ctx, in, v, false, reason); err != nil {
		return types.ValidateResponse{}, err
	}
	return types.ValidateResponse{Approved: false, Reason: reason}, nil
}

func (s *AccessService) approve(ctx context.Context, in ValidateInput, v validation) (types.ValidateResponse, error) {
	if err := s.record(ctx, in, v, true, types.ReasonOK); err != nil {
		return types.ValidateResponse{}, err
	}
	return types.ValidateResponse{Approved: true, Reason: types.ReasonOK}, nil
}

// record writes the audit entry for one decision. Details always carry
// the raw request identifiers; resolved record ids are added as far as
// the pipeline got.
func (s *AccessService) record(ctx context.Context, in ValidateInput, v validation, approved bool, reason string) error {
	details := map[string]any{
		"vendor_id": in.VendorID,
		"pic_id":    in.PICID,
		"gate_id":   in.GateCode,
	}
	if v.task != nil {
		details["task_id"] = v.task.ID
	}
	if v.gate != nil {
		details["gate_record_id"] = v.gate.ID
	}

	_, err := s.audit.Append(ctx, store.AuditRecord{
		Action:     types.ActionAccessValidated,
		EntityType: types.EntityAccessRequest,
		Details:    details,
		SourceIP:   in.SourceIP,
		Success:    approved,
		Reason:     reason,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return fmt.Errorf("record access decision: %w", err)
	}
	return nil
}
