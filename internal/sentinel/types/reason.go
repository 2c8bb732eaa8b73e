package types

// Access decision reason codes. Each code maps to exactly one check in
// the validation pipeline; ReasonOK is the only approval reason. The
// same vocabulary is reused by gate bridges when they report a denied
// door event.
const (
	ReasonOK                    = "OK"
	ReasonVendorNotFound        = "vendor_not_found"
	ReasonInvalidVendorRole     = "invalid_vendor_role"
	ReasonPICNotFound           = "pic_not_found"
	ReasonInvalidPICRole        = "invalid_pic_role"
	ReasonGateNotFound          = "gate_not_found"
	ReasonGateInactive          = "gate_inactive"
	ReasonNoActiveTask          = "no_active_task"
	ReasonTaskOutsideTimeWindow = "task_outside_time_window"
	ReasonGateNotAuthorized     = "gate_not_authorized"
)

// AuditAction identifies the audit log action families.
type AuditAction string

const (
	ActionTaskCreated     AuditAction = "task_created"
	ActionTaskRevoked     AuditAction = "task_revoked"
	ActionAccessValidated AuditAction = "access_validated"
)

// Audit entity type labels.
const (
	EntityTask          = "task"
	EntityAccessRequest = "access_request"
)
