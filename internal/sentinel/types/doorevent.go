package types

type LogAccessRequest struct {
	DoorID    string         `json:"door_id"`
	EventType DoorEventType  `json:"event_type"`
	VendorID  *int64         `json:"vendor_id,omitempty"`
	PICID     *int64         `json:"pic_id,omitempty"`
	TaskID    *int64         `json:"task_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

type LogAccessResponse struct {
	Success bool  `json:"success"`
	LogID   int64 `json:"log_id"`
}

// DoorEventView is one door event as shown to polling dashboards.
// Vendor and PIC are display names, resolved at read time.
type DoorEventView struct {
	ID        int64         `json:"id"`
	EventType DoorEventType `json:"event_type"`
	Vendor    string        `json:"vendor,omitempty"`
	PIC       string        `json:"pic,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
	CreatedAt string        `json:"created_at"` // RFC3339
}

// GateAccessLogs is one page of the polling feed for a gate. Timestamp
// is the server time the page was assembled; clients pass it back as
// the next `since` cursor.
type GateAccessLogs struct {
	GateID      int64             `json:"gate_id"`
	DoorID      string            `json:"door_id,omitempty"`
	Integration IntegrationStatus `json:"integration_status"`
	IsOnline    bool              `json:"is_online"`
	Logs        []DoorEventView   `json:"logs"`
	Timestamp   string            `json:"timestamp"` // RFC3339
}
