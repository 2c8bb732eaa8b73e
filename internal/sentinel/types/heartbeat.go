package types

type HeartbeatRequest struct {
	DoorID string `json:"door_id"`
	Status string `json:"status,omitempty"`
}

type HeartbeatResponse struct {
	Success bool  `json:"success"`
	GateID  int64 `json:"gate_id"`
}

// GateInfo is the descriptor returned to gate bridges asking about
// their own gate.
type GateInfo struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	GateID           string            `json:"gate_id"`
	DoorID           string            `json:"door_id,omitempty"`
	DoorIPAddress    string            `json:"door_ip_address,omitempty"`
	IsActive         bool              `json:"is_active"`
	Integration      IntegrationStatus `json:"integration_status"`
	ActiveTasksCount int               `json:"active_tasks_count"`
}

type GateInfoResponse struct {
	Success bool     `json:"success"`
	Gate    GateInfo `json:"gate"`
}
