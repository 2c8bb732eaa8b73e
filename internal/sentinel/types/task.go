package types

type CreateTaskRequest struct {
	Title     string  `json:"title"`
	VendorIDs []int64 `json:"vendor_ids"`
	PICID     int64   `json:"pic_id"`
	StartTime string  `json:"start_time"` // RFC3339
	EndTime   string  `json:"end_time"`   // RFC3339
	GateIDs   []int64 `json:"gate_ids"`
}

type RevokeTaskRequest struct {
	Reason string `json:"reason,omitempty"`
}

type TaskView struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	PICID     int64      `json:"pic_id"`
	VendorIDs []int64    `json:"vendor_ids"`
	GateIDs   []int64    `json:"gate_ids"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Status    TaskStatus `json:"status"`
	CreatedBy int64      `json:"created_by"`
}

// TaskResult is the {success, error?} shape the operator UI consumes.
type TaskResult struct {
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	Task    *TaskView `json:"task,omitempty"`
}

type TaskListResponse struct {
	Success bool       `json:"success"`
	Tasks   []TaskView `json:"tasks"`
}
