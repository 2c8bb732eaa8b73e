package types

type ValidateRequest struct {
	VendorID  int64  `json:"vendor_id"`
	PICID     int64  `json:"pic_id"`
	GateID    string `json:"gate_id"`
	Timestamp string `json:"timestamp,omitempty"` // optional device timestamp, RFC3339
}

type ValidateResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}
