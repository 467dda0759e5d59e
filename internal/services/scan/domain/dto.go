package domain

import "time"

// DetectionInput is one detection in an ingestion batch
// Value is loosely typed so a non string from a misbehaving client is dropped, not rejected
type DetectionInput struct {
	Value      any       `json:"value"`
	Kind       string    `json:"kind,omitempty" validate:"omitempty,max=64,symbology" example:"ean13"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
}

// DetectionBatch is the body of POST /scan/detections
type DetectionBatch struct {
	Detections []DetectionInput `json:"detections" validate:"max=256,dive"`
}

// IngestResult reports what happened to a batch
type IngestResult struct {
	Queued   int `json:"queued" example:"12"`
	Rejected int `json:"rejected" example:"1"`
	Dropped  int `json:"dropped" example:"0"`
}

// SessionInfo is the observable session state
type SessionInfo struct {
	ID        string    `json:"id,omitempty" example:"7f6d1c5e-0a7d-4b0e-9d0f-2b1f1a6c9e11"`
	Active    bool      `json:"active"`
	State     State     `json:"state" example:"idle"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Tallied   int       `json:"tallied" example:"3"`
	Pending   string    `json:"pending,omitempty" example:"4006381333931"`
	Confirmed int       `json:"confirmed" example:"12"`
	Invalid   int       `json:"invalid" example:"2"`
	Threshold int       `json:"threshold" example:"5"`
	QuietMs   int64     `json:"quiet_ms" example:"3000"`
}

// ConfirmedCode is one confirmed code with any product refs still cached
type ConfirmedCode struct {
	Code     string       `json:"code" example:"4006381333931"`
	Products []ProductRef `json:"products,omitempty"`
}

// ConfirmedList is the body of GET /scan/confirmed
type ConfirmedList struct {
	Items []ConfirmedCode `json:"items"`
}
