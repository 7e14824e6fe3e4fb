package webhook

import (
	"encoding/json"
	"time"
)

// OrderEvent is the subset of the platform's order webhook payload the
// relay needs. Numbers arrive as strings or ints depending on delivery
// mode, hence json.Number.
type OrderEvent struct {
	ID          json.Number `json:"id"`
	OrderNumber json.Number `json:"order_number"`
	Name        string      `json:"name"`
}

// Job is one admitted relay activation, handed from the intake to the
// relay pool.
type Job struct {
	RunID    string
	OrderKey string
	OrderID  string
	Received time.Time
}
