package models

import "time"

// TestRecord is a confirmed thermocouple test.
type TestRecord struct {
	ID               int64     `json:"id"`
	SessionID        string    `json:"session_id"`
	Label            int       `json:"label"`
	MoldSide         string    `json:"mold_side"`
	Manual           bool      `json:"manual"`
	Result           string    `json:"result"` // success | fail
	Reason           string    `json:"reason"` // automatic verdict: "time out" | "complete"
	InitTime         time.Time `json:"init_time"`
	StartTime        time.Time `json:"start_time"`
	StartTemperature float64   `json:"start_temperature"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
	AutoConfirmed    bool      `json:"auto_confirmed"`
}
