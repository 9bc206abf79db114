// Package source supplies the sensor batches and side states polled by the
// autotest service. The PLC link is out of scope; a simulator and a
// JSON-lines replay stand in for it.
package source

import (
	"context"
	"time"

	"mold_autotest/internal/thermocouple"
)

// SideOK is the side state reported by a healthy mold side.
const SideOK = "No error"

// Reading is the raw value of one thermocouple. A nil Temperature is null.
type Reading struct {
	Status      int      `json:"status"`
	Temperature *float64 `json:"temperature"`
}

// Batch is one poll of every thermocouple, keyed by label.
type Batch struct {
	Time  time.Time
	State map[int]Reading
}

// DataSource is the contract of the PLC link.
type DataSource interface {
	SensorData(ctx context.Context) (Batch, error)
	SideStates(ctx context.Context) (map[thermocouple.Side]string, error)
}

// Temp returns a pointer to v, for building readings.
func Temp(v float64) *float64 {
	return &v
}
