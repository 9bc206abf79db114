package thermocouple

import (
	"fmt"
	"strings"
)

// Status is the connection state reported for a thermocouple.
type Status int

const (
	StatusUnknown Status = iota
	StatusOK
	StatusDisconnected
)

// Raw status codes delivered by the PLC link.
const (
	CodeOK           = 0
	CodeDisconnected = 67
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// MarshalText renders the status the way operators see it.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Side is one of the four physical faces of a mold.
type Side string

const (
	SideLeft  Side = "Left"
	SideRight Side = "Right"
	SideFixed Side = "Fixed"
	SideLoose Side = "Loose"
)

// Sides lists every mold side in display order.
var Sides = []Side{SideLeft, SideRight, SideFixed, SideLoose}

// ParseSide matches s against the known sides, ignoring case and surrounding spaces.
func ParseSide(s string) (Side, error) {
	s = strings.TrimSpace(s)
	for _, side := range Sides {
		if strings.EqualFold(string(side), s) {
			return side, nil
		}
	}
	return "", fmt.Errorf("unknown mold side %q", s)
}

// Thermocouple is one sensor of the mold layout.
type Thermocouple struct {
	Label     int
	TextLabel string
	X, Y      int
	Side      Side
	Status    Status

	temp    float64
	hasTemp bool
	history *History
}

// New creates a thermocouple with an empty history and unknown status.
func New(label, x, y int, side Side) *Thermocouple {
	return &Thermocouple{
		Label:     label,
		TextLabel: fmt.Sprintf("TC %d", label),
		X:         x,
		Y:         y,
		Side:      side,
		history:   NewHistory(HistorySize),
	}
}

// Update records a new sample and maps the raw status code. Codes other than
// CodeOK and CodeDisconnected leave the previous status in place.
func (tc *Thermocouple) Update(s Sample, code int) {
	tc.history.Append(s)
	switch code {
	case CodeOK:
		tc.Status = StatusOK
	case CodeDisconnected:
		tc.Status = StatusDisconnected
	}
	tc.temp, tc.hasTemp = s.Temp, s.Valid && tc.Status == StatusOK
}

// Temperature returns the latest temperature; false when it is null.
func (tc *Thermocouple) Temperature() (float64, bool) {
	return tc.temp, tc.hasTemp
}

// History exposes the sample history.
func (tc *Thermocouple) History() *History {
	return tc.history
}

// IsOK reports whether the sensor currently has status OK.
func (tc *Thermocouple) IsOK() bool {
	return tc.Status == StatusOK
}
