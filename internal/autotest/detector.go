package autotest

import (
	"time"

	"mold_autotest/internal/thermocouple"
)

// Detection describes a thermocouple found to be heated.
type Detection struct {
	Sensor           *thermocouple.Thermocouple
	InitTime         time.Time // time of the window reference sample
	StartTime        time.Time // time of the latest sample
	StartTemperature float64   // latest temperature
}

// Detector finds a thermocouple whose temperature rose by more than Degrees
// within the trailing Window.
type Detector struct {
	Window  time.Duration
	Degrees float64
}

// Detect scans sensors in the given order (callers pass ascending label order)
// and returns the first OK, untested sensor that is heating.
//
// All sensors are sampled on the same cadence, so the window reference index is
// computed once from the first OK sensor and reused for every candidate.
func (d Detector) Detect(sensors []*thermocouple.Thermocouple, tested func(label int) bool) (Detection, bool) {
	var active []*thermocouple.Thermocouple
	for _, tc := range sensors {
		if tc.IsOK() {
			active = append(active, tc)
		}
	}
	if len(active) == 0 {
		return Detection{}, false
	}

	bound, ok := active[0].History().FindThresholdIndex(d.Window)
	if !ok {
		return Detection{}, false
	}

	for _, tc := range active {
		if tested(tc.Label) {
			continue
		}
		h := tc.History()
		if bound >= h.Len() {
			continue
		}
		ref := h.At(bound)
		latest, _ := h.Latest()
		if !ref.Valid || !latest.Valid {
			continue
		}
		if latest.Temp-ref.Temp > d.Degrees {
			return Detection{
				Sensor:           tc,
				InitTime:         ref.Time,
				StartTime:        latest.Time,
				StartTemperature: latest.Temp,
			}, true
		}
	}
	return Detection{}, false
}
