package autotest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mold_autotest/internal/thermocouple"
)

const pollInterval = 200 * time.Millisecond

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

var defaultThresholds = Thresholds{
	DetectionTime:    time.Second,
	DetectionDegrees: 1,
	TestTime:         10 * time.Second,
	TestDegrees:      4,
}

// rig feeds synchronized samples to a small set of thermocouples.
type rig struct {
	t        *testing.T
	reg      *thermocouple.Registry
	now      time.Time
	started  bool
	temps    map[int]float64
	codes    map[int]int
	nullTemp map[int]bool
}

func newRig(t *testing.T, layout ...thermocouple.Position) *rig {
	t.Helper()
	reg, err := thermocouple.NewRegistry(layout)
	require.NoError(t, err)
	r := &rig{
		t:        t,
		reg:      reg,
		now:      t0,
		temps:    make(map[int]float64),
		codes:    make(map[int]int),
		nullTemp: make(map[int]bool),
	}
	for _, tc := range reg.All() {
		r.temps[tc.Label] = 25.0
		r.codes[tc.Label] = thermocouple.CodeOK
	}
	return r
}

// twoSensors is the A/B layout: A=1 at (0,0), B=2 at (0,10), both on the left side.
func twoSensors(t *testing.T) *rig {
	return newRig(t,
		thermocouple.Position{Label: 1, X: 0, Y: 0, Side: thermocouple.SideLeft},
		thermocouple.Position{Label: 2, X: 0, Y: 10, Side: thermocouple.SideLeft},
	)
}

// sample writes one synchronized batch at the current time, then advances the clock.
func (r *rig) sample() {
	if r.started {
		r.now = r.now.Add(pollInterval)
	}
	r.started = true
	for _, tc := range r.reg.All() {
		s := thermocouple.Sample{Time: r.now}
		if !r.nullTemp[tc.Label] && r.codes[tc.Label] != thermocouple.CodeDisconnected {
			s.Temp, s.Valid = r.temps[tc.Label], true
		}
		tc.Update(s, r.codes[tc.Label])
	}
}

// samples writes n batches without changing any reading.
func (r *rig) samples(n int) {
	for i := 0; i < n; i++ {
		r.sample()
	}
}

func (r *rig) tick(s *Session, th Thresholds) []Event {
	r.sample()
	return s.Tick(r.reg.All(), th)
}

func (r *rig) sensor(label int) *thermocouple.Thermocouple {
	tc, ok := r.reg.Get(label)
	require.True(r.t, ok, "no sensor %d", label)
	return tc
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func never(int) bool { return false }
