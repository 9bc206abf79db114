// Package autotest implements the thermocouple test procedure: heating
// detection, the per-test pass/fail check, guided ordering and the session
// state machine that ties them together.
//
// A Session is driven by its host once per polling interval and holds no
// locks; the host must serialise Tick and every operator call.
package autotest

import (
	"errors"
	"fmt"
	"time"

	"mold_autotest/internal/thermocouple"
)

var (
	ErrSessionBusy   = errors.New("a test is already in progress")
	ErrAlreadyTested = errors.New("thermocouple is already tested")
	ErrSensorNotOK   = errors.New("thermocouple is not OK")
	ErrNoReading     = errors.New("thermocouple has no temperature reading")
	ErrNoPendingTest = errors.New("no completed test awaiting confirmation")
)

// Thresholds are the detection and test limits read on every tick.
type Thresholds struct {
	DetectionTime    time.Duration
	DetectionDegrees float64
	TestTime         time.Duration
	TestDegrees      float64
}

// EventKind tells what happened to a test during a tick or operator call.
type EventKind int

const (
	EventStarted EventKind = iota
	EventAborted
	EventCompleted
	EventConfirmed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "test_started"
	case EventAborted:
		return "test_aborted"
	case EventCompleted:
		return "test_completed"
	case EventConfirmed:
		return "test_confirmed"
	}
	return "unknown"
}

// Event is a state transition of a test. Auto is set on confirmations made
// by the session itself.
type Event struct {
	Kind EventKind
	Test *Test
	Auto bool
}

// Session is one run of the test procedure over a mold.
type Session struct {
	StartedAt time.Time

	state     State
	results   []*Test
	tested    map[int]bool
	direction Direction
}

// NewSession starts an idle session with no results.
func NewSession(startedAt time.Time, d Direction) *Session {
	return &Session{
		StartedAt: startedAt,
		state:     Idle{},
		tested:    make(map[int]bool),
		direction: d,
	}
}

// Tick advances the session by one polling interval. Sensors must be in
// ascending label order and already carry this interval's samples.
func (s *Session) Tick(sensors []*thermocouple.Thermocouple, th Thresholds) []Event {
	var events []Event

	if r, ok := s.state.(Running); ok && !r.Test.Sensor.IsOK() {
		s.state = Idle{}
		events = append(events, Event{Kind: EventAborted, Test: r.Test})
	}

	switch st := s.state.(type) {
	case Idle:
		det := Detector{Window: th.DetectionTime, Degrees: th.DetectionDegrees}
		if d, ok := det.Detect(sensors, s.IsTested); ok {
			t := newTest(d, false)
			s.state = Running{Test: t}
			events = append(events, Event{Kind: EventStarted, Test: t})
		}

	case Running:
		t := st.Test
		if !t.Update(th.TestTime, th.TestDegrees) {
			return events
		}
		s.state = PendingConfirmation{Test: t}
		events = append(events, Event{Kind: EventCompleted, Test: t})

		if s.autoConfirmable(t, sensors) {
			if _, err := s.ConfirmTest(t.Result); err == nil {
				events = append(events, Event{Kind: EventConfirmed, Test: t, Auto: true})
			}
		}
	}
	return events
}

// autoConfirmable reports whether a just-completed test can be accepted
// without the operator: manual tests always, automatic failures never, and
// automatic successes only when the sensor was the next one expected.
func (s *Session) autoConfirmable(t *Test, sensors []*thermocouple.Thermocouple) bool {
	if t.Manual {
		return true
	}
	if t.Result != ResultSuccess {
		return false
	}
	var side []*thermocouple.Thermocouple
	for _, tc := range sensors {
		if tc.Side == t.Sensor.Side {
			side = append(side, tc)
		}
	}
	expected := Ordering(side, s.direction, s.IsTested)
	return len(expected) > 0 && expected[0] == t.Label()
}

// StartManualTest starts an operator-requested test on tc. It is rejected,
// without touching the session, when a test is running or awaiting
// confirmation, when tc is not OK or has no reading, or when tc is already tested.
func (s *Session) StartManualTest(tc *thermocouple.Thermocouple) (*Test, error) {
	if _, idle := s.state.(Idle); !idle {
		return nil, ErrSessionBusy
	}
	if s.IsTested(tc.Label) {
		return nil, ErrAlreadyTested
	}
	if !tc.IsOK() {
		return nil, fmt.Errorf("%w: status %s", ErrSensorNotOK, tc.Status)
	}
	latest, ok := tc.History().Latest()
	if !ok || !latest.Valid {
		return nil, ErrNoReading
	}

	t := newTest(Detection{
		Sensor:           tc,
		InitTime:         latest.Time,
		StartTime:        latest.Time,
		StartTemperature: latest.Temp,
	}, true)
	s.state = Running{Test: t}
	return t, nil
}

// ConfirmTest records the pending test with the given verdict, which
// overrides the automatic one, and returns the session to Idle.
func (s *Session) ConfirmTest(r Result) (*Test, error) {
	p, ok := s.state.(PendingConfirmation)
	if !ok {
		return nil, ErrNoPendingTest
	}
	if r != ResultSuccess && r != ResultFail {
		return nil, ErrInvalidResult
	}
	t := p.Test
	t.Result = r
	s.results = append(s.results, t)
	s.tested[t.Label()] = true
	s.state = Idle{}
	return t, nil
}

// SetDirection changes the guided testing direction.
func (s *Session) SetDirection(d Direction) {
	s.direction = d
}

// ApplyDirection parses a free-form direction and applies it. Unknown values
// leave the direction unchanged and return false.
func (s *Session) ApplyDirection(v string) bool {
	d, ok := ParseDirection(v)
	if ok {
		s.direction = d
	}
	return ok
}

// Direction returns the guided testing direction.
func (s *Session) Direction() Direction {
	return s.direction
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// CurrentTest returns the running test, if any.
func (s *Session) CurrentTest() (*Test, bool) {
	r, ok := s.state.(Running)
	return r.Test, ok
}

// CompletedTest returns the test awaiting confirmation, if any.
func (s *Session) CompletedTest() (*Test, bool) {
	p, ok := s.state.(PendingConfirmation)
	return p.Test, ok
}

// Results returns the confirmed tests in confirmation order.
func (s *Session) Results() []*Test {
	out := make([]*Test, len(s.results))
	copy(out, s.results)
	return out
}

// IsTested reports whether label already has a confirmed result.
func (s *Session) IsTested(label int) bool {
	return s.tested[label]
}

// Ordering returns the expected test order for one side's thermocouples.
func (s *Session) Ordering(sideSensors []*thermocouple.Thermocouple) []int {
	return Ordering(sideSensors, s.direction, s.IsTested)
}
