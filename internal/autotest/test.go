package autotest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mold_autotest/internal/thermocouple"
)

// Result is the verdict of a thermocouple test.
type Result string

const (
	ResultNone    Result = ""
	ResultSuccess Result = "success"
	ResultFail    Result = "fail"
)

// ErrInvalidResult is returned for verdicts other than success or fail.
var ErrInvalidResult = errors.New("test result must be success or fail")

// ParseResult accepts "success" or "fail" in any case.
func ParseResult(s string) (Result, error) {
	switch Result(strings.ToLower(strings.TrimSpace(s))) {
	case ResultSuccess:
		return ResultSuccess, nil
	case ResultFail:
		return ResultFail, nil
	}
	return ResultNone, fmt.Errorf("%w: got %q", ErrInvalidResult, s)
}

// Completion reasons recorded alongside the automatic verdict.
const (
	ReasonTimeout  = "time out"
	ReasonComplete = "complete"
)

// Test is a single test of one thermocouple. The sensor is referenced, not owned.
type Test struct {
	Sensor           *thermocouple.Thermocouple
	InitTime         time.Time
	StartTime        time.Time
	StartTemperature float64
	Manual           bool

	Complete bool
	Result   Result
	Reason   string
}

func newTest(d Detection, manual bool) *Test {
	return &Test{
		Sensor:           d.Sensor,
		InitTime:         d.InitTime,
		StartTime:        d.StartTime,
		StartTemperature: d.StartTemperature,
		Manual:           manual,
	}
}

// Update checks the sensor's latest sample against the test thresholds and
// reports whether the test is complete. Time-out is checked before the rise,
// so a sample that satisfies both fails.
func (t *Test) Update(testTime time.Duration, testDegrees float64) bool {
	if t.Complete {
		return true
	}
	latest, ok := t.Sensor.History().Latest()
	if !ok {
		return false
	}
	switch {
	case latest.Time.Sub(t.StartTime) > testTime:
		t.finish(ResultFail, ReasonTimeout)
	case latest.Valid && latest.Temp-t.StartTemperature > testDegrees:
		t.finish(ResultSuccess, ReasonComplete)
	}
	return t.Complete
}

func (t *Test) finish(r Result, reason string) {
	t.Complete = true
	t.Result = r
	t.Reason = reason
}

// Label is a shorthand for the tested thermocouple's label.
func (t *Test) Label() int {
	return t.Sensor.Label
}
