package service

import (
	"time"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/thermocouple"
)

// LogFilter supports history filtering by time range, type and session.
type LogFilter struct {
	From      time.Time // inclusive; zero means no lower bound
	To        time.Time // inclusive; zero means no upper bound
	Type      string    // "", "SESSION_START", "TEST_STARTED", "TEST_CONFIRMED", ...
	SessionID string    // "" means every session
}

// TestInfo is a snapshot of a test, safe to use outside the plant lock.
type TestInfo struct {
	Label            int
	Side             thermocouple.Side
	Manual           bool
	InitTime         time.Time
	StartTime        time.Time
	StartTemperature float64
	Complete         bool
	Result           autotest.Result
	Reason           string
}

func testInfo(t *autotest.Test) TestInfo {
	return TestInfo{
		Label:            t.Label(),
		Side:             t.Sensor.Side,
		Manual:           t.Manual,
		InitTime:         t.InitTime,
		StartTime:        t.StartTime,
		StartTemperature: t.StartTemperature,
		Complete:         t.Complete,
		Result:           t.Result,
		Reason:           t.Reason,
	}
}

// SessionInfo summarises the session for one side.
type SessionInfo struct {
	SessionID string
	StartedAt time.Time
	State     string
	Mode      string // direction name, or "manual" while a manual test runs
	Direction autotest.Direction
	Current   *TestInfo
	Pending   *TestInfo
	Ordering  []int // expected next sensors of the side
	Tested    int
	Total     int
}

// SensorView is one thermocouple of a SideView.
type SensorView struct {
	Label       int
	TextLabel   string
	X, Y        int
	Status      thermocouple.Status
	Temperature *float64
	Result      autotest.Result // empty until the sensor is tested
}

// SideView is the heatmap data of one side.
type SideView struct {
	Side           thermocouple.Side
	Fault          string // non-empty when the side reports a fault
	Sensors        []SensorView
	Successful     []int
	Failed         []int
	Current        int // label under test, 0 when none
	MinTemperature float64
	MaxTemperature float64
}

// ReportEntry is one thermocouple of the report.
type ReportEntry struct {
	Label  int
	X, Y   int
	Status thermocouple.Status
	Result autotest.Result
	Manual bool
}

// SideReport groups the report entries of one side.
type SideReport struct {
	Side    thermocouple.Side
	Fault   string
	Entries []ReportEntry
}

// Report is the data behind the test report. Layout is left to the caller.
type Report struct {
	MoldNo      string
	MoldLabel   string
	MoldName    string
	Tester      string
	SessionID   string
	StartedAt   time.Time
	GeneratedAt time.Time
	Sides       []SideReport
	Success     int
	Fail        int
	Untested    int
}
