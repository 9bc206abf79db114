package console

import (
	"context"
	"time"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/config"
	"mold_autotest/internal/models"
	"mold_autotest/internal/service"
	"mold_autotest/internal/source"
	"mold_autotest/internal/thermocouple"
)

// ---- Service Mocks ----

type mockTesting struct {
	info       service.SessionInfo
	lastSide   thermocouple.Side
	manualInfo service.TestInfo
	manualErr  error
	lastManual int
	confirmErr error
	lastResult string
	direction  autotest.Direction
	dirOK      bool
	lastDir    string
	resetID    string
	resetErr   error
	resets     int
}

func (m *mockTesting) Ingest(ctx context.Context, b source.Batch, sides map[thermocouple.Side]string) error {
	return nil
}

func (m *mockTesting) StartManualTest(ctx context.Context, label int) (service.TestInfo, error) {
	m.lastManual = label
	return m.manualInfo, m.manualErr
}

func (m *mockTesting) ConfirmTest(ctx context.Context, result string) (service.TestInfo, error) {
	m.lastResult = result
	r, err := autotest.ParseResult(result)
	if err != nil {
		return service.TestInfo{}, err
	}
	if m.confirmErr != nil {
		return service.TestInfo{}, m.confirmErr
	}
	return service.TestInfo{Label: 4, Side: thermocouple.SideLeft, Complete: true, Result: r}, nil
}

func (m *mockTesting) SetDirection(ctx context.Context, v string) (autotest.Direction, bool) {
	m.lastDir = v
	return m.direction, m.dirOK
}

func (m *mockTesting) Reset(ctx context.Context) (string, error) {
	m.resets++
	return m.resetID, m.resetErr
}

func (m *mockTesting) SessionInfo(side thermocouple.Side) service.SessionInfo {
	m.lastSide = side
	return m.info
}

type mockMonitoring struct {
	view     service.SideView
	lastSide thermocouple.Side
	samples  []thermocouple.Sample
	histErr  error
	report   service.Report
}

func (m *mockMonitoring) SideView(side thermocouple.Side) service.SideView {
	m.lastSide = side
	return m.view
}

func (m *mockMonitoring) History(label int) ([]thermocouple.Sample, error) {
	return m.samples, m.histErr
}

func (m *mockMonitoring) Report() service.Report {
	return m.report
}

type mockSettings struct {
	current    models.MSDConfig
	lastParams map[string]string
	updateErr  error
}

func (m *mockSettings) Get() models.MSDConfig { return m.current }

func (m *mockSettings) Load(ctx context.Context) error { return nil }

func (m *mockSettings) Update(ctx context.Context, params map[string]string) (models.MSDConfig, error) {
	m.lastParams = params
	if m.updateErr != nil {
		return m.current, m.updateErr
	}
	next, err := config.ParseMSD(params, m.current)
	if err != nil {
		return m.current, err
	}
	m.current = next
	return next, nil
}

type mockEventLog struct {
	resp  []models.SessionEvent
	err   error
	last  service.LogFilter
	calls int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SessionEvent, error) {
	m.calls++
	m.last = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

type mocks struct {
	testing    *mockTesting
	monitoring *mockMonitoring
	settings   *mockSettings
	eventLog   *mockEventLog
}

func newTestConsole() (*Console, *mocks) {
	m := &mocks{
		testing:    &mockTesting{},
		monitoring: &mockMonitoring{},
		settings:   &mockSettings{current: config.DefaultMSD()},
		eventLog:   &mockEventLog{},
	}
	s := &service.Service{
		Testing:    m.testing,
		Monitoring: m.monitoring,
		Settings:   m.settings,
		EventLog:   m.eventLog,
	}
	return NewConsole(s, nil), m
}

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
