package service

import (
	"context"
	"time"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/logger"
	"mold_autotest/internal/models"
	"mold_autotest/internal/repository"
	"mold_autotest/internal/source"
	"mold_autotest/internal/thermocouple"
)

// Testing drives the test session from polled data and operator actions.
type Testing interface {
	Ingest(ctx context.Context, b source.Batch, sides map[thermocouple.Side]string) error
	StartManualTest(ctx context.Context, label int) (TestInfo, error)
	ConfirmTest(ctx context.Context, result string) (TestInfo, error)
	SetDirection(ctx context.Context, v string) (autotest.Direction, bool)
	Reset(ctx context.Context) (string, error)
	SessionInfo(side thermocouple.Side) SessionInfo
}

// Monitoring exposes read-only views of the mold (heatmap data, history, report data).
type Monitoring interface {
	SideView(side thermocouple.Side) SideView
	History(label int) ([]thermocouple.Sample, error)
	Report() Report
}

// Settings reads and updates the autotest thresholds.
type Settings interface {
	Get() models.MSDConfig
	Load(ctx context.Context) error
	Update(ctx context.Context, params map[string]string) (models.MSDConfig, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error)
}

// Poller runs the background loop that feeds the data source into Testing.
// Stop via context cancellation in main() for graceful shutdown.
type Poller interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Testing
	Monitoring
	Settings
	EventLog
	Poller
}

// NewService wires the repository layer, the shared plant and the data source
// into concrete services.
func NewService(repos *repository.Repository, plant *Plant, src source.DataSource, log *logger.Logger) *Service {
	ts := NewTestingService(plant, repos.EventRepo, repos.ResultRepo, log)
	return &Service{
		Testing:    ts,
		Monitoring: NewMonitoringService(plant),
		Settings:   NewSettingsService(plant, repos.SettingsRepo, repos.EventRepo, log),
		EventLog:   NewEventLogService(repos.EventRepo),
		Poller:     NewPollerService(src, ts, log),
	}
}
