package service

import (
	"context"
	"errors"
	"time"

	"mold_autotest/internal/logger"
	"mold_autotest/internal/source"
)

// DefaultPollInterval is the polling period of the PLC link.
const DefaultPollInterval = 200 * time.Millisecond

// PollerService reads the data source on every tick and feeds Testing.
type PollerService struct {
	src     source.DataSource
	testing Testing
	log     *logger.Logger
}

func NewPollerService(src source.DataSource, testing Testing, log *logger.Logger) *PollerService {
	return &PollerService{src: src, testing: testing, log: log}
}

// Run ticks at the given interval until ctx is canceled or the source is
// exhausted. Failed polls are logged and skipped.
func (s *PollerService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultPollInterval
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.poll(ctx); err != nil {
				if errors.Is(err, source.ErrExhausted) {
					s.log.Infow("data source exhausted, polling stopped")
					return
				}
				if ctx.Err() != nil {
					return
				}
				s.log.Warnw("poll failed", "err", err)
			}
		}
	}
}

// poll performs one read of side states then sensor data.
func (s *PollerService) poll(ctx context.Context) error {
	sides, err := s.src.SideStates(ctx)
	if err != nil {
		return err
	}
	batch, err := s.src.SensorData(ctx)
	if err != nil {
		return err
	}
	if err := s.testing.Ingest(ctx, batch, sides); err != nil {
		s.log.Errorw("persist tick outcome failed", "err", err)
	}
	return nil
}
