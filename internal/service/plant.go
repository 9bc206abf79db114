package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/config"
	"mold_autotest/internal/models"
	"mold_autotest/internal/source"
	"mold_autotest/internal/thermocouple"
)

// Plant is the live state shared by the services: the mold layout, the
// current session and the settings in force. Every access holds mu, which
// serialises polling against operator actions.
type Plant struct {
	mu sync.Mutex

	mold       config.Mold
	registry   *thermocouple.Registry
	session    *autotest.Session
	sessionID  string
	sides      map[thermocouple.Side]string
	msd        models.MSDConfig
	defaultDir autotest.Direction
	now        func() time.Time
}

// PlantOption customizes a Plant.
type PlantOption func(*Plant)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PlantOption {
	return func(p *Plant) { p.now = now }
}

// NewPlant builds the plant for a validated configuration and opens the
// first session.
func NewPlant(cfg config.Config, opts ...PlantOption) (*Plant, error) {
	layout, err := cfg.Mold.Layout()
	if err != nil {
		return nil, err
	}
	reg, err := thermocouple.NewRegistry(layout)
	if err != nil {
		return nil, err
	}
	p := &Plant{
		mold:       cfg.Mold,
		registry:   reg,
		sides:      make(map[thermocouple.Side]string),
		msd:        cfg.MSD,
		defaultDir: cfg.Direction,
		now:        time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	p.newSession()
	return p, nil
}

// newSession replaces the session. Callers hold mu.
func (p *Plant) newSession() {
	p.sessionID = uuid.NewString()
	p.session = autotest.NewSession(p.now().UTC(), p.defaultDir)
}

// sideFault returns the state of side when it is not healthy. A side without
// a reported state counts as faulted. Callers hold mu.
func (p *Plant) sideFault(side thermocouple.Side) (string, bool) {
	state, ok := p.sides[side]
	if !ok {
		return "no side state", true
	}
	return state, state != source.SideOK
}

// thresholds returns the limits for the next tick. Callers hold mu.
func (p *Plant) thresholds() autotest.Thresholds {
	return config.Thresholds(p.msd)
}
