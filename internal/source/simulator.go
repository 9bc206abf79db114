package source

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"mold_autotest/internal/config"
	"mold_autotest/internal/thermocouple"
)

// Heat gun phases.
const (
	gunHeating = "heating"
	gunPausing = "pausing"
)

// Simulator is a DataSource that models the mold at rest plus an optional
// operator walking a heat gun across the thermocouples.
type Simulator struct {
	mu  sync.Mutex
	cfg config.Simulator
	now func() time.Time

	labels       []int
	base         map[int]float64
	temps        map[int]float64
	disconnected map[int]bool
	faults       map[thermocouple.Side]string

	gunOrder []int
	gunIdx   int
	gunPhase string
	gunSince time.Time
	lastStep time.Time
	started  bool
}

// SimulatorOption customizes a Simulator.
type SimulatorOption func(*Simulator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator builds a simulator for the given layout. Fault side names
// that do not parse are ignored.
func NewSimulator(cfg config.Simulator, layout []thermocouple.Position, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		cfg:          cfg,
		now:          time.Now,
		base:         make(map[int]float64, len(layout)),
		temps:        make(map[int]float64, len(layout)),
		disconnected: make(map[int]bool),
		faults:       make(map[thermocouple.Side]string),
		gunPhase:     gunHeating,
	}
	// Negative phases would move the gun clock backwards.
	s.cfg.HeatGun.Dwell = max(s.cfg.HeatGun.Dwell, 0)
	s.cfg.HeatGun.Pause = max(s.cfg.HeatGun.Pause, 0)
	for _, o := range opts {
		o(s)
	}

	hot := make(map[int]bool, len(cfg.HotLabels))
	for _, l := range cfg.HotLabels {
		hot[l] = true
	}
	for _, l := range cfg.DisconnectedLabels {
		s.disconnected[l] = true
	}
	for name, state := range cfg.FaultedSides {
		if side, err := thermocouple.ParseSide(name); err == nil {
			s.faults[side] = state
		}
	}

	gunSide, _ := thermocouple.ParseSide(cfg.HeatGun.SideName)
	for _, p := range layout {
		s.labels = append(s.labels, p.Label)
		s.base[p.Label] = cfg.Ambient
		if hot[p.Label] {
			s.base[p.Label] = cfg.HotTemperature
		}
		s.temps[p.Label] = s.base[p.Label]
		if s.disconnected[p.Label] {
			continue
		}
		if gunSide == "" || p.Side == gunSide {
			s.gunOrder = append(s.gunOrder, p.Label)
		}
	}
	sort.Ints(s.labels)
	sort.Ints(s.gunOrder)
	return s
}

// SensorData advances the model to the current time and returns a batch.
func (s *Simulator) SensorData(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.started {
		s.started = true
		s.lastStep = now
		s.gunSince = now
	}
	elapsed := now.Sub(s.lastStep).Seconds()
	if elapsed > 0 {
		s.step(elapsed, now)
		s.lastStep = now
	}

	b := Batch{Time: now, State: make(map[int]Reading, len(s.labels))}
	for _, l := range s.labels {
		if s.disconnected[l] {
			b.State[l] = Reading{Status: thermocouple.CodeDisconnected}
			continue
		}
		b.State[l] = Reading{Status: thermocouple.CodeOK, Temperature: Temp(round2(s.temps[l]))}
	}
	return b, nil
}

// SideStates reports the configured faults; every other side is healthy.
func (s *Simulator) SideStates(ctx context.Context) (map[thermocouple.Side]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[thermocouple.Side]string, len(thermocouple.Sides))
	for _, side := range thermocouple.Sides {
		out[side] = SideOK
		if state, ok := s.faults[side]; ok {
			out[side] = state
		}
	}
	return out, nil
}

// SetFault sets or clears (empty state) the fault reported for side.
func (s *Simulator) SetFault(side thermocouple.Side, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == "" || state == SideOK {
		delete(s.faults, side)
		return
	}
	s.faults[side] = state
}

// SetDisconnected connects or disconnects one thermocouple.
func (s *Simulator) SetDisconnected(label int, disconnected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if disconnected {
		s.disconnected[label] = true
		return
	}
	delete(s.disconnected, label)
}

// Heat raises one thermocouple by delta degrees.
func (s *Simulator) Heat(label int, delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.temps[label]; ok {
		s.temps[label] += delta
	}
}

// Target returns the label the heat gun is on, if it is heating.
func (s *Simulator) Target() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.HeatGun.Enabled || len(s.gunOrder) == 0 || s.gunPhase != gunHeating {
		return 0, false
	}
	return s.gunOrder[s.gunIdx], true
}

// step advances the model by elapsed seconds.
func (s *Simulator) step(elapsed float64, now time.Time) {
	target, heating := -1, false
	if s.cfg.HeatGun.Enabled && len(s.gunOrder) > 0 {
		s.advanceGun(now)
		if s.gunPhase == gunHeating {
			target, heating = s.gunOrder[s.gunIdx], true
		}
	}

	for _, l := range s.labels {
		if heating && l == target {
			s.temps[l] += s.cfg.HeatGun.RateCPS * elapsed
			continue
		}
		s.temps[l] = coolToward(s.temps[l], s.base[l], s.cfg.HeatGun.CoolCPS*elapsed)
	}
}

// advanceGun moves the heat gun through its heating and pause phases.
func (s *Simulator) advanceGun(now time.Time) {
	for {
		in := now.Sub(s.gunSince)
		switch s.gunPhase {
		case gunHeating:
			if in < s.cfg.HeatGun.Dwell {
				return
			}
			s.gunPhase = gunPausing
			s.gunSince = s.gunSince.Add(s.cfg.HeatGun.Dwell)
		case gunPausing:
			if in < s.cfg.HeatGun.Pause {
				return
			}
			s.gunPhase = gunHeating
			s.gunSince = s.gunSince.Add(s.cfg.HeatGun.Pause)
			s.gunIdx = (s.gunIdx + 1) % len(s.gunOrder)
		}
		if s.cfg.HeatGun.Dwell <= 0 && s.cfg.HeatGun.Pause <= 0 {
			return
		}
	}
}

// coolToward moves temp toward base by at most step degrees.
func coolToward(temp, base, step float64) float64 {
	if temp > base {
		return math.Max(temp-step, base)
	}
	return base
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
