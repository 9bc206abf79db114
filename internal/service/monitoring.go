package service

import (
	"fmt"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/thermocouple"
)

type MonitoringService struct {
	plant *Plant
}

func NewMonitoringService(plant *Plant) *MonitoringService {
	return &MonitoringService{plant: plant}
}

// SideView returns the heatmap data of side with the graph bounds in force.
func (s *MonitoringService) SideView(side thermocouple.Side) SideView {
	p := s.plant
	p.mu.Lock()
	defer p.mu.Unlock()

	results := resultsByLabel(p.session)
	v := SideView{
		Side:           side,
		MinTemperature: p.msd.MinGraphTemperature,
		MaxTemperature: p.msd.MaxGraphTemperature,
	}
	if fault, ok := p.sideFault(side); ok {
		v.Fault = fault
	}
	if t, ok := p.session.CurrentTest(); ok && t.Sensor.Side == side {
		v.Current = t.Label()
	} else if t, ok := p.session.CompletedTest(); ok && t.Sensor.Side == side {
		v.Current = t.Label()
	}

	for _, tc := range p.registry.BySide(side) {
		sv := SensorView{
			Label:     tc.Label,
			TextLabel: tc.TextLabel,
			X:         tc.X,
			Y:         tc.Y,
			Status:    tc.Status,
		}
		if temp, ok := tc.Temperature(); ok {
			sv.Temperature = &temp
		}
		if t, ok := results[tc.Label]; ok {
			sv.Result = t.Result
			switch t.Result {
			case autotest.ResultSuccess:
				v.Successful = append(v.Successful, tc.Label)
			case autotest.ResultFail:
				v.Failed = append(v.Failed, tc.Label)
			}
		}
		v.Sensors = append(v.Sensors, sv)
	}
	return v
}

// History returns the retained samples of label, oldest first.
func (s *MonitoringService) History(label int) ([]thermocouple.Sample, error) {
	p := s.plant
	p.mu.Lock()
	defer p.mu.Unlock()

	tc, ok := p.registry.Get(label)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSensor, label)
	}
	return tc.History().Samples(), nil
}

// Report returns the per-side status of every thermocouple overlaid with the
// confirmed results of the session.
func (s *MonitoringService) Report() Report {
	p := s.plant
	p.mu.Lock()
	defer p.mu.Unlock()

	results := resultsByLabel(p.session)
	r := Report{
		MoldNo:      p.mold.No,
		MoldLabel:   p.mold.Label,
		MoldName:    p.mold.Name(),
		Tester:      p.msd.TesterName,
		SessionID:   p.sessionID,
		StartedAt:   p.session.StartedAt,
		GeneratedAt: p.now().UTC(),
	}
	for _, side := range thermocouple.Sides {
		sensors := p.registry.BySide(side)
		if len(sensors) == 0 {
			continue
		}
		sr := SideReport{Side: side}
		if fault, ok := p.sideFault(side); ok {
			sr.Fault = fault
		}
		for _, tc := range sensors {
			e := ReportEntry{Label: tc.Label, X: tc.X, Y: tc.Y, Status: tc.Status}
			if t, ok := results[tc.Label]; ok {
				e.Result, e.Manual = t.Result, t.Manual
			}
			switch e.Result {
			case autotest.ResultSuccess:
				r.Success++
			case autotest.ResultFail:
				r.Fail++
			default:
				r.Untested++
			}
			sr.Entries = append(sr.Entries, e)
		}
		r.Sides = append(r.Sides, sr)
	}
	return r
}

// resultsByLabel indexes the confirmed tests. Callers hold the plant lock.
func resultsByLabel(sess *autotest.Session) map[int]*autotest.Test {
	out := make(map[int]*autotest.Test)
	for _, t := range sess.Results() {
		out[t.Label()] = t
	}
	return out
}
