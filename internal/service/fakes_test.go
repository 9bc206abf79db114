package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/config"
	"mold_autotest/internal/logger"
	"mold_autotest/internal/models"
	"mold_autotest/internal/repository"
	"mold_autotest/internal/source"
	"mold_autotest/internal/thermocouple"
)

// ---- Test doubles ----

// fakeEventRepo is a minimal stub that satisfies the repository.EventRepo interface.
type fakeEventRepo struct {
	mu        sync.Mutex
	appended  []models.SessionEvent
	appendErr error

	// List inputs and outputs
	gotCtx    context.Context
	gotFilter repository.EventFilter
	events    []models.SessionEvent
	err       error
	calls     int
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.SessionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, e)
	return f.appendErr
}

func (f *fakeEventRepo) List(ctx context.Context, q repository.EventFilter) ([]models.SessionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotCtx = ctx
	f.gotFilter = q
	return f.events, f.err
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

func (f *fakeEventRepo) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = nil
}

// fakeResultRepo records confirmed tests.
type fakeResultRepo struct {
	mu      sync.Mutex
	records []models.TestRecord
	err     error
}

func (f *fakeResultRepo) Append(ctx context.Context, r models.TestRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.records = append(f.records, r)
	return int64(len(f.records)), nil
}

func (f *fakeResultRepo) ListBySession(ctx context.Context, sessionID string) ([]models.TestRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TestRecord
	for _, r := range f.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeSettingsRepo is a minimal stub for repository.SettingsRepo.
type fakeSettingsRepo struct {
	loadResp models.MSDConfig
	loadErr  error
	saveErr  error
	saves    []models.MSDConfig
}

func (f *fakeSettingsRepo) Save(ctx context.Context, s models.MSDConfig) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, s)
	return nil
}

func (f *fakeSettingsRepo) Load(ctx context.Context) (models.MSDConfig, error) {
	return f.loadResp, f.loadErr
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

const pollStep = 200 * time.Millisecond

// testConfig lays out two sensors on the left side and one on the right.
func testConfig() config.Config {
	return config.Config{
		Direction: autotest.HorizontalFirst,
		MSD:       config.DefaultMSD(),
		Mold: config.Mold{No: "118", Label: "A", Sides: []config.MoldSide{
			{Name: "Left", Sensors: []config.SensorPosition{{Label: 1, X: 0, Y: 0}, {Label: 2, X: 10, Y: 10}}},
			{Name: "Right", Sensors: []config.SensorPosition{{Label: 3, X: 0, Y: 0}}},
		}},
	}
}

// harness drives a TestingService with synthetic polls.
type harness struct {
	t        *testing.T
	clk      *fakeClock
	plant    *Plant
	events   *fakeEventRepo
	results  *fakeResultRepo
	settings *fakeSettingsRepo
	svc      *TestingService

	temps  map[int]float64
	codes  map[int]int
	null   map[int]bool
	absent map[int]bool
	sides  map[thermocouple.Side]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := &fakeClock{now: t0}
	plant, err := NewPlant(testConfig(), WithClock(clk.Now))
	if err != nil {
		t.Fatalf("NewPlant: %v", err)
	}
	h := &harness{
		t:        t,
		clk:      clk,
		plant:    plant,
		events:   &fakeEventRepo{},
		results:  &fakeResultRepo{},
		settings: &fakeSettingsRepo{},
		temps:    map[int]float64{1: 25, 2: 25, 3: 25},
		codes:    map[int]int{1: thermocouple.CodeOK, 2: thermocouple.CodeOK, 3: thermocouple.CodeOK},
		null:     map[int]bool{},
		absent:   map[int]bool{},
		sides:    map[thermocouple.Side]string{},
	}
	for _, side := range thermocouple.Sides {
		h.sides[side] = source.SideOK
	}
	h.svc = NewTestingService(plant, h.events, h.results, logger.Nop())
	return h
}

func (h *harness) batch() source.Batch {
	b := source.Batch{Time: h.clk.now, State: map[int]source.Reading{}}
	for label, temp := range h.temps {
		if h.absent[label] {
			continue
		}
		r := source.Reading{Status: h.codes[label]}
		if !h.null[label] && h.codes[label] == thermocouple.CodeOK {
			r.Temperature = source.Temp(temp)
		}
		b.State[label] = r
	}
	return b
}

// tick ingests one poll and moves the clock to the next one.
func (h *harness) tick() error {
	err := h.svc.Ingest(context.Background(), h.batch(), h.sides)
	h.clk.now = h.clk.now.Add(pollStep)
	return err
}

func (h *harness) ticks(n int) {
	h.t.Helper()
	for i := 0; i < n; i++ {
		if err := h.tick(); err != nil {
			h.t.Fatalf("tick: %v", err)
		}
	}
}

// detect warms label after a second of flat history so the next tick starts a test.
func (h *harness) detect(label int) {
	h.t.Helper()
	h.ticks(6)
	h.temps[label] += 1.5
	h.ticks(1)
	info := h.svc.SessionInfo("")
	if info.Current == nil || info.Current.Label != label {
		h.t.Fatalf("expected running test on %d, got %+v", label, info.Current)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
