package service

import (
	"context"
	"errors"
	"testing"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/models"
	"mold_autotest/internal/thermocouple"
)

func TestTestingService_AutoTestIsDetectedCompletedAndStored(t *testing.T) {
	h := newHarness(t)
	sessionID := h.svc.SessionInfo("").SessionID

	h.detect(1)
	if got := h.events.types(); !equalStrings(got, []string{models.EventTestStarted}) {
		t.Fatalf("events after detection: %v", got)
	}

	h.temps[1] = 31
	h.ticks(1)

	want := []string{models.EventTestStarted, models.EventTestCompleted, models.EventTestConfirmed}
	if got := h.events.types(); !equalStrings(got, want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for _, e := range h.events.appended {
		if e.SessionID != sessionID || e.EventID == "" {
			t.Fatalf("event not tagged with session/id: %+v", e)
		}
	}

	if len(h.results.records) != 1 {
		t.Fatalf("want 1 stored result, got %d", len(h.results.records))
	}
	rec := h.results.records[0]
	if rec.Label != 1 || rec.MoldSide != "Left" || rec.Result != "success" || rec.Reason != autotest.ReasonComplete ||
		!rec.AutoConfirmed || rec.Manual || rec.SessionID != sessionID || rec.StartTemperature != 26.5 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	info := h.svc.SessionInfo(thermocouple.SideLeft)
	if info.State != "idle" || info.Tested != 1 || info.Total != 3 {
		t.Fatalf("unexpected session info: %+v", info)
	}
	if len(info.Ordering) != 1 || info.Ordering[0] != 2 {
		t.Fatalf("ordering: got %v, want [2]", info.Ordering)
	}
}

func TestTestingService_FaultedSideSuppressesTemperatures(t *testing.T) {
	h := newHarness(t)
	h.sides[thermocouple.SideLeft] = "Overheat"

	h.ticks(6)
	h.temps[1] += 5
	h.ticks(3)

	if got := h.events.types(); len(got) != 0 {
		t.Fatalf("no test expected on a faulted side, got %v", got)
	}
	tc, _ := h.plant.registry.Get(1)
	if _, ok := tc.Temperature(); ok {
		t.Fatalf("temperature must be null while the side is faulted")
	}
	if !tc.IsOK() {
		t.Fatalf("status still comes from the reading")
	}
}

func TestTestingService_MissingSideStateCountsAsFault(t *testing.T) {
	h := newHarness(t)
	delete(h.sides, thermocouple.SideRight)
	h.ticks(1)

	tc, _ := h.plant.registry.Get(3)
	if _, ok := tc.Temperature(); ok {
		t.Fatalf("temperature must be null without a side state")
	}
	tc, _ = h.plant.registry.Get(1)
	if _, ok := tc.Temperature(); !ok {
		t.Fatalf("healthy side keeps its temperatures")
	}
}

func TestTestingService_AbsentLabelKeepsHistoryAligned(t *testing.T) {
	h := newHarness(t)
	h.ticks(3)
	h.absent[2] = true
	h.ticks(1)
	delete(h.absent, 2)
	h.ticks(2)

	one, _ := h.plant.registry.Get(1)
	two, _ := h.plant.registry.Get(2)
	if one.History().Len() != two.History().Len() {
		t.Fatalf("history lengths differ: %d vs %d", one.History().Len(), two.History().Len())
	}
	gap := two.History().At(3)
	if gap.Valid || !gap.Time.Equal(one.History().At(3).Time) {
		t.Fatalf("absent reading should be an invalid sample at the batch time, got %+v", gap)
	}
	if !two.IsOK() {
		t.Fatalf("status must survive an absent reading")
	}
}

func TestTestingService_DisconnectAbortsRunningTest(t *testing.T) {
	h := newHarness(t)
	h.detect(1)

	h.codes[1] = thermocouple.CodeDisconnected
	h.ticks(1)

	want := []string{models.EventTestStarted, models.EventTestAborted}
	if got := h.events.types(); !equalStrings(got, want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	if len(h.results.records) != 0 {
		t.Fatalf("aborted test must not be stored")
	}
	if got := h.svc.SessionInfo("").State; got != "idle" {
		t.Fatalf("state: got %q, want idle", got)
	}
}

func TestTestingService_OutOfOrderSuccessNeedsOperator(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.ConfirmTest(ctx, "success"); !errors.Is(err, autotest.ErrNoPendingTest) {
		t.Fatalf("expected ErrNoPendingTest, got %v", err)
	}

	h.detect(2)
	h.temps[2] = 40
	h.ticks(1)

	info := h.svc.SessionInfo(thermocouple.SideLeft)
	if info.State != "pending_confirmation" || info.Pending == nil || info.Pending.Label != 2 {
		t.Fatalf("expected test of 2 awaiting confirmation, got %+v", info)
	}
	if len(h.results.records) != 0 {
		t.Fatalf("pending test must not be stored yet")
	}

	if _, err := h.svc.ConfirmTest(ctx, "maybe"); err == nil {
		t.Fatalf("expected invalid result error")
	}

	got, err := h.svc.ConfirmTest(ctx, "fail")
	if err != nil {
		t.Fatalf("ConfirmTest: %v", err)
	}
	if got.Label != 2 || got.Result != autotest.ResultFail {
		t.Fatalf("unexpected confirmed test: %+v", got)
	}
	if len(h.results.records) != 1 || h.results.records[0].Result != "fail" || h.results.records[0].AutoConfirmed {
		t.Fatalf("unexpected records: %+v", h.results.records)
	}
}

func TestTestingService_ManualTest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.ticks(1)

	if _, err := h.svc.StartManualTest(ctx, 99); !errors.Is(err, ErrUnknownSensor) {
		t.Fatalf("expected ErrUnknownSensor, got %v", err)
	}

	info, err := h.svc.StartManualTest(ctx, 3)
	if err != nil {
		t.Fatalf("StartManualTest: %v", err)
	}
	if !info.Manual || info.Label != 3 || info.Side != thermocouple.SideRight || info.StartTemperature != 25 {
		t.Fatalf("unexpected manual test: %+v", info)
	}
	if mode := h.svc.SessionInfo("").Mode; mode != modeManual {
		t.Fatalf("mode: got %q, want %q", mode, modeManual)
	}
	if _, err := h.svc.StartManualTest(ctx, 1); !errors.Is(err, autotest.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	h.temps[3] = 30
	h.ticks(1)

	want := []string{models.EventManualStarted, models.EventTestCompleted, models.EventTestConfirmed}
	if got := h.events.types(); !equalStrings(got, want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	if len(h.results.records) != 1 || !h.results.records[0].Manual {
		t.Fatalf("unexpected records: %+v", h.results.records)
	}
	if mode := h.svc.SessionInfo("").Mode; mode != autotest.HorizontalFirst.String() {
		t.Fatalf("mode after manual test: %q", mode)
	}
}

func TestTestingService_ManualTestRejectsDisconnectedSensor(t *testing.T) {
	h := newHarness(t)
	h.codes[2] = thermocouple.CodeDisconnected
	h.ticks(1)

	_, err := h.svc.StartManualTest(context.Background(), 2)
	if !errors.Is(err, autotest.ErrSensorNotOK) {
		t.Fatalf("expected ErrSensorNotOK, got %v", err)
	}
	if len(h.events.appended) != 0 {
		t.Fatalf("rejection must not log an event")
	}
}

func TestTestingService_SetDirection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	d, ok := h.svc.SetDirection(ctx, "vertical")
	if !ok || d != autotest.VerticalFirst {
		t.Fatalf("SetDirection(vertical) = %v, %v", d, ok)
	}
	d, ok = h.svc.SetDirection(ctx, "sideways")
	if ok || d != autotest.VerticalFirst {
		t.Fatalf("SetDirection(sideways) = %v, %v", d, ok)
	}
	if got := h.events.types(); !equalStrings(got, []string{models.EventDirectionChange}) {
		t.Fatalf("events: %v", got)
	}
	// Sensor 2 sits higher than 1, so it leads vertically.
	h.ticks(1)
	if got := h.svc.SessionInfo(thermocouple.SideLeft).Ordering; len(got) != 2 || got[0] != 2 {
		t.Fatalf("vertical ordering: %v", got)
	}
}

func TestTestingService_Reset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.svc.SessionInfo("").SessionID

	h.detect(1)
	h.temps[1] = 31
	h.ticks(1)
	h.svc.SetDirection(ctx, "vertical")
	h.events.reset()

	id, err := h.svc.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if id == "" || id == first {
		t.Fatalf("expected a new session id, got %q (was %q)", id, first)
	}
	info := h.svc.SessionInfo("")
	if info.SessionID != id || info.Tested != 0 || info.Direction != autotest.HorizontalFirst || info.State != "idle" {
		t.Fatalf("unexpected session after reset: %+v", info)
	}
	if got := h.events.types(); !equalStrings(got, []string{models.EventSessionStart}) {
		t.Fatalf("events: %v", got)
	}
}

func TestTestingService_PersistenceErrorDoesNotStopSession(t *testing.T) {
	h := newHarness(t)
	h.results.err = errors.New("disk full")
	h.events.appendErr = errors.New("disk full")

	h.ticks(6)
	h.temps[1] += 1.5
	if err := h.tick(); err == nil {
		t.Fatalf("expected persistence error")
	}
	h.temps[1] = 31
	if err := h.tick(); err == nil {
		t.Fatalf("expected persistence error")
	}
	info := h.svc.SessionInfo("")
	if info.Tested != 1 || info.State != "idle" {
		t.Fatalf("session must progress regardless: %+v", info)
	}
}
