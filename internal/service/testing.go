package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/logger"
	"mold_autotest/internal/models"
	"mold_autotest/internal/repository"
	"mold_autotest/internal/source"
	"mold_autotest/internal/thermocouple"
)

// ErrUnknownSensor is returned for labels that are not part of the mold layout.
var ErrUnknownSensor = errors.New("unknown thermocouple")

// codeAbsent is not a PLC code; it leaves the status of a sensor missing
// from a batch unchanged.
const codeAbsent = -1

// modeManual is reported as the session mode while a manual test runs.
const modeManual = "manual"

type TestingService struct {
	plant      *Plant
	eventRepo  repository.EventRepo
	resultRepo repository.ResultRepo
	log        *logger.Logger
}

func NewTestingService(plant *Plant, eventRepo repository.EventRepo, resultRepo repository.ResultRepo, log *logger.Logger) *TestingService {
	return &TestingService{plant: plant, eventRepo: eventRepo, resultRepo: resultRepo, log: log}
}

// outcome is a session event captured under the plant lock.
type outcome struct {
	kind autotest.EventKind
	auto bool
	test TestInfo
}

// Ingest applies one poll to the plant and advances the session. Temperatures
// of sensors on a faulted side are recorded as null. Persistence errors are
// returned after the in-memory state has moved on.
func (s *TestingService) Ingest(ctx context.Context, b source.Batch, sides map[thermocouple.Side]string) error {
	p := s.plant
	p.mu.Lock()
	p.sides = make(map[thermocouple.Side]string, len(sides))
	for side, state := range sides {
		p.sides[side] = state
	}

	for _, tc := range p.registry.All() {
		sample := thermocouple.Sample{Time: b.Time}
		r, ok := b.State[tc.Label]
		if !ok {
			// Keep every history on the same cadence.
			tc.Update(sample, codeAbsent)
			continue
		}
		if _, faulted := p.sideFault(tc.Side); !faulted && r.Temperature != nil {
			sample.Temp, sample.Valid = *r.Temperature, true
		}
		tc.Update(sample, r.Status)
	}

	events := p.session.Tick(p.registry.All(), p.thresholds())
	outcomes := make([]outcome, 0, len(events))
	for _, ev := range events {
		outcomes = append(outcomes, outcome{kind: ev.Kind, auto: ev.Auto, test: testInfo(ev.Test)})
	}
	sessionID := p.sessionID
	now := p.now().UTC()
	p.mu.Unlock()

	var errs []error
	for _, o := range outcomes {
		if err := s.record(ctx, sessionID, now, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StartManualTest starts a test on label at the operator's request.
func (s *TestingService) StartManualTest(ctx context.Context, label int) (TestInfo, error) {
	p := s.plant
	p.mu.Lock()
	tc, ok := p.registry.Get(label)
	if !ok {
		p.mu.Unlock()
		return TestInfo{}, fmt.Errorf("%w: %d", ErrUnknownSensor, label)
	}
	t, err := p.session.StartManualTest(tc)
	if err != nil {
		p.mu.Unlock()
		s.log.Warnw("manual_test_rejected", "label", label, "err", err)
		return TestInfo{}, err
	}
	info := testInfo(t)
	sessionID := p.sessionID
	now := p.now().UTC()
	p.mu.Unlock()

	s.log.Infow("manual_test_started", "session_id", sessionID, "label", info.Label, "side", info.Side,
		"start_temperature", info.StartTemperature)
	err = s.appendEvent(ctx, models.SessionEvent{
		SessionID:   sessionID,
		OccurredAt:  now,
		Type:        models.EventManualStarted,
		Description: fmt.Sprintf("Manual test started on TC %d (%s)", info.Label, info.Side),
		Metadata:    testMetadata(info),
	})
	return info, err
}

// ConfirmTest settles the test awaiting confirmation with the operator's verdict.
func (s *TestingService) ConfirmTest(ctx context.Context, result string) (TestInfo, error) {
	r, err := autotest.ParseResult(result)
	if err != nil {
		return TestInfo{}, err
	}

	p := s.plant
	p.mu.Lock()
	t, err := p.session.ConfirmTest(r)
	if err != nil {
		p.mu.Unlock()
		s.log.Warnw("confirm_rejected", "result", r, "err", err)
		return TestInfo{}, err
	}
	info := testInfo(t)
	sessionID := p.sessionID
	now := p.now().UTC()
	p.mu.Unlock()

	return info, s.record(ctx, sessionID, now, outcome{kind: autotest.EventConfirmed, test: info})
}

// SetDirection switches the ordering policy. Unrecognised values are ignored.
func (s *TestingService) SetDirection(ctx context.Context, v string) (autotest.Direction, bool) {
	p := s.plant
	p.mu.Lock()
	applied := p.session.ApplyDirection(v)
	d := p.session.Direction()
	sessionID := p.sessionID
	now := p.now().UTC()
	p.mu.Unlock()

	if !applied {
		s.log.Warnw("direction_ignored", "value", v, "direction", d)
		return d, false
	}
	s.log.Infow("direction_changed", "session_id", sessionID, "direction", d)
	if err := s.appendEvent(ctx, models.SessionEvent{
		SessionID:   sessionID,
		OccurredAt:  now,
		Type:        models.EventDirectionChange,
		Description: "Direction changed to " + d.String(),
		Metadata:    map[string]any{"direction": d.String()},
	}); err != nil {
		s.log.Errorw("append event failed", "err", err)
	}
	return d, true
}

// Reset discards the current session and opens a new one with the
// configured default direction. It returns the new session id.
func (s *TestingService) Reset(ctx context.Context) (string, error) {
	p := s.plant
	p.mu.Lock()
	p.newSession()
	sessionID := p.sessionID
	startedAt := p.session.StartedAt
	d := p.session.Direction()
	p.mu.Unlock()

	s.log.Infow("session_started", "session_id", sessionID, "direction", d)
	return sessionID, s.appendEvent(ctx, models.SessionEvent{
		SessionID:   sessionID,
		OccurredAt:  startedAt,
		Type:        models.EventSessionStart,
		Description: "Session started",
		Metadata:    map[string]any{"direction": d.String()},
	})
}

// SessionInfo summarises the session. The ordering is computed for side and
// is empty when side is not set.
func (s *TestingService) SessionInfo(side thermocouple.Side) SessionInfo {
	p := s.plant
	p.mu.Lock()
	defer p.mu.Unlock()

	sess := p.session
	info := SessionInfo{
		SessionID: p.sessionID,
		StartedAt: sess.StartedAt,
		State:     autotest.StateName(sess.State()),
		Mode:      sess.Direction().String(),
		Direction: sess.Direction(),
		Total:     p.registry.Len(),
	}
	if t, ok := sess.CurrentTest(); ok {
		cur := testInfo(t)
		info.Current = &cur
		if t.Manual {
			info.Mode = modeManual
		}
	}
	if t, ok := sess.CompletedTest(); ok {
		pending := testInfo(t)
		info.Pending = &pending
	}
	if side != "" {
		info.Ordering = sess.Ordering(p.registry.BySide(side))
	}
	for _, tc := range p.registry.All() {
		if sess.IsTested(tc.Label) {
			info.Tested++
		}
	}
	return info
}

// record logs an outcome and persists it; confirmations also store a TestRecord.
func (s *TestingService) record(ctx context.Context, sessionID string, now time.Time, o outcome) error {
	t := o.test
	kv := []any{"session_id", sessionID, "label", t.Label, "side", t.Side, "manual", t.Manual}

	ev := models.SessionEvent{SessionID: sessionID, OccurredAt: now, Metadata: testMetadata(t)}
	switch o.kind {
	case autotest.EventStarted:
		s.log.Infow("test_started", append(kv, "start_temperature", t.StartTemperature)...)
		ev.Type = models.EventTestStarted
		ev.Description = fmt.Sprintf("Heating detected on TC %d (%s)", t.Label, t.Side)
	case autotest.EventAborted:
		s.log.Warnw("test_aborted", kv...)
		ev.Type = models.EventTestAborted
		ev.Description = fmt.Sprintf("Test of TC %d aborted: thermocouple lost", t.Label)
	case autotest.EventCompleted:
		s.log.Infow("test_completed", append(kv, "result", t.Result, "reason", t.Reason)...)
		ev.Type = models.EventTestCompleted
		ev.Description = fmt.Sprintf("Test of TC %d completed: %s (%s)", t.Label, t.Result, t.Reason)
	case autotest.EventConfirmed:
		s.log.Infow("test_confirmed", append(kv, "result", t.Result, "auto", o.auto)...)
		ev.Type = models.EventTestConfirmed
		ev.Description = fmt.Sprintf("Test of TC %d confirmed: %s", t.Label, t.Result)
	}

	var errs []error
	if err := s.appendEvent(ctx, ev); err != nil {
		errs = append(errs, err)
	}
	if o.kind == autotest.EventConfirmed {
		if _, err := s.resultRepo.Append(ctx, models.TestRecord{
			SessionID:        sessionID,
			Label:            t.Label,
			MoldSide:         string(t.Side),
			Manual:           t.Manual,
			Result:           string(t.Result),
			Reason:           t.Reason,
			InitTime:         t.InitTime,
			StartTime:        t.StartTime,
			StartTemperature: t.StartTemperature,
			ConfirmedAt:      now,
			AutoConfirmed:    o.auto,
		}); err != nil {
			errs = append(errs, fmt.Errorf("store result of TC %d: %w", t.Label, err))
		}
	}
	return errors.Join(errs...)
}

func (s *TestingService) appendEvent(ctx context.Context, ev models.SessionEvent) error {
	ev.EventID = uuid.NewString()
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		return fmt.Errorf("append %s event: %w", ev.Type, err)
	}
	return nil
}

func testMetadata(t TestInfo) map[string]any {
	m := map[string]any{
		"label":             t.Label,
		"side":              string(t.Side),
		"manual":            t.Manual,
		"start_temperature": t.StartTemperature,
	}
	if t.Complete {
		m["result"] = string(t.Result)
		m["reason"] = t.Reason
	}
	return m
}
