package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mold_autotest/internal/models"
	"mold_autotest/internal/repository"
	"mold_autotest/internal/repository/db"
)

// TestSQLite_RoundTrip runs the repositories against a real database file.
func TestSQLite_RoundTrip(t *testing.T) {
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "autotest.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	repos := repository.NewRepository(conn)

	// settings
	s := sampleSettings()
	if err := repos.SettingsRepo.Save(ctx, s); err != nil {
		t.Fatalf("Save settings: %v", err)
	}
	s.TesterName = "Bo"
	if err := repos.SettingsRepo.Save(ctx, s); err != nil {
		t.Fatalf("Save settings again: %v", err)
	}
	got, err := repos.SettingsRepo.Load(ctx)
	if err != nil {
		t.Fatalf("Load settings: %v", err)
	}
	if got.ID != 1 || got.TesterName != "Bo" || got.DetectionTime != 1500*time.Millisecond {
		t.Fatalf("unexpected settings: %+v", got)
	}

	// events
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, ev := range []models.SessionEvent{
		{SessionID: "a", OccurredAt: base, Type: models.EventSessionStart, Description: "start"},
		{SessionID: "a", OccurredAt: base.Add(time.Minute), Type: models.EventTestStarted, Description: "TC 1", Metadata: map[string]any{"label": 1}},
		{SessionID: "b", OccurredAt: base.Add(2 * time.Minute), Type: models.EventTestStarted, Description: "TC 2"},
	} {
		if err := repos.EventRepo.Append(ctx, ev); err != nil {
			t.Fatalf("Append event %d: %v", i, err)
		}
	}
	evs, err := repos.EventRepo.List(ctx, repository.EventFilter{Type: "test_started"})
	if err != nil {
		t.Fatalf("List events: %v", err)
	}
	if len(evs) != 2 || evs[0].Description != "TC 1" {
		t.Fatalf("unexpected events: %+v", evs)
	}
	evs, err = repos.EventRepo.List(ctx, repository.EventFilter{SessionID: "a", From: base.Add(30 * time.Second)})
	if err != nil {
		t.Fatalf("List events: %v", err)
	}
	if len(evs) != 1 || evs[0].Type != models.EventTestStarted {
		t.Fatalf("unexpected filtered events: %+v", evs)
	}

	// results
	rec := models.TestRecord{
		SessionID: "a", Label: 1, MoldSide: "Left", Result: "success", Reason: "complete",
		InitTime: base, StartTime: base, StartTemperature: 25, ConfirmedAt: base.Add(time.Minute),
	}
	id, err := repos.ResultRepo.Append(ctx, rec)
	if err != nil {
		t.Fatalf("Append result: %v", err)
	}
	recs, err := repos.ResultRepo.ListBySession(ctx, "a")
	if err != nil {
		t.Fatalf("List results: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != id || !recs[0].ConfirmedAt.Equal(rec.ConfirmedAt) {
		t.Fatalf("unexpected results: %+v", recs)
	}
}
