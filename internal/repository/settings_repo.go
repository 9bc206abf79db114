package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mold_autotest/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO msd_settings (id, detection_time_ms, detection_degrees, test_time_ms, test_degrees,
			tester_name, min_graph_c, max_graph_c, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			detection_time_ms=excluded.detection_time_ms,
			detection_degrees=excluded.detection_degrees,
			test_time_ms=excluded.test_time_ms,
			test_degrees=excluded.test_degrees,
			tester_name=excluded.tester_name,
			min_graph_c=excluded.min_graph_c,
			max_graph_c=excluded.max_graph_c,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT id, detection_time_ms, detection_degrees, test_time_ms, test_degrees,
			tester_name, min_graph_c, max_graph_c, updated_at
		FROM msd_settings WHERE id=?
	`
)

// Save updates or inserts the settings row (id always 1). Durations are
// stored as whole milliseconds.
func (r *SettingsSQLite) Save(ctx context.Context, s models.MSDConfig) error {
	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertSettingsSQL,
		settingsRowID,
		s.DetectionTime.Milliseconds(),
		s.DetectionDegrees,
		s.TestTime.Milliseconds(),
		s.TestDegrees,
		s.TesterName,
		s.MinGraphTemperature,
		s.MaxGraphTemperature,
		tsUTC,
	)
	return err
}

// Load fetches the settings row. ID is zero when nothing was saved yet.
func (r *SettingsSQLite) Load(ctx context.Context) (models.MSDConfig, error) {
	row := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID)

	var (
		s                models.MSDConfig
		detectMS, testMS int64
	)
	if err := row.Scan(
		&s.ID,
		&detectMS,
		&s.DetectionDegrees,
		&testMS,
		&s.TestDegrees,
		&s.TesterName,
		&s.MinGraphTemperature,
		&s.MaxGraphTemperature,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MSDConfig{}, nil
		}
		return models.MSDConfig{}, err
	}
	s.DetectionTime = time.Duration(detectMS) * time.Millisecond
	s.TestTime = time.Duration(testMS) * time.Millisecond
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
