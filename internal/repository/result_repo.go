package repository

import (
	"context"
	"database/sql"

	"mold_autotest/internal/models"
)

type ResultSQLite struct {
	db *sql.DB
}

func NewResultSQLite(db *sql.DB) *ResultSQLite { return &ResultSQLite{db: db} }

const (
	insertResultSQL = `
		INSERT INTO test_results (session_id, label, mold_side, manual, result, reason,
			init_time, start_time, start_temp_c, confirmed_at, auto_confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectResultsSQL = `
		SELECT id, session_id, label, mold_side, manual, result, reason,
			init_time, start_time, start_temp_c, confirmed_at, auto_confirmed
		FROM test_results WHERE session_id=? ORDER BY id ASC
	`
)

// Append stores a confirmed test and returns its row id. Times are stored as UTC.
func (r *ResultSQLite) Append(ctx context.Context, t models.TestRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertResultSQL,
		t.SessionID,
		t.Label,
		t.MoldSide,
		t.Manual,
		t.Result,
		t.Reason,
		t.InitTime.UTC(),
		t.StartTime.UTC(),
		t.StartTemperature,
		t.ConfirmedAt.UTC(),
		t.AutoConfirmed,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListBySession returns the confirmed tests of one session in confirmation order.
func (r *ResultSQLite) ListBySession(ctx context.Context, sessionID string) ([]models.TestRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectResultsSQL, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TestRecord
	for rows.Next() {
		var t models.TestRecord
		if err := rows.Scan(
			&t.ID,
			&t.SessionID,
			&t.Label,
			&t.MoldSide,
			&t.Manual,
			&t.Result,
			&t.Reason,
			&t.InitTime,
			&t.StartTime,
			&t.StartTemperature,
			&t.ConfirmedAt,
			&t.AutoConfirmed,
		); err != nil {
			return nil, err
		}
		t.InitTime = t.InitTime.UTC()
		t.StartTime = t.StartTime.UTC()
		t.ConfirmedAt = t.ConfirmedAt.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
