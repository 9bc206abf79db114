package repository

import (
	"context"
	"database/sql"
	"time"

	"mold_autotest/internal/models"
)

// SettingsRepo persists the single row of autotest settings.
type SettingsRepo interface {
	Save(ctx context.Context, s models.MSDConfig) error
	Load(ctx context.Context) (models.MSDConfig, error)
}

// EventFilter narrows EventRepo.List. Zero fields do not filter.
type EventFilter struct {
	From      time.Time
	To        time.Time
	Type      string
	SessionID string
}

// EventRepo is the append-only session log.
type EventRepo interface {
	Append(ctx context.Context, e models.SessionEvent) error
	List(ctx context.Context, f EventFilter) ([]models.SessionEvent, error)
}

// ResultRepo stores confirmed tests.
type ResultRepo interface {
	Append(ctx context.Context, r models.TestRecord) (int64, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.TestRecord, error)
}

type Repository struct {
	SettingsRepo SettingsRepo
	EventRepo    EventRepo
	ResultRepo   ResultRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SettingsRepo: NewSettingsSQLite(db),
		EventRepo:    NewEventSQLite(db),
		ResultRepo:   NewResultSQLite(db),
	}
}
