package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"mold_autotest/internal/config"
	"mold_autotest/internal/logger"
	"mold_autotest/internal/models"
	"mold_autotest/internal/repository"
)

type SettingsService struct {
	// updateMu serialises read-modify-save-apply of the settings.
	updateMu     sync.Mutex
	plant        *Plant
	settingsRepo repository.SettingsRepo
	eventRepo    repository.EventRepo
	log          *logger.Logger
}

func NewSettingsService(plant *Plant, settingsRepo repository.SettingsRepo, eventRepo repository.EventRepo, log *logger.Logger) *SettingsService {
	return &SettingsService{plant: plant, settingsRepo: settingsRepo, eventRepo: eventRepo, log: log}
}

// Get returns the settings in force.
func (s *SettingsService) Get() models.MSDConfig {
	s.plant.mu.Lock()
	defer s.plant.mu.Unlock()
	return s.plant.msd
}

// Load replaces the configured settings with the persisted ones, if any.
// Persisted settings that no longer validate are ignored with a warning.
func (s *SettingsService) Load(ctx context.Context) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	stored, err := s.settingsRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if stored.ID == 0 {
		return nil
	}
	if err := config.Validate(stored); err != nil {
		s.log.Warnw("stored settings rejected, keeping configured values", "err", err)
		return nil
	}

	s.plant.mu.Lock()
	s.plant.msd = stored
	s.plant.mu.Unlock()
	s.log.Infow("settings loaded", "settings", config.FormatSettings(stored))
	return nil
}

// Update parses params on top of the settings in force, persists the result
// and applies it from the next tick on. Nothing changes on error.
func (s *SettingsService) Update(ctx context.Context, params map[string]string) (models.MSDConfig, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	s.plant.mu.Lock()
	current := s.plant.msd
	sessionID := s.plant.sessionID
	now := s.plant.now().UTC()
	s.plant.mu.Unlock()

	next, err := config.ParseMSD(params, current)
	if err != nil {
		return current, err
	}
	next.ID = 1
	next.UpdatedAt = now
	if err := s.settingsRepo.Save(ctx, next); err != nil {
		return current, fmt.Errorf("save settings: %w", err)
	}

	s.plant.mu.Lock()
	s.plant.msd = next
	s.plant.mu.Unlock()

	formatted := config.FormatSettings(next)
	s.log.Infow("settings_changed", "session_id", sessionID, "settings", formatted)
	if err := s.eventRepo.Append(ctx, models.SessionEvent{
		EventID:     uuid.NewString(),
		SessionID:   sessionID,
		OccurredAt:  now,
		Type:        models.EventSettingsChange,
		Description: "Settings updated",
		Metadata:    formatted,
	}); err != nil {
		s.log.Errorw("append event failed", "err", err)
	}
	return next, nil
}
