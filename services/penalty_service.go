package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/repositories"
)

// Defaults applied when a guild has never configured penalties.
const (
	defaultFreeRestarts       = 1
	defaultFlatPenaltySeconds = 10
)

type PenaltyService interface {
	// SettingsFor returns the guild's penalty configuration, falling back
	// to the defaults when none has been saved.
	SettingsFor(ctx context.Context, guildID int64) (*models.PenaltySettings, error)
	UpdateSettings(ctx context.Context, settings *models.PenaltySettings) error
	// PenaltyFor returns the seconds charged for the restart with the given
	// 1-based index under the settings.
	PenaltyFor(settings *models.PenaltySettings, restartIndex int) float64
	// TotalPenalty returns the seconds charged for restartCount restarts.
	TotalPenalty(settings *models.PenaltySettings, restartCount int) float64
}

type penaltyService struct {
	settingsRepo repositories.PenaltySettingsRepository
}

func NewPenaltyService(settingsRepo repositories.PenaltySettingsRepository) PenaltyService {
	return &penaltyService{settingsRepo: settingsRepo}
}

func (s *penaltyService) SettingsFor(ctx context.Context, guildID int64) (*models.PenaltySettings, error) {
	settings, err := s.settingsRepo.GetByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrPenaltySettingsNotFound) {
			return &models.PenaltySettings{
				GuildID:            guildID,
				FreeRestarts:       defaultFreeRestarts,
				FlatPenaltySeconds: defaultFlatPenaltySeconds,
			}, nil
		}
		return nil, fmt.Errorf("failed to load penalty settings: %w", err)
	}
	return settings, nil
}

func (s *penaltyService) UpdateSettings(ctx context.Context, settings *models.PenaltySettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.settingsRepo.Upsert(ctx, settings)
}

func (s *penaltyService) PenaltyFor(settings *models.PenaltySettings, restartIndex int) float64 {
	if restartIndex <= settings.FreeRestarts {
		return 0
	}
	// Tiers are sorted ascending, the last tier whose threshold is reached
	// wins. A restart above the free allowance but below every tier falls
	// back to the flat rate.
	penalty := settings.FlatPenaltySeconds
	for _, tier := range settings.Tiers {
		if restartIndex >= tier.Threshold {
			penalty = tier.Seconds
		}
	}
	return penalty
}

func (s *penaltyService) TotalPenalty(settings *models.PenaltySettings, restartCount int) float64 {
	total := 0.0
	for i := 1; i <= restartCount; i++ {
		total += s.PenaltyFor(settings, i)
	}
	return total
}
