package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/ladder-system/models"
)

var ErrPenaltySettingsNotFound = errors.New("penalty settings not found")

type PenaltySettingsRepository interface {
	// GetByGuild returns the guild's settings, ErrPenaltySettingsNotFound
	// when the guild has never been configured.
	GetByGuild(ctx context.Context, guildID int64) (*models.PenaltySettings, error)
	Upsert(ctx context.Context, settings *models.PenaltySettings) error
}

type postgresPenaltySettingsRepository struct {
	db SQLExecutor
}

func NewPostgresPenaltySettingsRepository(db *sql.DB) PenaltySettingsRepository {
	return &postgresPenaltySettingsRepository{db: db}
}

func (r *postgresPenaltySettingsRepository) GetByGuild(ctx context.Context, guildID int64) (*models.PenaltySettings, error) {
	query := `
		SELECT id, guild_id, free_restarts, tiers, flat_penalty_seconds, description, updated_at
		FROM penalty_settings
		WHERE guild_id = $1`

	s := &models.PenaltySettings{}
	var tiersJSON []byte
	err := r.db.QueryRowContext(ctx, query, guildID).Scan(
		&s.ID, &s.GuildID, &s.FreeRestarts, &tiersJSON,
		&s.FlatPenaltySeconds, &s.Description, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPenaltySettingsNotFound
		}
		return nil, fmt.Errorf("failed to scan penalty settings for guild %d: %w", guildID, err)
	}
	if err = json.Unmarshal(tiersJSON, &s.Tiers); err != nil {
		return nil, fmt.Errorf("failed to decode penalty tiers for guild %d: %w", guildID, err)
	}
	return s, nil
}

func (r *postgresPenaltySettingsRepository) Upsert(ctx context.Context, settings *models.PenaltySettings) error {
	tiersJSON, err := json.Marshal(settings.Tiers)
	if err != nil {
		return fmt.Errorf("failed to encode penalty tiers: %w", err)
	}

	query := `
		INSERT INTO penalty_settings
			(guild_id, free_restarts, tiers, flat_penalty_seconds, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id) DO UPDATE SET
			free_restarts = EXCLUDED.free_restarts,
			tiers = EXCLUDED.tiers,
			flat_penalty_seconds = EXCLUDED.flat_penalty_seconds,
			description = EXCLUDED.description,
			updated_at = NOW()
		RETURNING id, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		settings.GuildID,
		settings.FreeRestarts,
		tiersJSON,
		settings.FlatPenaltySeconds,
		settings.Description,
	).Scan(&settings.ID, &settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert penalty settings for guild %d: %w", settings.GuildID, err)
	}
	return nil
}
