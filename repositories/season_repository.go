package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/ladder-system/models"
	"github.com/lib/pq"
)

var (
	ErrSeasonNotFound      = errors.New("season not found")
	ErrSeasonAlreadyActive = errors.New("an active season already exists")
)

type SeasonRepository interface {
	Create(ctx context.Context, season *models.Season) error
	GetByID(ctx context.Context, id int) (*models.Season, error)
	// GetActive returns the single active season, ErrSeasonNotFound if none.
	GetActive(ctx context.Context) (*models.Season, error)
	Update(ctx context.Context, season *models.Season) error
}

type postgresSeasonRepository struct {
	db SQLExecutor
}

func NewPostgresSeasonRepository(db *sql.DB) SeasonRepository {
	return &postgresSeasonRepository{db: db}
}

const seasonColumns = `
	id, name, start_date, end_date, ended_at,
	is_active, is_ending, rating_locked, new_matches_blocked, warning_sent,
	initial_rating, k_factor_new, k_factor_established, established_threshold,
	warning_threshold_days, ending_threshold_days`

func scanSeason(row interface{ Scan(...interface{}) error }) (*models.Season, error) {
	s := &models.Season{}
	err := row.Scan(
		&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.EndedAt,
		&s.IsActive, &s.IsEnding, &s.RatingLocked, &s.NewMatchesBlocked, &s.WarningSent,
		&s.InitialRating, &s.KFactorNew, &s.KFactorEstablished, &s.EstablishedThreshold,
		&s.WarningThresholdDays, &s.EndingThresholdDays,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresSeasonRepository) Create(ctx context.Context, season *models.Season) error {
	query := `
		INSERT INTO seasons
			(name, start_date, end_date, is_active,
			 initial_rating, k_factor_new, k_factor_established, established_threshold,
			 warning_threshold_days, ending_threshold_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		season.Name,
		season.StartDate,
		season.EndDate,
		season.IsActive,
		season.InitialRating,
		season.KFactorNew,
		season.KFactorEstablished,
		season.EstablishedThreshold,
		season.WarningThresholdDays,
		season.EndingThresholdDays,
	).Scan(&season.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "seasons_single_active_idx" {
			return ErrSeasonAlreadyActive
		}
		return fmt.Errorf("failed to create season %q: %w", season.Name, err)
	}
	return nil
}

func (r *postgresSeasonRepository) GetByID(ctx context.Context, id int) (*models.Season, error) {
	query := `SELECT` + seasonColumns + ` FROM seasons WHERE id = $1`
	s, err := scanSeason(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("failed to scan season %d: %w", id, err)
	}
	return s, nil
}

func (r *postgresSeasonRepository) GetActive(ctx context.Context) (*models.Season, error) {
	query := `SELECT` + seasonColumns + ` FROM seasons WHERE is_active = TRUE LIMIT 1`
	s, err := scanSeason(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("failed to scan active season: %w", err)
	}
	return s, nil
}

func (r *postgresSeasonRepository) Update(ctx context.Context, season *models.Season) error {
	query := `
		UPDATE seasons SET
			name = $1, start_date = $2, end_date = $3, ended_at = $4,
			is_active = $5, is_ending = $6, rating_locked = $7,
			new_matches_blocked = $8, warning_sent = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		season.Name,
		season.StartDate,
		season.EndDate,
		season.EndedAt,
		season.IsActive,
		season.IsEnding,
		season.RatingLocked,
		season.NewMatchesBlocked,
		season.WarningSent,
		season.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update season %d: %w", season.ID, err)
	}
	return checkAffectedRows(result, ErrSeasonNotFound)
}
