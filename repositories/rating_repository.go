package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/ladder-system/models"
)

var ErrRatingNotFound = errors.New("rating not found")

type RatingRepository interface {
	// GetOrCreate returns the player's rating row for the season, creating
	// it at initialRating on first contact.
	GetOrCreate(ctx context.Context, playerID, seasonID int, initialRating float64) (*models.Rating, error)
	Get(ctx context.Context, playerID, seasonID int) (*models.Rating, error)
	Update(ctx context.Context, rating *models.Rating) error
	// ListBySeason returns ratings ordered by rating descending.
	ListBySeason(ctx context.Context, seasonID, limit int) ([]*models.Rating, error)
}

type postgresRatingRepository struct {
	db SQLExecutor
}

func NewPostgresRatingRepository(db *sql.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

const ratingColumns = `
	id, player_id, season_id, rating, games_played, wins, losses, draws,
	last_change, updated_at`

func scanRating(row interface{ Scan(...interface{}) error }) (*models.Rating, error) {
	rt := &models.Rating{}
	err := row.Scan(
		&rt.ID, &rt.PlayerID, &rt.SeasonID, &rt.Rating, &rt.GamesPlayed,
		&rt.Wins, &rt.Losses, &rt.Draws, &rt.LastChange, &rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *postgresRatingRepository) GetOrCreate(ctx context.Context, playerID, seasonID int, initialRating float64) (*models.Rating, error) {
	query := `
		INSERT INTO ratings (player_id, season_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, season_id) DO UPDATE SET player_id = EXCLUDED.player_id
		RETURNING ` + ratingColumns

	rt, err := scanRating(r.db.QueryRowContext(ctx, query, playerID, seasonID, initialRating))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create rating for player %d season %d: %w",
			playerID, seasonID, err)
	}
	return rt, nil
}

func (r *postgresRatingRepository) Get(ctx context.Context, playerID, seasonID int) (*models.Rating, error) {
	query := `SELECT` + ratingColumns + ` FROM ratings WHERE player_id = $1 AND season_id = $2`
	rt, err := scanRating(r.db.QueryRowContext(ctx, query, playerID, seasonID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to scan rating for player %d season %d: %w", playerID, seasonID, err)
	}
	return rt, nil
}

func (r *postgresRatingRepository) Update(ctx context.Context, rating *models.Rating) error {
	query := `
		UPDATE ratings SET
			rating = $1, games_played = $2, wins = $3, losses = $4, draws = $5,
			last_change = $6, updated_at = NOW()
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		rating.Rating,
		rating.GamesPlayed,
		rating.Wins,
		rating.Losses,
		rating.Draws,
		rating.LastChange,
		rating.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rating %d: %w", rating.ID, err)
	}
	return checkAffectedRows(result, ErrRatingNotFound)
}

func (r *postgresRatingRepository) ListBySeason(ctx context.Context, seasonID, limit int) ([]*models.Rating, error) {
	query := `SELECT` + ratingColumns + `
		FROM ratings
		WHERE season_id = $1
		ORDER BY rating DESC, games_played DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings for season %d: %w", seasonID, err)
	}
	defer rows.Close()

	ratings := make([]*models.Rating, 0)
	for rows.Next() {
		rt, scanErr := scanRating(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", scanErr)
		}
		ratings = append(ratings, rt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rating rows iteration: %w", err)
	}
	return ratings, nil
}
