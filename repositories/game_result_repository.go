package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/ladder-system/models"
)

var ErrGameResultNotFound = errors.New("game result not found")

type GameResultRepository interface {
	// Upsert creates the row for (matchID, gameNumber) on first submission
	// and fills in the missing half on the second.
	Upsert(ctx context.Context, result *models.GameResult) error
	Get(ctx context.Context, matchID, gameNumber int) (*models.GameResult, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.GameResult, error)
	// Reset clears both halves of a game so it can be replayed.
	Reset(ctx context.Context, matchID, gameNumber int) error
}

type postgresGameResultRepository struct {
	db SQLExecutor
}

func NewPostgresGameResultRepository(db *sql.DB) GameResultRepository {
	return &postgresGameResultRepository{db: db}
}

const gameResultColumns = `
	id, match_id, game_number,
	player1_time, player1_restarts, player1_penalty, player1_final_time,
	player2_time, player2_restarts, player2_penalty, player2_final_time,
	notes, created_at`

func scanGameResult(row interface{ Scan(...interface{}) error }) (*models.GameResult, error) {
	g := &models.GameResult{}
	err := row.Scan(
		&g.ID, &g.MatchID, &g.GameNumber,
		&g.Player1Time, &g.Player1Restarts, &g.Player1Penalty, &g.Player1FinalTime,
		&g.Player2Time, &g.Player2Restarts, &g.Player2Penalty, &g.Player2FinalTime,
		&g.Notes, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *postgresGameResultRepository) Upsert(ctx context.Context, result *models.GameResult) error {
	query := `
		INSERT INTO game_results
			(match_id, game_number,
			 player1_time, player1_restarts, player1_penalty, player1_final_time,
			 player2_time, player2_restarts, player2_penalty, player2_final_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (match_id, game_number) DO UPDATE SET
			player1_time       = COALESCE(EXCLUDED.player1_time, game_results.player1_time),
			player1_restarts   = CASE WHEN EXCLUDED.player1_time IS NULL THEN game_results.player1_restarts ELSE EXCLUDED.player1_restarts END,
			player1_penalty    = CASE WHEN EXCLUDED.player1_time IS NULL THEN game_results.player1_penalty ELSE EXCLUDED.player1_penalty END,
			player1_final_time = COALESCE(EXCLUDED.player1_final_time, game_results.player1_final_time),
			player2_time       = COALESCE(EXCLUDED.player2_time, game_results.player2_time),
			player2_restarts   = CASE WHEN EXCLUDED.player2_time IS NULL THEN game_results.player2_restarts ELSE EXCLUDED.player2_restarts END,
			player2_penalty    = CASE WHEN EXCLUDED.player2_time IS NULL THEN game_results.player2_penalty ELSE EXCLUDED.player2_penalty END,
			player2_final_time = COALESCE(EXCLUDED.player2_final_time, game_results.player2_final_time),
			notes              = COALESCE(EXCLUDED.notes, game_results.notes)
		RETURNING ` + gameResultColumns

	updated, err := scanGameResult(r.db.QueryRowContext(ctx, query,
		result.MatchID,
		result.GameNumber,
		result.Player1Time,
		result.Player1Restarts,
		result.Player1Penalty,
		result.Player1FinalTime,
		result.Player2Time,
		result.Player2Restarts,
		result.Player2Penalty,
		result.Player2FinalTime,
		result.Notes,
	))
	if err != nil {
		return fmt.Errorf("failed to upsert game result for match %d game %d: %w",
			result.MatchID, result.GameNumber, err)
	}
	*result = *updated
	return nil
}

func (r *postgresGameResultRepository) Get(ctx context.Context, matchID, gameNumber int) (*models.GameResult, error) {
	query := `SELECT` + gameResultColumns + ` FROM game_results WHERE match_id = $1 AND game_number = $2`
	g, err := scanGameResult(r.db.QueryRowContext(ctx, query, matchID, gameNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameResultNotFound
		}
		return nil, fmt.Errorf("failed to scan game result for match %d game %d: %w", matchID, gameNumber, err)
	}
	return g, nil
}

func (r *postgresGameResultRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.GameResult, error) {
	query := `SELECT` + gameResultColumns + ` FROM game_results WHERE match_id = $1 ORDER BY game_number ASC`
	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query game results for match %d: %w", matchID, err)
	}
	defer rows.Close()

	results := make([]*models.GameResult, 0)
	for rows.Next() {
		g, scanErr := scanGameResult(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan game result row: %w", scanErr)
		}
		results = append(results, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game result rows iteration: %w", err)
	}
	return results, nil
}

func (r *postgresGameResultRepository) Reset(ctx context.Context, matchID, gameNumber int) error {
	query := `
		UPDATE game_results SET
			player1_time = NULL, player1_restarts = 0, player1_penalty = 0, player1_final_time = NULL,
			player2_time = NULL, player2_restarts = 0, player2_penalty = 0, player2_final_time = NULL
		WHERE match_id = $1 AND game_number = $2`

	result, err := r.db.ExecContext(ctx, query, matchID, gameNumber)
	if err != nil {
		return fmt.Errorf("failed to reset game result for match %d game %d: %w", matchID, gameNumber, err)
	}
	return checkAffectedRows(result, ErrGameResultNotFound)
}
