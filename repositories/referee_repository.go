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
	ErrRefereeNotFound      = errors.New("referee not found")
	ErrRefereeAlreadyExists = errors.New("referee already registered in this guild")
)

type RefereeRepository interface {
	Create(ctx context.Context, referee *models.Referee) error
	GetByID(ctx context.Context, id int) (*models.Referee, error)
	GetByUsername(ctx context.Context, guildID int64, username string) (*models.Referee, error)
	ListByGuild(ctx context.Context, guildID int64, activeOnly bool) ([]*models.Referee, error)
	Update(ctx context.Context, referee *models.Referee) error
	// IncrementCounters bumps the resolved/annulled tallies atomically.
	IncrementCounters(ctx context.Context, refereeID, casesResolved, matchesAnnulled int) error
}

type postgresRefereeRepository struct {
	db SQLExecutor
}

func NewPostgresRefereeRepository(db *sql.DB) RefereeRepository {
	return &postgresRefereeRepository{db: db}
}

const refereeColumns = `
	id, discord_id, guild_id, username, is_active, is_admin,
	can_annul_matches, can_modify_results, can_resolve_disputes,
	cases_resolved, matches_annulled, password_hash, notes, created_at`

func scanReferee(row interface{ Scan(...interface{}) error }) (*models.Referee, error) {
	ref := &models.Referee{}
	err := row.Scan(
		&ref.ID, &ref.DiscordID, &ref.GuildID, &ref.Username, &ref.IsActive, &ref.IsAdmin,
		&ref.CanAnnulMatches, &ref.CanModifyResults, &ref.CanResolveDisputes,
		&ref.CasesResolved, &ref.MatchesAnnulled, &ref.PasswordHash, &ref.Notes, &ref.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *postgresRefereeRepository) Create(ctx context.Context, referee *models.Referee) error {
	query := `
		INSERT INTO referees
			(discord_id, guild_id, username, is_active, is_admin,
			 can_annul_matches, can_modify_results, can_resolve_disputes,
			 password_hash, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		referee.DiscordID,
		referee.GuildID,
		referee.Username,
		referee.IsActive,
		referee.IsAdmin,
		referee.CanAnnulMatches,
		referee.CanModifyResults,
		referee.CanResolveDisputes,
		referee.PasswordHash,
		referee.Notes,
	).Scan(&referee.ID, &referee.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "referees_guild_discord_key", "referees_guild_username_key":
				return ErrRefereeAlreadyExists
			}
		}
		return fmt.Errorf("failed to create referee %q: %w", referee.Username, err)
	}
	return nil
}

func (r *postgresRefereeRepository) GetByID(ctx context.Context, id int) (*models.Referee, error) {
	query := `SELECT` + refereeColumns + ` FROM referees WHERE id = $1`
	ref, err := scanReferee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefereeNotFound
		}
		return nil, fmt.Errorf("failed to scan referee %d: %w", id, err)
	}
	return ref, nil
}

func (r *postgresRefereeRepository) GetByUsername(ctx context.Context, guildID int64, username string) (*models.Referee, error) {
	query := `SELECT` + refereeColumns + ` FROM referees WHERE guild_id = $1 AND username = $2`
	ref, err := scanReferee(r.db.QueryRowContext(ctx, query, guildID, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefereeNotFound
		}
		return nil, fmt.Errorf("failed to scan referee %q: %w", username, err)
	}
	return ref, nil
}

func (r *postgresRefereeRepository) ListByGuild(ctx context.Context, guildID int64, activeOnly bool) ([]*models.Referee, error) {
	query := `SELECT` + refereeColumns + ` FROM referees WHERE guild_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY username ASC`

	rows, err := r.db.QueryContext(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query referees for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	referees := make([]*models.Referee, 0)
	for rows.Next() {
		ref, scanErr := scanReferee(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan referee row: %w", scanErr)
		}
		referees = append(referees, ref)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during referee rows iteration: %w", err)
	}
	return referees, nil
}

func (r *postgresRefereeRepository) Update(ctx context.Context, referee *models.Referee) error {
	query := `
		UPDATE referees SET
			username = $1, is_active = $2, is_admin = $3,
			can_annul_matches = $4, can_modify_results = $5, can_resolve_disputes = $6,
			password_hash = $7, notes = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		referee.Username,
		referee.IsActive,
		referee.IsAdmin,
		referee.CanAnnulMatches,
		referee.CanModifyResults,
		referee.CanResolveDisputes,
		referee.PasswordHash,
		referee.Notes,
		referee.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update referee %d: %w", referee.ID, err)
	}
	return checkAffectedRows(result, ErrRefereeNotFound)
}

func (r *postgresRefereeRepository) IncrementCounters(ctx context.Context, refereeID, casesResolved, matchesAnnulled int) error {
	query := `
		UPDATE referees SET
			cases_resolved = cases_resolved + $1,
			matches_annulled = matches_annulled + $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, casesResolved, matchesAnnulled, refereeID)
	if err != nil {
		return fmt.Errorf("failed to increment counters for referee %d: %w", refereeID, err)
	}
	return checkAffectedRows(result, ErrRefereeNotFound)
}
