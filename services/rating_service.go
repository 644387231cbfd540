package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/repositories"
)

// LeaderboardEntry is one row of the season standings.
type LeaderboardEntry struct {
	Rank   int            `json:"rank"`
	Player *models.Player `json:"player"`
	Rating *models.Rating `json:"rating"`
}

type RatingService interface {
	// ExpectedScore returns the Elo expectation of the first rating
	// against the second, in (0, 1).
	ExpectedScore(rating, opponentRating float64) float64
	// Delta returns the signed rating change for a result of 1 (win),
	// 0.5 (draw) or 0 (loss).
	Delta(rating, opponentRating, kFactor, result float64) float64
	// ApplyMatchResult updates both players' season ratings for a
	// completed match. A draw is a nil winner. When the season's rating
	// lock is set the call logs and returns without changes.
	ApplyMatchResult(ctx context.Context, match *models.Match) error
	Leaderboard(ctx context.Context, seasonID, limit int) ([]*LeaderboardEntry, error)
	PlayerRating(ctx context.Context, playerID, seasonID int) (*models.Rating, error)
}

type ratingService struct {
	ratingRepo repositories.RatingRepository
	seasonRepo repositories.SeasonRepository
	playerRepo repositories.PlayerRepository
	logger     *slog.Logger
}

func NewRatingService(
	ratingRepo repositories.RatingRepository,
	seasonRepo repositories.SeasonRepository,
	playerRepo repositories.PlayerRepository,
	logger *slog.Logger,
) RatingService {
	return &ratingService{
		ratingRepo: ratingRepo,
		seasonRepo: seasonRepo,
		playerRepo: playerRepo,
		logger:     logger,
	}
}

func (s *ratingService) ExpectedScore(rating, opponentRating float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opponentRating-rating)/400.0))
}

func (s *ratingService) Delta(rating, opponentRating, kFactor, result float64) float64 {
	return kFactor * (result - s.ExpectedScore(rating, opponentRating))
}

func (s *ratingService) ApplyMatchResult(ctx context.Context, match *models.Match) error {
	season, err := s.seasonRepo.GetByID(ctx, match.SeasonID)
	if err != nil {
		return fmt.Errorf("failed to load season %d: %w", match.SeasonID, err)
	}
	if season.RatingLocked {
		s.logger.Info("rating locked, skipping rating update",
			"match_id", match.ID, "season_id", season.ID)
		return nil
	}

	r1, err := s.ratingRepo.GetOrCreate(ctx, match.Player1ID, season.ID, season.InitialRating)
	if err != nil {
		return err
	}
	r2, err := s.ratingRepo.GetOrCreate(ctx, match.Player2ID, season.ID, season.InitialRating)
	if err != nil {
		return err
	}

	result1 := 0.5
	if match.WinnerID != nil {
		if *match.WinnerID == match.Player1ID {
			result1 = 1
		} else {
			result1 = 0
		}
	}
	result2 := 1 - result1

	delta1 := s.Delta(r1.Rating, r2.Rating, season.KFactorFor(r1.GamesPlayed), result1)
	delta2 := s.Delta(r2.Rating, r1.Rating, season.KFactorFor(r2.GamesPlayed), result2)

	r1.ApplyResult(result1, delta1)
	r2.ApplyResult(result2, delta2)

	if err = s.ratingRepo.Update(ctx, r1); err != nil {
		return err
	}
	if err = s.ratingRepo.Update(ctx, r2); err != nil {
		return err
	}

	s.logger.Info("ratings updated",
		"match_id", match.ID,
		"player1_id", match.Player1ID, "player1_delta", delta1,
		"player2_id", match.Player2ID, "player2_delta", delta2)
	return nil
}

func (s *ratingService) Leaderboard(ctx context.Context, seasonID, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	ratings, err := s.ratingRepo.ListBySeason(ctx, seasonID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(ratings))
	for _, rt := range ratings {
		ids = append(ids, rt.PlayerID)
	}
	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	entries := make([]*LeaderboardEntry, 0, len(ratings))
	for i, rt := range ratings {
		entries = append(entries, &LeaderboardEntry{
			Rank:   i + 1,
			Player: byID[rt.PlayerID],
			Rating: rt,
		})
	}
	return entries, nil
}

func (s *ratingService) PlayerRating(ctx context.Context, playerID, seasonID int) (*models.Rating, error) {
	return s.ratingRepo.Get(ctx, playerID, seasonID)
}
