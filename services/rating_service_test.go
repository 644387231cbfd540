package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/ladder-system/models"
)

func newRatingFixture(t *testing.T) (RatingService, *fakeRatingRepo, *fakeSeasonRepo, *models.Season) {
	t.Helper()
	ratingRepo := newFakeRatingRepo()
	seasonRepo := newFakeSeasonRepo()
	playerRepo := newFakePlayerRepo()

	season := &models.Season{
		Name:                 "Season 1",
		StartDate:            time.Now().Add(-24 * time.Hour),
		EndDate:              time.Now().Add(30 * 24 * time.Hour),
		IsActive:             true,
		InitialRating:        1500,
		KFactorNew:           40,
		KFactorEstablished:   20,
		EstablishedThreshold: 10,
	}
	require.NoError(t, seasonRepo.Create(context.Background(), season))

	svc := NewRatingService(ratingRepo, seasonRepo, playerRepo, testLogger())
	return svc, ratingRepo, seasonRepo, season
}

func completedMatch(season *models.Season, winnerID *int) *models.Match {
	return &models.Match{
		ID:        1,
		SeasonID:  season.ID,
		Player1ID: 1,
		Player2ID: 2,
		WinnerID:  winnerID,
		Status:    models.MatchStatusCompleted,
	}
}

func TestExpectedScore(t *testing.T) {
	svc, _, _, _ := newRatingFixture(t)

	assert.InDelta(t, 0.5, svc.ExpectedScore(1500, 1500), 1e-9)
	// A 400 point edge gives roughly a 10:1 expectation.
	assert.InDelta(t, 1.0/11.0, svc.ExpectedScore(1100, 1500), 1e-9)
	assert.InDelta(t, 10.0/11.0, svc.ExpectedScore(1500, 1100), 1e-9)
}

func TestDeltaZeroSum(t *testing.T) {
	svc, _, _, _ := newRatingFixture(t)

	winDelta := svc.Delta(1500, 1500, 40, 1)
	lossDelta := svc.Delta(1500, 1500, 40, 0)
	assert.InDelta(t, 20, winDelta, 1e-9)
	assert.InDelta(t, -20, lossDelta, 1e-9)
	assert.InDelta(t, 0, winDelta+lossDelta, 1e-9)
}

func TestApplyMatchResultWin(t *testing.T) {
	svc, _, _, season := newRatingFixture(t)
	ctx := context.Background()

	winner := 1
	require.NoError(t, svc.ApplyMatchResult(ctx, completedMatch(season, &winner)))

	r1, err := svc.PlayerRating(ctx, 1, season.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1520, r1.Rating, 1e-9)
	assert.Equal(t, 1, r1.GamesPlayed)
	assert.Equal(t, 1, r1.Wins)
	assert.InDelta(t, 20, r1.LastChange, 1e-9)

	r2, err := svc.PlayerRating(ctx, 2, season.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1480, r2.Rating, 1e-9)
	assert.Equal(t, 1, r2.Losses)
}

func TestApplyMatchResultDraw(t *testing.T) {
	svc, _, _, season := newRatingFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.ApplyMatchResult(ctx, completedMatch(season, nil)))

	for _, playerID := range []int{1, 2} {
		r, err := svc.PlayerRating(ctx, playerID, season.ID)
		require.NoError(t, err)
		assert.InDelta(t, 1500, r.Rating, 1e-9)
		assert.Equal(t, 1, r.Draws)
	}
}

func TestApplyMatchResultUsesEstablishedKFactor(t *testing.T) {
	svc, ratingRepo, _, season := newRatingFixture(t)
	ctx := context.Background()

	// Player1 is past the established cutoff, player2 is brand new. Equal
	// ratings, player1 wins: gains K=20 while player2 drops K=40 worth.
	r1, err := ratingRepo.GetOrCreate(ctx, 1, season.ID, season.InitialRating)
	require.NoError(t, err)
	r1.GamesPlayed = 10
	require.NoError(t, ratingRepo.Update(ctx, r1))

	winner := 1
	require.NoError(t, svc.ApplyMatchResult(ctx, completedMatch(season, &winner)))

	r1, err = svc.PlayerRating(ctx, 1, season.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1510, r1.Rating, 1e-9)

	r2, err := svc.PlayerRating(ctx, 2, season.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1480, r2.Rating, 1e-9)
}

func TestApplyMatchResultSkipsWhenRatingLocked(t *testing.T) {
	svc, ratingRepo, seasonRepo, season := newRatingFixture(t)
	ctx := context.Background()

	season.RatingLocked = true
	require.NoError(t, seasonRepo.Update(ctx, season))

	winner := 1
	require.NoError(t, svc.ApplyMatchResult(ctx, completedMatch(season, &winner)))

	assert.Empty(t, ratingRepo.ratings, "no ratings rows should be touched")
}

func TestLeaderboardRanksByRating(t *testing.T) {
	ratingRepo := newFakeRatingRepo()
	seasonRepo := newFakeSeasonRepo()
	playerRepo := newFakePlayerRepo()
	svc := NewRatingService(ratingRepo, seasonRepo, playerRepo, testLogger())
	ctx := context.Background()

	names := []string{"alice", "bob", "carol"}
	scores := []float64{1480, 1600, 1520}
	for i, name := range names {
		p, err := playerRepo.GetOrCreate(ctx, int64(100+i), name)
		require.NoError(t, err)
		r, err := ratingRepo.GetOrCreate(ctx, p.ID, 1, scores[i])
		require.NoError(t, err)
		require.NoError(t, ratingRepo.Update(ctx, r))
	}

	entries, err := svc.Leaderboard(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "bob", entries[0].Player.Username)
	assert.Equal(t, "carol", entries[1].Player.Username)
	assert.Equal(t, "alice", entries[2].Player.Username)
}
