package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageRankOrdering(t *testing.T) {
	stages := []MatchStage{
		StageWaitingReadiness,
		StageDraftVerification,
		StageFirstPlayerSelection,
		StageGamePreparation,
		StageGameInProgress,
		StageResultConfirmation,
		StageMatchComplete,
	}
	for i := 1; i < len(stages); i++ {
		assert.Less(t, StageRank(stages[i-1]), StageRank(stages[i]))
	}
	assert.Equal(t, -1, StageRank("unknown"))
}

func TestStatusForStage(t *testing.T) {
	assert.Equal(t, MatchStatusWaiting, StatusForStage(StageWaitingReadiness))
	assert.Equal(t, MatchStatusActive, StatusForStage(StageDraftVerification))
	assert.Equal(t, MatchStatusActive, StatusForStage(StageResultConfirmation))
	assert.Equal(t, MatchStatusCompleted, StatusForStage(StageMatchComplete))
}

func TestMatchStatusIsTerminal(t *testing.T) {
	assert.True(t, MatchStatusCompleted.IsTerminal())
	assert.True(t, MatchStatusAnnulled.IsTerminal())
	assert.False(t, MatchStatusWaiting.IsTerminal())
	assert.False(t, MatchStatusActive.IsTerminal())
	assert.False(t, MatchStatusIntervention.IsTerminal())
}

func TestFormatMaxGames(t *testing.T) {
	assert.Equal(t, 1, FormatBo1.MaxGames())
	assert.Equal(t, 2, FormatBo2.MaxGames())
	assert.Equal(t, 3, FormatBo3.MaxGames())
	assert.Equal(t, 0, MatchFormat("bo5").MaxGames())
	assert.False(t, MatchFormat("bo5").Valid())
}

func TestMatchOpponent(t *testing.T) {
	m := &Match{Player1ID: 7, Player2ID: 9}
	assert.Equal(t, 9, m.Opponent(7))
	assert.Equal(t, 7, m.Opponent(9))
	assert.True(t, m.HasPlayer(7))
	assert.False(t, m.HasPlayer(8))
}

func TestGameResultWinner(t *testing.T) {
	m := &Match{Player1ID: 1, Player2ID: 2}
	f := func(v float64) *float64 { return &v }

	g := &GameResult{Player1FinalTime: f(305), Player2FinalTime: f(290)}
	if assert.NotNil(t, g.WinnerID(m)) {
		assert.Equal(t, 2, *g.WinnerID(m))
	}

	tie := &GameResult{Player1FinalTime: f(300), Player2FinalTime: f(300)}
	assert.Nil(t, tie.WinnerID(m))

	half := &GameResult{Player1FinalTime: f(300)}
	assert.False(t, half.IsConfirmed())
	assert.Nil(t, half.WinnerID(m))
}
