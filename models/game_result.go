package models

import "time"

// GameResult is one game inside a match. Each side's figures are entered by
// the opposing player, so a half stays nil until the opponent submits it.
type GameResult struct {
	ID         int `json:"id"`
	MatchID    int `json:"match_id"`
	GameNumber int `json:"game_number"`

	// Player 1 figures, entered by player 2.
	Player1Time      *float64 `json:"player1_time,omitempty"`
	Player1Restarts  int      `json:"player1_restarts"`
	Player1Penalty   float64  `json:"player1_penalty"`
	Player1FinalTime *float64 `json:"player1_final_time,omitempty"`

	// Player 2 figures, entered by player 1.
	Player2Time      *float64 `json:"player2_time,omitempty"`
	Player2Restarts  int      `json:"player2_restarts"`
	Player2Penalty   float64  `json:"player2_penalty"`
	Player2FinalTime *float64 `json:"player2_final_time,omitempty"`

	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsConfirmed reports whether both halves of the game were entered.
func (g *GameResult) IsConfirmed() bool {
	return g.Player1FinalTime != nil && g.Player2FinalTime != nil
}

// WinnerID returns the match player id with the strictly lower final time,
// or nil for a tie or an unconfirmed game.
func (g *GameResult) WinnerID(m *Match) *int {
	if !g.IsConfirmed() {
		return nil
	}
	switch {
	case *g.Player1FinalTime < *g.Player2FinalTime:
		id := m.Player1ID
		return &id
	case *g.Player2FinalTime < *g.Player1FinalTime:
		id := m.Player2ID
		return &id
	}
	return nil
}
