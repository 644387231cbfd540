package models

import "time"

type PendingInputKind string

const (
	PendingReady       PendingInputKind = "ready"
	PendingDraftLink   PendingInputKind = "draft_link"
	PendingFirstChoice PendingInputKind = "first_choice"
	PendingStreamReady PendingInputKind = "stream_ready"
)

// FirstPlayerChoice values stored for PendingFirstChoice inputs.
const (
	ChoicePlayer1First = "player1_first"
	ChoicePlayer2First = "player2_first"
)

// PendingInput is one player's half of a paired stage submission (readiness,
// draft link, first-player choice or stream confirmation), persisted so it
// survives process restarts.
type PendingInput struct {
	ID        int              `json:"id"`
	MatchID   int              `json:"match_id"`
	PlayerID  int              `json:"player_id"`
	Kind      PendingInputKind `json:"kind"`
	Value     string           `json:"value"`
	CreatedAt time.Time        `json:"created_at"`
}
