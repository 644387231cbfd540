package models

import "time"

type MatchFormat string

const (
	FormatBo1 MatchFormat = "bo1"
	FormatBo2 MatchFormat = "bo2"
	FormatBo3 MatchFormat = "bo3"
)

func (f MatchFormat) Valid() bool {
	return f == FormatBo1 || f == FormatBo2 || f == FormatBo3
}

// MaxGames возвращает максимальное число игр для формата.
func (f MatchFormat) MaxGames() int {
	switch f {
	case FormatBo1:
		return 1
	case FormatBo2:
		return 2
	case FormatBo3:
		return 3
	}
	return 0
}

type MatchStatus string

const (
	MatchStatusWaiting      MatchStatus = "waiting"
	MatchStatusActive       MatchStatus = "active"
	MatchStatusIntervention MatchStatus = "referee_intervention"
	MatchStatusCompleted    MatchStatus = "completed"
	MatchStatusAnnulled     MatchStatus = "annulled"
)

// IsTerminal reports whether the match can no longer be mutated.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusAnnulled
}

type MatchStage string

const (
	StageWaitingReadiness     MatchStage = "waiting_readiness"
	StageDraftVerification    MatchStage = "draft_verification"
	StageFirstPlayerSelection MatchStage = "first_player_selection"
	StageGamePreparation      MatchStage = "game_preparation"
	StageGameInProgress       MatchStage = "game_in_progress"
	StageResultConfirmation   MatchStage = "result_confirmation"
	StageMatchComplete        MatchStage = "match_complete"
)

// stageOrder задает единственный допустимый порядок этапов.
var stageOrder = map[MatchStage]int{
	StageWaitingReadiness:     0,
	StageDraftVerification:    1,
	StageFirstPlayerSelection: 2,
	StageGamePreparation:      3,
	StageGameInProgress:       4,
	StageResultConfirmation:   5,
	StageMatchComplete:        6,
}

// StageRank returns the position of the stage in the protocol ordering,
// or -1 for an unknown stage.
func StageRank(s MatchStage) int {
	rank, ok := stageOrder[s]
	if !ok {
		return -1
	}
	return rank
}

// StatusForStage возвращает активный статус, соответствующий этапу.
func StatusForStage(stage MatchStage) MatchStatus {
	switch stage {
	case StageWaitingReadiness:
		return MatchStatusWaiting
	case StageMatchComplete:
		return MatchStatusCompleted
	default:
		return MatchStatusActive
	}
}

// Match is a single ladder contest between two players. The intervention
// fields form an overlay: while a referee case is open, Status is
// MatchStatusIntervention and CurrentStage keeps the frozen pre-call stage.
type Match struct {
	ID            int         `json:"id"`
	GuildID       int64       `json:"guild_id"`
	ChannelID     int64       `json:"channel_id"`
	SeasonID      int         `json:"season_id"`
	Player1ID     int         `json:"player1_id"`
	Player2ID     int         `json:"player2_id"`
	Format        MatchFormat `json:"format"`
	Status        MatchStatus `json:"status"`
	CurrentStage  MatchStage  `json:"current_stage"`
	DraftLink     *string     `json:"draft_link,omitempty"`
	FirstPlayerID *int        `json:"first_player_id,omitempty"`
	WinnerID      *int        `json:"winner_id,omitempty"`
	AnnulReason   *string     `json:"annul_reason,omitempty"`
	CurrentGame   int         `json:"current_game"`
	Version       int         `json:"-"`
	CreatedAt     time.Time   `json:"created_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`

	// Referee intervention overlay.
	RefereeID              *int        `json:"referee_id,omitempty"`
	InterventionReason     *string     `json:"intervention_reason,omitempty"`
	InterventionStage      *MatchStage `json:"intervention_stage,omitempty"`
	InterventionAt         *time.Time  `json:"intervention_at,omitempty"`
	ResolutionDetails      *string     `json:"resolution_details,omitempty"`
	InterventionResolvedAt *time.Time  `json:"intervention_resolved_at,omitempty"`
}

// HasPlayer reports whether the given player id is one of the two sides.
func (m *Match) HasPlayer(playerID int) bool {
	return playerID == m.Player1ID || playerID == m.Player2ID
}

// Opponent returns the other side's player id.
func (m *Match) Opponent(playerID int) int {
	if playerID == m.Player1ID {
		return m.Player2ID
	}
	return m.Player1ID
}
