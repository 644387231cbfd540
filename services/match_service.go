package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Dosada05/ladder-system/events"
	"github.com/Dosada05/ladder-system/gateway"
	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/repositories"
)

type OutcomeCode string

const (
	OutcomeWaitingOpponent OutcomeCode = "waiting_opponent"
	OutcomeStageAdvanced   OutcomeCode = "stage_advanced"
	OutcomeDraftMismatch   OutcomeCode = "draft_mismatch"
	OutcomeChoiceMismatch  OutcomeCode = "choice_mismatch"
	OutcomeStreamActive    OutcomeCode = "stream_active"
	OutcomeGameFinished    OutcomeCode = "game_finished"
	OutcomeMatchCompleted  OutcomeCode = "match_completed"
)

// Outcome tells the caller what a stage submission did: whether the match
// moved, and to where.
type Outcome struct {
	Code   OutcomeCode       `json:"code"`
	Stage  models.MatchStage `json:"stage"`
	Detail string            `json:"detail,omitempty"`
}

type CreateMatchParams struct {
	GuildID          int64
	ChannelID        int64
	Player1DiscordID int64
	Player1Name      string
	Player2DiscordID int64
	Player2Name      string
	Format           models.MatchFormat
}

type MatchService interface {
	CreateMatch(ctx context.Context, p CreateMatchParams) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListGames(ctx context.Context, matchID int) ([]*models.GameResult, error)

	// Paired stage submissions. Each returns an Outcome describing whether
	// the stage advanced or is still waiting for the other player.
	MarkReady(ctx context.Context, matchID, playerID int) (*Outcome, error)
	SubmitDraftLink(ctx context.Context, matchID, playerID int, link string) (*Outcome, error)
	ChooseFirstPlayer(ctx context.Context, matchID, playerID int, choice string) (*Outcome, error)
	ConfirmStream(ctx context.Context, matchID, playerID int, streamURL string) (*Outcome, error)
	// SubmitGameResult records the OPPONENT's raw time and restart count
	// for the current game, as observed by the submitting player.
	SubmitGameResult(ctx context.Context, matchID, playerID int, timeSeconds float64, restarts int, notes string) (*Outcome, error)

	// Referee-side operations.
	Freeze(ctx context.Context, matchID int, reason string) error
	Resume(ctx context.Context, matchID, refereeID int, details string) error
	Annul(ctx context.Context, matchID int, refereeID *int, reason string) error
	ReplayGame(ctx context.Context, matchID, gameNumber int) error
	OverwriteGameResult(ctx context.Context, matchID int, result *models.GameResult) error
}

type matchService struct {
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	seasonRepo repositories.SeasonRepository
	resultRepo repositories.GameResultRepository
	inputRepo  repositories.PendingInputRepository

	penaltySvc PenaltyService
	ratingSvc  RatingService
	checker    gateway.StreamChecker
	bus        *events.Bus

	// Non-empty list restricts draft links to these hosts.
	draftHosts []string

	locks  *matchLocker
	logger *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	seasonRepo repositories.SeasonRepository,
	resultRepo repositories.GameResultRepository,
	inputRepo repositories.PendingInputRepository,
	penaltySvc PenaltyService,
	ratingSvc RatingService,
	checker gateway.StreamChecker,
	bus *events.Bus,
	draftHosts []string,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		seasonRepo: seasonRepo,
		resultRepo: resultRepo,
		inputRepo:  inputRepo,
		penaltySvc: penaltySvc,
		ratingSvc:  ratingSvc,
		checker:    checker,
		bus:        bus,
		draftHosts: draftHosts,
		locks:      newMatchLocker(),
		logger:     logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, p CreateMatchParams) (*models.Match, error) {
	if !p.Format.Valid() {
		return nil, ErrInvalidFormat
	}
	if p.Player1DiscordID == p.Player2DiscordID {
		return nil, ErrSamePlayer
	}

	season, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrNoActiveSeason
		}
		return nil, err
	}
	if reason := season.BlockingReason(); reason != "" {
		return nil, fmt.Errorf("%w: %s", ErrSeasonClosed, reason)
	}

	player1, err := s.playerRepo.GetOrCreate(ctx, p.Player1DiscordID, p.Player1Name)
	if err != nil {
		return nil, err
	}
	player2, err := s.playerRepo.GetOrCreate(ctx, p.Player2DiscordID, p.Player2Name)
	if err != nil {
		return nil, err
	}

	for _, pl := range []*models.Player{player1, player2} {
		if _, err = s.matchRepo.GetActiveByPlayer(ctx, pl.ID); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrPlayerBusy, pl.Username)
		} else if !errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, err
		}
	}

	match := &models.Match{
		GuildID:      p.GuildID,
		ChannelID:    p.ChannelID,
		SeasonID:     season.ID,
		Player1ID:    player1.ID,
		Player2ID:    player2.ID,
		Format:       p.Format,
		Status:       models.MatchStatusWaiting,
		CurrentStage: models.StageWaitingReadiness,
		CurrentGame:  1,
	}
	if err = s.matchRepo.Create(ctx, match); err != nil {
		return nil, err
	}

	s.logger.Info("match created",
		"match_id", match.ID, "season_id", season.ID,
		"player1_id", player1.ID, "player2_id", player2.ID, "format", p.Format)
	s.bus.Publish(events.Event{Type: events.TypeMatchCreated, MatchID: match.ID, SeasonID: season.ID, Payload: match})
	return match, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.matchRepo.GetByID(ctx, matchID)
}

func (s *matchService) ListGames(ctx context.Context, matchID int) ([]*models.GameResult, error) {
	return s.resultRepo.ListByMatch(ctx, matchID)
}

// loadForPlayer fetches the match and enforces the common submission guards.
func (s *matchService) loadForPlayer(ctx context.Context, matchID, playerID int, stages ...models.MatchStage) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchFinished
	}
	if match.Status == models.MatchStatusIntervention {
		return nil, ErrMatchFrozen
	}
	if !match.HasPlayer(playerID) {
		return nil, ErrNotMatchParticipant
	}
	for _, stage := range stages {
		if match.CurrentStage == stage {
			return match, nil
		}
	}
	return nil, fmt.Errorf("%w: match is at %s", ErrWrongStage, match.CurrentStage)
}

func (s *matchService) advance(ctx context.Context, match *models.Match, stage models.MatchStage) error {
	match.CurrentStage = stage
	match.Status = models.StatusForStage(stage)
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return err
	}
	s.logger.Info("match stage advanced", "match_id", match.ID, "stage", stage)
	s.bus.Publish(events.Event{Type: events.TypeStageChanged, MatchID: match.ID, SeasonID: match.SeasonID, Payload: match})
	return nil
}

// pairSubmit records one player's half of a paired input and reports
// whether both halves are now present.
func (s *matchService) pairSubmit(ctx context.Context, match *models.Match, playerID int, kind models.PendingInputKind, value string) ([]*models.PendingInput, bool, error) {
	input := &models.PendingInput{
		MatchID:  match.ID,
		PlayerID: playerID,
		Kind:     kind,
		Value:    value,
	}
	if err := s.inputRepo.Upsert(ctx, input); err != nil {
		return nil, false, err
	}
	inputs, err := s.inputRepo.ListByMatchAndKind(ctx, match.ID, kind)
	if err != nil {
		return nil, false, err
	}
	return inputs, len(inputs) == 2, nil
}

func (s *matchService) MarkReady(ctx context.Context, matchID, playerID int) (*Outcome, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.loadForPlayer(ctx, matchID, playerID, models.StageWaitingReadiness)
	if err != nil {
		return nil, err
	}

	_, complete, err := s.pairSubmit(ctx, match, playerID, models.PendingReady, "ready")
	if err != nil {
		return nil, err
	}
	if !complete {
		return &Outcome{Code: OutcomeWaitingOpponent, Stage: match.CurrentStage}, nil
	}

	if err = s.inputRepo.ClearKind(ctx, matchID, models.PendingReady); err != nil {
		return nil, err
	}
	if err = s.advance(ctx, match, models.StageDraftVerification); err != nil {
		return nil, err
	}
	return &Outcome{Code: OutcomeStageAdvanced, Stage: match.CurrentStage}, nil
}

func (s *matchService) validDraftLink(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return false
	}
	if len(s.draftHosts) == 0 {
		return true
	}
	host := strings.ToLower(parsed.Host)
	for _, allowed := range s.draftHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func (s *matchService) SubmitDraftLink(ctx context.Context, matchID, playerID int, link string) (*Outcome, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.loadForPlayer(ctx, matchID, playerID, models.StageDraftVerification)
	if err != nil {
		return nil, err
	}

	link = strings.TrimSpace(link)
	if !s.validDraftLink(link) {
		return nil, ErrDraftLinkInvalid
	}

	inputs, complete, err := s.pairSubmit(ctx, match, playerID, models.PendingDraftLink, link)
	if err != nil {
		return nil, err
	}
	if !complete {
		return &Outcome{Code: OutcomeWaitingOpponent, Stage: match.CurrentStage}, nil
	}

	// Both links are in. They must be byte-identical, otherwise both are
	// discarded and the players try again. Retries are unlimited.
	if inputs[0].Value != inputs[1].Value {
		if err = s.inputRepo.ClearKind(ctx, matchID, models.PendingDraftLink); err != nil {
			return nil, err
		}
		s.logger.Info("draft links did not match", "match_id", matchID)
		return &Outcome{
			Code:   OutcomeDraftMismatch,
			Stage:  match.CurrentStage,
			Detail: "submitted draft links differ, submit again",
		}, nil
	}

	match.DraftLink = &inputs[0].Value
	if err = s.inputRepo.ClearKind(ctx, matchID, models.PendingDraftLink); err != nil {
		return nil, err
	}
	if err = s.advance(ctx, match, models.StageFirstPlayerSelection); err != nil {
		return nil, err
	}
	return &Outcome{Code: OutcomeStageAdvanced, Stage: match.CurrentStage}, nil
}

func (s *matchService) ChooseFirstPlayer(ctx context.Context, matchID, playerID int, choice string) (*Outcome, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.loadForPlayer(ctx, matchID, playerID, models.StageFirstPlayerSelection)
	if err != nil {
		return nil, err
	}
	if choice != models.ChoicePlayer1First && choice != models.ChoicePlayer2First {
		return nil, ErrInvalidFirstChoice
	}

	inputs, complete, err := s.pairSubmit(ctx, match, playerID, models.PendingFirstChoice, choice)
	if err != nil {
		return nil, err
	}
	if !complete {
		return &Outcome{Code: OutcomeWaitingOpponent, Stage: match.CurrentStage}, nil
	}

	if inputs[0].Value != inputs[1].Value {
		if err = s.inputRepo.ClearKind(ctx, matchID, models.PendingFirstChoice); err != nil {
			return nil, err
		}
		return &Outcome{
			Code:   OutcomeChoiceMismatch,
			Stage:  match.CurrentStage,
			Detail: "players disagree on who goes first, choose again",
		}, nil
	}

	firstID := match.Player1ID
	if inputs[0].Value == models.ChoicePlayer2First {
		firstID = match.Player2ID
	}
	match.FirstPlayerID = &firstID
	if err = s.inputRepo.ClearKind(ctx, matchID, models.PendingFirstChoice); err != nil {
		return nil, err
	}
	if err = s.advance(ctx, match, models.StageGamePreparation); err != nil {
		return nil, err
	}
	return &Outcome{Code: OutcomeStageAdvanced, Stage: match.CurrentStage}, nil
}

func (s *matchService) ConfirmStream(ctx context.Context, matchID, playerID int, streamURL string) (*Outcome, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.loadForPlayer(ctx, matchID, playerID, models.StageGamePreparation)
	if err != nil {
		return nil, err
	}

	// Only the designated first player's stream is gated: it must be off
	// before their run starts. The opponent just confirms.
	if match.FirstPlayerID != nil && *match.FirstPlayerID == playerID {
		inactive, err := s.checker.IsInactive(ctx, streamURL)
		if err != nil {
			return nil, fmt.Errorf("stream verification failed: %w", err)
		}
		if !inactive {
			return &Outcome{
				Code:   OutcomeStreamActive,
				Stage:  match.CurrentStage,
				Detail: "stream is still active, stop it and confirm again",
			}, nil
		}
	}

	_, complete, err := s.pairSubmit(ctx, match, playerID, models.PendingStreamReady, streamURL)
	if err != nil {
		return nil, err
	}
	if !complete {
		return &Outcome{Code: OutcomeWaitingOpponent, Stage: match.CurrentStage}, nil
	}

	if err = s.inputRepo.ClearKind(ctx, matchID, models.PendingStreamReady); err != nil {
		return nil, err
	}
	if err = s.advance(ctx, match, models.StageGameInProgress); err != nil {
		return nil, err
	}
	return &Outcome{Code: OutcomeStageAdvanced, Stage: match.CurrentStage}, nil
}

func (s *matchService) SubmitGameResult(ctx context.Context, matchID, playerID int, timeSeconds float64, restarts int, notes string) (*Outcome, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.loadForPlayer(ctx, matchID, playerID,
		models.StageGameInProgress, models.StageResultConfirmation)
	if err != nil {
		return nil, err
	}
	if timeSeconds <= 0 || restarts < 0 {
		return nil, ErrInvalidResult
	}

	settings, err := s.penaltySvc.SettingsFor(ctx, match.GuildID)
	if err != nil {
		return nil, err
	}
	penalty := s.penaltySvc.TotalPenalty(settings, restarts)
	finalTime := timeSeconds + penalty

	existing, err := s.resultRepo.Get(ctx, matchID, match.CurrentGame)
	if err != nil && !errors.Is(err, repositories.ErrGameResultNotFound) {
		return nil, err
	}

	// The submitter reports the opponent's run.
	opponentID := match.Opponent(playerID)
	result := &models.GameResult{MatchID: matchID, GameNumber: match.CurrentGame}
	if opponentID == match.Player1ID {
		if existing != nil && existing.Player1FinalTime != nil {
			return nil, ErrResultLocked
		}
		result.Player1Time = &timeSeconds
		result.Player1Restarts = restarts
		result.Player1Penalty = penalty
		result.Player1FinalTime = &finalTime
	} else {
		if existing != nil && existing.Player2FinalTime != nil {
			return nil, ErrResultLocked
		}
		result.Player2Time = &timeSeconds
		result.Player2Restarts = restarts
		result.Player2Penalty = penalty
		result.Player2FinalTime = &finalTime
	}
	if notes != "" {
		result.Notes = &notes
	}
	if err = s.resultRepo.Upsert(ctx, result); err != nil {
		return nil, err
	}

	if !result.IsConfirmed() {
		if match.CurrentStage != models.StageResultConfirmation {
			if err = s.advance(ctx, match, models.StageResultConfirmation); err != nil {
				return nil, err
			}
		}
		return &Outcome{Code: OutcomeWaitingOpponent, Stage: match.CurrentStage}, nil
	}

	return s.evaluateGame(ctx, match)
}

// evaluateGame runs after both halves of the current game's result are in:
// either the match is decided or play moves to the next game.
func (s *matchService) evaluateGame(ctx context.Context, match *models.Match) (*Outcome, error) {
	games, err := s.resultRepo.ListByMatch(ctx, match.ID)
	if err != nil {
		return nil, err
	}

	confirmed := 0
	p1Points, p2Points := 0.0, 0.0
	var p1Total, p2Total float64
	for _, g := range games {
		if !g.IsConfirmed() {
			continue
		}
		confirmed++
		p1Total += *g.Player1FinalTime
		p2Total += *g.Player2FinalTime
		switch winner := g.WinnerID(match); {
		case winner == nil:
			p1Points += 0.5
			p2Points += 0.5
		case *winner == match.Player1ID:
			p1Points++
		default:
			p2Points++
		}
	}

	maxGames := match.Format.MaxGames()
	decided := false
	var winnerID *int

	switch match.Format {
	case models.FormatBo1:
		decided = confirmed >= 1
		winnerID = pointsWinner(match, p1Points, p2Points)
	case models.FormatBo2:
		// Both games are always played, the lower combined final time wins.
		decided = confirmed >= 2
		if decided && p1Total != p2Total {
			id := match.Player1ID
			if p2Total < p1Total {
				id = match.Player2ID
			}
			winnerID = &id
		}
	case models.FormatBo3:
		decided = p1Points >= 2 || p2Points >= 2 || confirmed >= maxGames
		winnerID = pointsWinner(match, p1Points, p2Points)
	}

	if !decided {
		match.CurrentGame++
		if err = s.advance(ctx, match, models.StageGameInProgress); err != nil {
			return nil, err
		}
		return &Outcome{
			Code:   OutcomeGameFinished,
			Stage:  match.CurrentStage,
			Detail: fmt.Sprintf("game %d of %d", match.CurrentGame, maxGames),
		}, nil
	}

	now := time.Now()
	match.WinnerID = winnerID
	match.CurrentStage = models.StageMatchComplete
	match.Status = models.MatchStatusCompleted
	match.CompletedAt = &now
	if err = s.matchRepo.Update(ctx, match); err != nil {
		return nil, err
	}
	if err = s.inputRepo.ClearMatch(ctx, match.ID); err != nil {
		return nil, err
	}

	if err = s.ratingSvc.ApplyMatchResult(ctx, match); err != nil {
		// Completion stands even when the rating write fails.
		s.logger.Error("failed to apply match rating", "match_id", match.ID, "error", err)
	}

	s.logger.Info("match completed", "match_id", match.ID, "winner_id", winnerID)
	s.bus.Publish(events.Event{Type: events.TypeMatchCompleted, MatchID: match.ID, SeasonID: match.SeasonID, Payload: match})
	return &Outcome{Code: OutcomeMatchCompleted, Stage: match.CurrentStage}, nil
}

func pointsWinner(match *models.Match, p1, p2 float64) *int {
	switch {
	case p1 > p2:
		return &match.Player1ID
	case p2 > p1:
		return &match.Player2ID
	}
	return nil
}

func (s *matchService) Freeze(ctx context.Context, matchID int, reason string) error {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status.IsTerminal() {
		return ErrMatchFinished
	}
	if match.Status == models.MatchStatusIntervention {
		return ErrMatchFrozen
	}

	now := time.Now()
	frozen := match.CurrentStage
	match.Status = models.MatchStatusIntervention
	match.InterventionStage = &frozen
	match.InterventionReason = &reason
	match.InterventionAt = &now
	match.RefereeID = nil
	match.ResolutionDetails = nil
	match.InterventionResolvedAt = nil
	if err = s.matchRepo.Update(ctx, match); err != nil {
		return err
	}

	s.logger.Info("match frozen for referee intervention", "match_id", matchID, "stage", frozen)
	s.bus.Publish(events.Event{Type: events.TypeRefereeCalled, MatchID: matchID, SeasonID: match.SeasonID, Payload: match})
	return nil
}

func (s *matchService) Resume(ctx context.Context, matchID, refereeID int, details string) error {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != models.MatchStatusIntervention {
		return ErrNoInterventionState
	}
	if match.InterventionStage == nil {
		return ErrNoInterventionState
	}

	now := time.Now()
	stage := *match.InterventionStage
	match.CurrentStage = stage
	match.Status = models.StatusForStage(stage)
	match.RefereeID = &refereeID
	if details != "" {
		match.ResolutionDetails = &details
	}
	match.InterventionResolvedAt = &now
	if err = s.matchRepo.Update(ctx, match); err != nil {
		return err
	}

	s.logger.Info("match resumed", "match_id", matchID, "stage", stage, "referee_id", refereeID)
	s.bus.Publish(events.Event{Type: events.TypeStageChanged, MatchID: matchID, SeasonID: match.SeasonID, Payload: match})
	return nil
}

func (s *matchService) Annul(ctx context.Context, matchID int, refereeID *int, reason string) error {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status.IsTerminal() {
		return ErrMatchFinished
	}

	now := time.Now()
	match.Status = models.MatchStatusAnnulled
	match.AnnulReason = &reason
	match.CompletedAt = &now
	match.RefereeID = refereeID
	if err = s.matchRepo.Update(ctx, match); err != nil {
		return err
	}
	if err = s.inputRepo.ClearMatch(ctx, matchID); err != nil {
		return err
	}

	s.logger.Info("match annulled", "match_id", matchID, "reason", reason)
	s.bus.Publish(events.Event{Type: events.TypeMatchAnnulled, MatchID: matchID, SeasonID: match.SeasonID, Payload: match})
	return nil
}

// ReplayGame wipes a game's recorded result while the match is frozen, so
// that play restarts from that game once the intervention is resolved.
func (s *matchService) ReplayGame(ctx context.Context, matchID, gameNumber int) error {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != models.MatchStatusIntervention {
		return ErrNoInterventionState
	}
	if gameNumber < 1 || gameNumber > match.Format.MaxGames() {
		return ErrInvalidResult
	}

	if err = s.resultRepo.Reset(ctx, matchID, gameNumber); err != nil &&
		!errors.Is(err, repositories.ErrGameResultNotFound) {
		return err
	}

	stage := models.StageGameInProgress
	match.CurrentGame = gameNumber
	match.InterventionStage = &stage
	if err = s.matchRepo.Update(ctx, match); err != nil {
		return err
	}

	s.logger.Info("game marked for replay", "match_id", matchID, "game_number", gameNumber)
	return nil
}

func (s *matchService) OverwriteGameResult(ctx context.Context, matchID int, result *models.GameResult) error {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status.IsTerminal() {
		return ErrMatchFinished
	}
	if result.GameNumber < 1 || result.GameNumber > match.Format.MaxGames() {
		return ErrInvalidResult
	}

	result.MatchID = matchID
	if err = s.resultRepo.Upsert(ctx, result); err != nil {
		return err
	}
	s.logger.Info("game result overwritten by referee",
		"match_id", matchID, "game_number", result.GameNumber)
	return nil
}
