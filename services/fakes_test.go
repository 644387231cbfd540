package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/repositories"
	"github.com/Dosada05/ladder-system/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	return &c
}

func (r *fakeMatchRepo) Create(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	match.ID = r.nextID
	match.Version = 1
	match.CreatedAt = time.Now()
	r.matches[match.ID] = cloneMatch(match)
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r *fakeMatchRepo) Update(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if stored.Version != match.Version {
		return repositories.ErrMatchVersionConflict
	}
	match.Version++
	r.matches[match.ID] = cloneMatch(match)
	return nil
}

func (r *fakeMatchRepo) ListActiveBySeason(_ context.Context, seasonID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.SeasonID == seasonID && !m.Status.IsTerminal() {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) GetActiveByPlayer(_ context.Context, playerID int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.HasPlayer(playerID) && !m.Status.IsTerminal() {
			return cloneMatch(m), nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) CountBySeasonAndStatus(_ context.Context, seasonID int, status *models.MatchStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.SeasonID == seasonID && (status == nil || m.Status == *status) {
			count++
		}
	}
	return count, nil
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	nextID  int
	players map[int64]*models.Player
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int64]*models.Player)}
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ID == id {
			c := *p
			return &c, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) GetByDiscordID(_ context.Context, discordID int64) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[discordID]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakePlayerRepo) GetOrCreate(_ context.Context, discordID int64, username string) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[discordID]; ok {
		p.Username = username
		c := *p
		return &c, nil
	}
	r.nextID++
	p := &models.Player{ID: r.nextID, DiscordID: discordID, Username: username, CreatedAt: time.Now()}
	r.players[discordID] = p
	c := *p
	return &c, nil
}

func (r *fakePlayerRepo) ListByIDs(_ context.Context, ids []int) ([]*models.Player, error) {
	var out []*models.Player
	for _, id := range ids {
		if p, err := r.GetByID(context.Background(), id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSeasonRepo struct {
	mu      sync.Mutex
	nextID  int
	seasons map[int]*models.Season
}

func newFakeSeasonRepo() *fakeSeasonRepo {
	return &fakeSeasonRepo{seasons: make(map[int]*models.Season)}
}

func (r *fakeSeasonRepo) Create(_ context.Context, season *models.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if season.IsActive {
		for _, s := range r.seasons {
			if s.IsActive {
				return repositories.ErrSeasonAlreadyActive
			}
		}
	}
	r.nextID++
	season.ID = r.nextID
	c := *season
	r.seasons[season.ID] = &c
	return nil
}

func (r *fakeSeasonRepo) GetByID(_ context.Context, id int) (*models.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seasons[id]
	if !ok {
		return nil, repositories.ErrSeasonNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakeSeasonRepo) GetActive(_ context.Context) (*models.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seasons {
		if s.IsActive {
			c := *s
			return &c, nil
		}
	}
	return nil, repositories.ErrSeasonNotFound
}

func (r *fakeSeasonRepo) Update(_ context.Context, season *models.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seasons[season.ID]; !ok {
		return repositories.ErrSeasonNotFound
	}
	c := *season
	r.seasons[season.ID] = &c
	return nil
}

type resultKey struct {
	matchID    int
	gameNumber int
}

type fakeResultRepo struct {
	mu      sync.Mutex
	nextID  int
	results map[resultKey]*models.GameResult
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[resultKey]*models.GameResult)}
}

func (r *fakeResultRepo) Upsert(_ context.Context, result *models.GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := resultKey{result.MatchID, result.GameNumber}
	stored, ok := r.results[key]
	if !ok {
		r.nextID++
		result.ID = r.nextID
		result.CreatedAt = time.Now()
		c := *result
		r.results[key] = &c
		return nil
	}
	if result.Player1Time != nil {
		stored.Player1Time = result.Player1Time
		stored.Player1Restarts = result.Player1Restarts
		stored.Player1Penalty = result.Player1Penalty
		stored.Player1FinalTime = result.Player1FinalTime
	}
	if result.Player2Time != nil {
		stored.Player2Time = result.Player2Time
		stored.Player2Restarts = result.Player2Restarts
		stored.Player2Penalty = result.Player2Penalty
		stored.Player2FinalTime = result.Player2FinalTime
	}
	if result.Notes != nil {
		stored.Notes = result.Notes
	}
	*result = *stored
	return nil
}

func (r *fakeResultRepo) Get(_ context.Context, matchID, gameNumber int) (*models.GameResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.results[resultKey{matchID, gameNumber}]
	if !ok {
		return nil, repositories.ErrGameResultNotFound
	}
	c := *stored
	return &c, nil
}

func (r *fakeResultRepo) ListByMatch(_ context.Context, matchID int) ([]*models.GameResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.GameResult
	for key, g := range r.results {
		if key.matchID == matchID {
			c := *g
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out, nil
}

func (r *fakeResultRepo) Reset(_ context.Context, matchID, gameNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.results[resultKey{matchID, gameNumber}]
	if !ok {
		return repositories.ErrGameResultNotFound
	}
	stored.Player1Time, stored.Player1FinalTime = nil, nil
	stored.Player1Restarts, stored.Player1Penalty = 0, 0
	stored.Player2Time, stored.Player2FinalTime = nil, nil
	stored.Player2Restarts, stored.Player2Penalty = 0, 0
	return nil
}

type inputKey struct {
	matchID  int
	playerID int
	kind     models.PendingInputKind
}

type fakeInputRepo struct {
	mu     sync.Mutex
	nextID int
	inputs map[inputKey]*models.PendingInput
}

func newFakeInputRepo() *fakeInputRepo {
	return &fakeInputRepo{inputs: make(map[inputKey]*models.PendingInput)}
}

func (r *fakeInputRepo) Upsert(_ context.Context, input *models.PendingInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := inputKey{input.MatchID, input.PlayerID, input.Kind}
	if stored, ok := r.inputs[key]; ok {
		stored.Value = input.Value
		*input = *stored
		return nil
	}
	r.nextID++
	input.ID = r.nextID
	input.CreatedAt = time.Now()
	c := *input
	r.inputs[key] = &c
	return nil
}

func (r *fakeInputRepo) ListByMatchAndKind(_ context.Context, matchID int, kind models.PendingInputKind) ([]*models.PendingInput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PendingInput
	for key, in := range r.inputs {
		if key.matchID == matchID && key.kind == kind {
			c := *in
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (r *fakeInputRepo) ClearKind(_ context.Context, matchID int, kind models.PendingInputKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.inputs {
		if key.matchID == matchID && key.kind == kind {
			delete(r.inputs, key)
		}
	}
	return nil
}

func (r *fakeInputRepo) ClearMatch(_ context.Context, matchID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.inputs {
		if key.matchID == matchID {
			delete(r.inputs, key)
		}
	}
	return nil
}

type ratingKey struct {
	playerID int
	seasonID int
}

type fakeRatingRepo struct {
	mu      sync.Mutex
	nextID  int
	ratings map[ratingKey]*models.Rating
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: make(map[ratingKey]*models.Rating)}
}

func (r *fakeRatingRepo) GetOrCreate(_ context.Context, playerID, seasonID int, initialRating float64) (*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ratingKey{playerID, seasonID}
	if stored, ok := r.ratings[key]; ok {
		c := *stored
		return &c, nil
	}
	r.nextID++
	rt := &models.Rating{ID: r.nextID, PlayerID: playerID, SeasonID: seasonID, Rating: initialRating, UpdatedAt: time.Now()}
	r.ratings[key] = rt
	c := *rt
	return &c, nil
}

func (r *fakeRatingRepo) Get(_ context.Context, playerID, seasonID int) (*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.ratings[ratingKey{playerID, seasonID}]
	if !ok {
		return nil, repositories.ErrRatingNotFound
	}
	c := *stored
	return &c, nil
}

func (r *fakeRatingRepo) Update(_ context.Context, rating *models.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ratingKey{rating.PlayerID, rating.SeasonID}
	if _, ok := r.ratings[key]; !ok {
		return repositories.ErrRatingNotFound
	}
	c := *rating
	r.ratings[key] = &c
	return nil
}

func (r *fakeRatingRepo) ListBySeason(_ context.Context, seasonID, limit int) ([]*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Rating
	for key, rt := range r.ratings {
		if key.seasonID == seasonID {
			c := *rt
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePenaltyRepo struct {
	mu       sync.Mutex
	settings map[int64]*models.PenaltySettings
}

func newFakePenaltyRepo() *fakePenaltyRepo {
	return &fakePenaltyRepo{settings: make(map[int64]*models.PenaltySettings)}
}

func (r *fakePenaltyRepo) GetByGuild(_ context.Context, guildID int64) (*models.PenaltySettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[guildID]
	if !ok {
		return nil, repositories.ErrPenaltySettingsNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakePenaltyRepo) Upsert(_ context.Context, settings *models.PenaltySettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	settings.UpdatedAt = time.Now()
	c := *settings
	r.settings[settings.GuildID] = &c
	return nil
}

type fakeRefereeRepo struct {
	mu       sync.Mutex
	nextID   int
	referees map[int]*models.Referee
}

func newFakeRefereeRepo() *fakeRefereeRepo {
	return &fakeRefereeRepo{referees: make(map[int]*models.Referee)}
}

func (r *fakeRefereeRepo) Create(_ context.Context, referee *models.Referee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.referees {
		if existing.GuildID == referee.GuildID &&
			(existing.DiscordID == referee.DiscordID || existing.Username == referee.Username) {
			return repositories.ErrRefereeAlreadyExists
		}
	}
	r.nextID++
	referee.ID = r.nextID
	referee.CreatedAt = time.Now()
	c := *referee
	r.referees[referee.ID] = &c
	return nil
}

func (r *fakeRefereeRepo) GetByID(_ context.Context, id int) (*models.Referee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.referees[id]
	if !ok {
		return nil, repositories.ErrRefereeNotFound
	}
	c := *ref
	return &c, nil
}

func (r *fakeRefereeRepo) GetByUsername(_ context.Context, guildID int64, username string) (*models.Referee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ref := range r.referees {
		if ref.GuildID == guildID && strings.EqualFold(ref.Username, username) {
			c := *ref
			return &c, nil
		}
	}
	return nil, repositories.ErrRefereeNotFound
}

func (r *fakeRefereeRepo) ListByGuild(_ context.Context, guildID int64, activeOnly bool) ([]*models.Referee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Referee
	for _, ref := range r.referees {
		if ref.GuildID == guildID && (!activeOnly || ref.IsActive) {
			c := *ref
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeRefereeRepo) Update(_ context.Context, referee *models.Referee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.referees[referee.ID]; !ok {
		return repositories.ErrRefereeNotFound
	}
	c := *referee
	r.referees[referee.ID] = &c
	return nil
}

func (r *fakeRefereeRepo) IncrementCounters(_ context.Context, refereeID, casesResolved, matchesAnnulled int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.referees[refereeID]
	if !ok {
		return repositories.ErrRefereeNotFound
	}
	ref.CasesResolved += casesResolved
	ref.MatchesAnnulled += matchesAnnulled
	return nil
}

type fakeCaseRepo struct {
	mu     sync.Mutex
	nextID int
	cases  map[int]*models.RefereeCase
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{cases: make(map[int]*models.RefereeCase)}
}

func (r *fakeCaseRepo) Create(_ context.Context, c *models.RefereeCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.cases {
		if existing.MatchID == c.MatchID && existing.Status.IsOpen() {
			return repositories.ErrCaseAlreadyOpen
		}
	}
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	clone := *c
	r.cases[c.ID] = &clone
	return nil
}

func (r *fakeCaseRepo) GetByID(_ context.Context, id int) (*models.RefereeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, repositories.ErrCaseNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCaseRepo) GetOpenByMatch(_ context.Context, matchID int) (*models.RefereeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cases {
		if c.MatchID == matchID && c.Status.IsOpen() {
			clone := *c
			return &clone, nil
		}
	}
	return nil, repositories.ErrCaseNotFound
}

func (r *fakeCaseRepo) Assign(_ context.Context, caseID, refereeID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[caseID]
	if !ok {
		return repositories.ErrCaseNotFound
	}
	if c.Status != models.CaseOpened {
		return repositories.ErrCaseAlreadyAssigned
	}
	c.Status = models.CaseAssigned
	c.RefereeID = &refereeID
	return nil
}

func (r *fakeCaseRepo) Update(_ context.Context, c *models.RefereeCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cases[c.ID]; !ok {
		return repositories.ErrCaseNotFound
	}
	clone := *c
	r.cases[c.ID] = &clone
	return nil
}

func (r *fakeCaseRepo) ListOpen(_ context.Context, limit int) ([]*models.RefereeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RefereeCase
	for _, c := range r.cases {
		if c.Status.IsOpen() {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeCaseRepo) ListByReferee(_ context.Context, refereeID, limit int) ([]*models.RefereeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RefereeCase
	for _, c := range r.cases {
		if c.RefereeID != nil && *c.RefereeID == refereeID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeStreamChecker struct {
	inactive bool
	err      error
}

func (c *fakeStreamChecker) IsInactive(context.Context, string) (bool, error) {
	return c.inactive, c.err
}

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *captureNotifier) Notify(_ context.Context, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, content)
	return nil
}

func (n *captureNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, _ io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(context.Context, string) error { return nil }

func (u *fakeUploader) GetPublicURL(key string) string { return "https://cdn.test/" + key }
