package handlers

import (
	"net/http"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input struct {
		GuildID          int64  `json:"guild_id"`
		ChannelID        int64  `json:"channel_id"`
		Player1DiscordID int64  `json:"player1_discord_id"`
		Player1Name      string `json:"player1_name"`
		Player2DiscordID int64  `json:"player2_discord_id"`
		Player2Name      string `json:"player2_name"`
		Format           string `json:"format"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), services.CreateMatchParams{
		GuildID:          input.GuildID,
		ChannelID:        input.ChannelID,
		Player1DiscordID: input.Player1DiscordID,
		Player1Name:      input.Player1Name,
		Player2DiscordID: input.Player2DiscordID,
		Player2Name:      input.Player2Name,
		Format:           models.MatchFormat(input.Format),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil)
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	games, err := h.matchService.ListGames(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match, "games": games}, nil)
}

func (h *MatchHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	matchID, playerID, ok := h.matchAndPlayer(w, r)
	if !ok {
		return
	}

	outcome, err := h.matchService.MarkReady(r.Context(), matchID, playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome}, nil)
}

func (h *MatchHandler) SubmitDraftLink(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		PlayerID int    `json:"player_id"`
		Link     string `json:"link"`
	}
	if err = readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.matchService.SubmitDraftLink(r.Context(), matchID, input.PlayerID, input.Link)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome}, nil)
}

func (h *MatchHandler) ChooseFirstPlayer(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		PlayerID int    `json:"player_id"`
		Choice   string `json:"choice"`
	}
	if err = readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.matchService.ChooseFirstPlayer(r.Context(), matchID, input.PlayerID, input.Choice)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome}, nil)
}

func (h *MatchHandler) ConfirmStream(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		PlayerID  int    `json:"player_id"`
		StreamURL string `json:"stream_url"`
	}
	if err = readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.matchService.ConfirmStream(r.Context(), matchID, input.PlayerID, input.StreamURL)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome}, nil)
}

func (h *MatchHandler) SubmitGameResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		PlayerID    int     `json:"player_id"`
		TimeSeconds float64 `json:"time_seconds"`
		Restarts    int     `json:"restarts"`
		Notes       string  `json:"notes"`
	}
	if err = readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.matchService.SubmitGameResult(r.Context(), matchID,
		input.PlayerID, input.TimeSeconds, input.Restarts, input.Notes)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome}, nil)
}

func (h *MatchHandler) matchAndPlayer(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	var input struct {
		PlayerID int `json:"player_id"`
	}
	if err = readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	return matchID, input.PlayerID, true
}
