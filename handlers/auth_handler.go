package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/ladder-system/middleware"
	"github.com/Dosada05/ladder-system/services"
)

var errInvalidGuildID = errors.New("guild_id query parameter must be a positive integer")

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		GuildID  int64  `json:"guild_id"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token, referee, err := h.authService.Login(r.Context(), input.GuildID, input.Username, input.Password)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"token": token, "referee": referee}, nil)
}

func (h *AuthHandler) RegisterReferee(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		DiscordID          int64   `json:"discord_id"`
		GuildID            int64   `json:"guild_id"`
		Username           string  `json:"username"`
		Password           string  `json:"password"`
		IsAdmin            bool    `json:"is_admin"`
		CanAnnulMatches    bool    `json:"can_annul_matches"`
		CanModifyResults   bool    `json:"can_modify_results"`
		CanResolveDisputes bool    `json:"can_resolve_disputes"`
		Notes              *string `json:"notes"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	referee, err := h.authService.RegisterReferee(r.Context(), services.RegisterRefereeParams{
		ActorID:            claims.RefereeID,
		DiscordID:          input.DiscordID,
		GuildID:            input.GuildID,
		Username:           input.Username,
		Password:           input.Password,
		IsAdmin:            input.IsAdmin,
		CanAnnulMatches:    input.CanAnnulMatches,
		CanModifyResults:   input.CanModifyResults,
		CanResolveDisputes: input.CanResolveDisputes,
		Notes:              input.Notes,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"referee": referee}, nil)
}

func (h *AuthHandler) ListReferees(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	guildID := claims.GuildID
	if raw := r.URL.Query().Get("guild_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			badRequestResponse(w, r, errInvalidGuildID)
			return
		}
		guildID = parsed
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	referees, err := h.authService.ListReferees(r.Context(), claims.RefereeID, guildID, activeOnly)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"referees": referees}, nil)
}

func (h *AuthHandler) SetRefereeActive(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	refereeID, err := idParam(r, "refereeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Active bool `json:"active"`
	}
	if err = readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err = h.authService.SetActive(r.Context(), claims.RefereeID, refereeID, input.Active); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "updated"}, nil)
}
