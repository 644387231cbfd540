package routes

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/ladder-system/handlers"
	"github.com/Dosada05/ladder-system/middleware"
	"github.com/Dosada05/ladder-system/services"
)

func SetupRoutes(
	router *chi.Mux,
	authService services.AuthService,
	authHandler *handlers.AuthHandler,
	matchHandler *handlers.MatchHandler,
	refereeHandler *handlers.RefereeHandler,
	seasonHandler *handlers.SeasonHandler,
	penaltyHandler *handlers.PenaltyHandler,
	wsHandler *handlers.WebSocketHandler,
) {
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticated := middleware.Authenticate(authService)

	router.Post("/auth/login", authHandler.Login)

	router.Route("/matches", func(r chi.Router) {
		r.Post("/", matchHandler.CreateMatch)
		r.Get("/{matchID}", matchHandler.GetMatch)
		r.Post("/{matchID}/ready", matchHandler.MarkReady)
		r.Post("/{matchID}/draft", matchHandler.SubmitDraftLink)
		r.Post("/{matchID}/first-player", matchHandler.ChooseFirstPlayer)
		r.Post("/{matchID}/stream", matchHandler.ConfirmStream)
		r.Post("/{matchID}/result", matchHandler.SubmitGameResult)
		r.Post("/{matchID}/cases", refereeHandler.OpenCase)
	})

	router.Get("/ws/matches/{matchID}", wsHandler.WatchMatch)

	router.Route("/cases", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/open", refereeHandler.ListOpenCases)
		r.Get("/mine", refereeHandler.ListMyCases)
		r.Get("/{caseID}", refereeHandler.GetCase)
		r.Post("/{caseID}/assign", refereeHandler.AssignCase)
		r.Post("/{caseID}/start", refereeHandler.StartResolution)
		r.Post("/{caseID}/resolve", refereeHandler.ResolveCase)
		r.Post("/{caseID}/evidence", refereeHandler.AttachEvidence)
	})

	router.Route("/seasons", func(r chi.Router) {
		r.Get("/active", seasonHandler.GetActiveSeason)
		r.Get("/{seasonID}/leaderboard", seasonHandler.Leaderboard)
		r.Get("/{seasonID}/players/{playerID}/rating", seasonHandler.PlayerRating)

		r.Group(func(r chi.Router) {
			r.Use(authenticated, middleware.RequireAdmin)
			r.Post("/", seasonHandler.CreateSeason)
			r.Post("/{seasonID}/end", seasonHandler.ForceEndSeason)
		})
	})

	router.Route("/guilds/{guildID}/penalties", func(r chi.Router) {
		r.Get("/", penaltyHandler.GetSettings)
		r.Get("/preview", penaltyHandler.Preview)

		r.Group(func(r chi.Router) {
			r.Use(authenticated, middleware.RequireAdmin)
			r.Put("/", penaltyHandler.UpdateSettings)
		})
	})

	router.Route("/referees", func(r chi.Router) {
		r.Use(authenticated, middleware.RequireAdmin)
		r.Get("/", authHandler.ListReferees)
		r.Post("/", authHandler.RegisterReferee)
		r.Patch("/{refereeID}/active", authHandler.SetRefereeActive)
	})
}
