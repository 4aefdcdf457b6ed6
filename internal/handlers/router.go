package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"anagramgame/internal/metrics"
	"anagramgame/internal/scoring"
	"anagramgame/internal/security"
	"anagramgame/internal/service"
)

// Services are the dependencies of the HTTP API
type Services struct {
	Players       *service.PlayerService
	Phrases       *service.PhraseService
	Distributor   *service.Distributor
	Hints         *service.HintService
	Contributions *service.ContributionService
	Scorer        *scoring.Scorer
}

// RouterConfig holds the transport settings of the API
type RouterConfig struct {
	RateLimitPerMinute int
	AppBaseURL         string
	RequestTimeout     time.Duration
}

// NewRouter builds the chi router for the phrase API. ctx bounds the
// lifetime of background helpers such as the rate limiter sweeper.
func NewRouter(ctx context.Context, svc Services, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	players := NewPlayerHandler(svc.Players, svc.Contributions, cfg.AppBaseURL)
	phrases := NewPhraseHandler(svc.Players, svc.Phrases, svc.Distributor, svc.Hints)
	difficulty := NewDifficultyHandler(svc.Scorer, svc.Phrases)
	limiter := security.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logging)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": statusOK})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/difficulty", difficulty.Artifact)
		r.Post("/difficulty/score", difficulty.Score)

		r.Post("/players", players.Register)
		r.Post("/phrases", phrases.Submit)
		r.Post("/phrases/{phraseId}/assignments", phrases.Assign)

		r.Route("/players/{playerId}", func(r chi.Router) {
			r.Get("/", players.Get)
			r.Get("/phrases/next", phrases.Next)
			r.Get("/phrases", phrases.Batch)
			r.Post("/phrases/status", phrases.Status)
			r.Post("/phrases/{phraseId}/hints", phrases.UseHint)
			r.Post("/phrases/{phraseId}/complete", phrases.Complete)
			r.Post("/phrases/{phraseId}/skip", phrases.Skip)
			r.Post("/contribution-links", players.CreateContributionLink)
		})

		r.Route("/contributions/{token}", func(r chi.Router) {
			r.Use(limiter.Limit(tooManyRequests))
			r.Get("/", players.ResolveContributionLink)
			r.Post("/", players.Contribute)
			r.Delete("/", players.RevokeContributionLink)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	return r
}
