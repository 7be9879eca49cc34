package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/promptgov/promptgov/internal/api/handlers"
	"github.com/promptgov/promptgov/internal/api/middleware"
	"github.com/promptgov/promptgov/internal/auth"
	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/config"
	"github.com/promptgov/promptgov/internal/queue"
	"github.com/promptgov/promptgov/internal/storage"
)

type Router struct {
	mux        *chi.Mux
	store      *storage.Store
	cache      cache.Cache
	dispatcher queue.Dispatcher
	redis      *redis.Client
	cfg        *config.Config
}

func NewRouter(store *storage.Store, c cache.Cache, d queue.Dispatcher, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:        chi.NewRouter(),
		store:      store,
		cache:      c,
		dispatcher: d,
		redis:      rdb,
		cfg:        cfg,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	promptH := handlers.NewPromptHandler(rt.store, rt.cache)
	configH := handlers.NewConfigHandler(rt.store, rt.cache)
	runH := handlers.NewRunHandler(rt.store, rt.cache, rt.dispatcher, rt.cfg.Storage.DocumentsDir)
	docH := handlers.NewDocumentHandler(rt.cache, rt.cfg.Storage.DocumentsDir)
	benchH := handlers.NewBenchmarkHandler(rt.cache, rt.cfg.Storage.BenchmarkFile)

	r.Route("/api", func(r chi.Router) {
		if rt.cfg.Auth.JWTSecret != "" {
			jwtM := auth.NewJWTMiddleware(rt.cfg.Auth.JWTSecret)
			r.Use(jwtM.Authenticate)
		}

		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", promptH.List)
			r.Post("/", promptH.Create)
			r.Get("/{id}", promptH.Get)
			r.Put("/{id}", promptH.Update)
			r.Patch("/{id}", promptH.Update)
			r.Delete("/{id}", promptH.Delete)
			r.Get("/{id}/diff/{other}", promptH.Diff)
		})

		r.Route("/configs", func(r chi.Router) {
			r.Get("/", configH.List)
			r.Post("/", configH.Create)
			r.Get("/{id}", configH.Get)
			r.Put("/{id}", configH.Update)
			r.Patch("/{id}", configH.Update)
			r.Delete("/{id}", configH.Delete)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", runH.List)
			r.Post("/", runH.Create)
			r.Get("/{id}", runH.Get)
			r.Delete("/{id}", runH.Delete)
			r.Get("/{id}/compare/{other}", runH.Compare)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", docH.List)
			r.Get("/{name}", docH.Get)
			r.Head("/{name}", docH.Head)
		})

		r.Route("/benchmark", func(r chi.Router) {
			r.Get("/summary", benchH.Summary)
			r.Get("/documents", benchH.Documents)
			r.Get("/fields", benchH.Fields)
		})
	})

	return r
}
