package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/vitalcoach-backend/internal/config"
	"github.com/AnshRaj112/vitalcoach-backend/internal/database"
	"github.com/AnshRaj112/vitalcoach-backend/internal/handlers"
	"github.com/AnshRaj112/vitalcoach-backend/internal/llm"
	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
	"github.com/AnshRaj112/vitalcoach-backend/internal/middleware"
	"github.com/AnshRaj112/vitalcoach-backend/internal/routes"
	"github.com/AnshRaj112/vitalcoach-backend/internal/services"
	"github.com/AnshRaj112/vitalcoach-backend/internal/store"
	"github.com/AnshRaj112/vitalcoach-backend/pkg/clientip"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	lg, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		plans    store.PlanStore
		profiles store.ProfileStore
		sessions middleware.SessionResolver
		events   *services.EventHub
	)

	switch cfg.StoreBackend {
	case "memory":
		mem := store.NewMemoryStore()
		plans, profiles = mem, mem
		sessions = middleware.TrustedTokens{}
		events = services.NewEventHub(nil, lg.With("component", "plan_events"))
		lg.Warn("using in-memory store; bearer tokens are trusted as user ids")

	case "postgres":
		db, err := database.ConnectPostgres(cfg.PostgresURI, lg)
		if err != nil {
			lg.Fatal("failed to connect to PostgreSQL", "error", err)
		}
		defer db.Close()

		rdb, err := database.ConnectRedis(cfg.RedisURI, lg)
		if err != nil {
			lg.Fatal("failed to connect to Redis", "error", err)
		}
		defer rdb.Close()

		mongoClient, mongoDB, err := database.ConnectMongo(cfg.MongoURI, lg)
		if err != nil {
			lg.Fatal("failed to connect to MongoDB", "error", err)
		}
		defer database.DisconnectMongo(mongoClient)

		profileStore := store.NewMongoProfileStore(mongoDB.Collection(store.ProfilesCollection))
		if err := profileStore.EnsureIndexes(ctx); err != nil {
			lg.Warn("failed to ensure MongoDB profile indexes", "error", err)
		}

		plans = store.NewCachedStore(store.NewPostgresStore(db), rdb, cfg.ThreadWindow, lg.With("component", "thread_cache"))
		profiles = profileStore
		sessions = services.NewSessionValidator(rdb)
		events = services.NewEventHub(rdb, lg.With("component", "plan_events"))
		events.Start(ctx)

	default:
		lg.Fatal("unknown STORE_BACKEND", "value", cfg.StoreBackend)
	}

	chatModel, err := llm.NewChatModel(ctx, llm.Config{
		Provider:    llm.Provider(cfg.LLMProvider),
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	})
	if err != nil {
		lg.Fatal("failed to create chat model", "error", err)
	}
	lg.Info("chat model ready", "provider", cfg.LLMProvider, "model", cfg.LLMModel)

	coach := services.NewCoach(plans, profiles, llm.NewChatGenerator(chatModel, cfg.LLMTimeout), services.CoachConfig{
		ThreadWindow:      cfg.ThreadWindow,
		PlanDurationWeeks: cfg.PlanDurationWeeks,
		RevisionPolicy:    cfg.RevisionPolicy(),
	}, lg)
	coach.SetNotifier(events)

	ips := &clientip.Resolver{TrustProxy: cfg.TrustProxy}
	turns := middleware.NewPerMinuteLimiter(cfg.ChatRatePerMinute)
	h := handlers.New(coach, events, turns, lg.With("component", "http"))
	h.SetLockWait(cfg.LLMTimeout + 30*time.Second)

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost, ips) {
			r.Use(mw)
		}
		lg.Info("production security enabled", "allowed_host", cfg.AllowedHost)
	}
	routes.SetupRoutes(r, h, middleware.RequireSession(sessions), middleware.ChatTurnRateLimit(turns, ips))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("VitalCoach backend running", "port", cfg.Port, "env", cfg.Environment, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", "error", err)
	}
}
