// main is the entry point of the Mentor Q&A API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured store (sqlite or memory) and seed mentors
//  4. Start the notification dispatcher and the answer service
//  5. Register all HTTP routes behind the middleware stack
//  6. Serve until SIGINT / SIGTERM
//  7. Shut down: stop the HTTP server, drain queued emails, close the store
//
// RUNNING THE SERVER:
//
//	go run ./cmd/mentorqa-api --config=config/local.yaml
//
// or
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/mentorqa-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/aanand-mishra/mentorqa-api/internal/answer"
	"github.com/aanand-mishra/mentorqa-api/internal/config"
	"github.com/aanand-mishra/mentorqa-api/internal/http/handlers/health"
	"github.com/aanand-mishra/mentorqa-api/internal/http/handlers/mentor"
	"github.com/aanand-mishra/mentorqa-api/internal/http/handlers/question"
	"github.com/aanand-mishra/mentorqa-api/internal/http/middleware"
	"github.com/aanand-mishra/mentorqa-api/internal/notify"
	"github.com/aanand-mishra/mentorqa-api/internal/security"
	"github.com/aanand-mishra/mentorqa-api/internal/seed"
	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/storage/memory"
	"github.com/aanand-mishra/mentorqa-api/internal/storage/sqlite"
)

const (
	envDev     = "dev"
	envStaging = "staging"
	envProd    = "prod"
)

func main() {
	// ── 1. Config ─────────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Logger ─────────────────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting mentorqa-api",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("email_provider", cfg.Notification.Provider),
	)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 3. Storage ────────────────────────────────────────────────────────
	store, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Info("storage initialised",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("path", cfg.Storage.Path))

	hasher := security.NewHasher(cfg.Auth.BcryptCost)
	if cfg.Seed.Mentors {
		if _, err := seed.Mentors(ctx, store, hasher); err != nil {
			log.Error("mentor seeding failed", slog.String("error", err.Error()))
		}
	}

	// ── 4. Notifications + answer workflow ────────────────────────────────
	dispatcher := notify.NewDispatcher(
		notify.NewSender(cfg.Notification),
		answer.Recorder{Store: store},
		notify.Options{
			Workers:     cfg.Notification.Workers,
			QueueSize:   cfg.Notification.QueueSize,
			SendTimeout: cfg.Notification.SendTimeout,
		},
	)
	answers := answer.NewService(store, dispatcher, answer.Options{
		MinLength:    cfg.Answers.MinLength,
		LockResolved: cfg.Answers.LockResolved,
	})

	// ── 5. Routes ─────────────────────────────────────────────────────────
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      routes(cfg, store, answers, hasher, log),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 6. Serve until a signal arrives ───────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ── 7. Graceful shutdown ──────────────────────────────────────────────
	// The HTTP server stops first so no new answers can queue emails; the
	// dispatcher then gets its own budget to drain what is already queued.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down server gracefully", slog.String("error", err.Error()))
		}

		drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Notification.ShutdownTimeout)
		defer cancelDrain()
		if err := dispatcher.Shutdown(drainCtx); err != nil {
			log.Warn("notification queue not drained; pending emails dropped",
				slog.String("error", err.Error()))
		}
		return nil
	})

	return g.Wait()
}

func openStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.Driver == "memory" {
		return memory.New(), nil
	}
	return sqlite.New(cfg)
}

// routes builds the full handler: every route on one ServeMux, wrapped in
// the global middleware stack.
//
//	POST   /api/questions            public   create a question
//	GET    /api/questions            auth     list questions
//	GET    /api/questions/{id}       auth     one question
//	PATCH  /api/questions/{id}       auth     answer, or status / assignment
//	GET    /api/mentor/questions     mentor   questions assigned to caller
//	GET    /api/public/resolved      public   knowledge base
//	GET    /api/public/questions     public   question listing
//	POST   /api/mentor/signup        public
//	POST   /api/mentor/login         public
//	GET    /api/mentor/profile       mentor
//	POST   /api/auth/login           public   admin token stub
//	GET    /api/mentors              auth
//	POST   /api/mentors              auth
//	PATCH  /api/mentors/{id}         auth
//	DELETE /api/mentors/{id}         auth
//	GET    /api/public/mentors       public
//	GET    /api/health               public
func routes(cfg *config.Config, store storage.Storage, answers question.Answerer, hasher *security.Hasher, log *slog.Logger) http.Handler {
	auth := middleware.Auth{AdminToken: cfg.Auth.AdminToken}
	router := http.NewServeMux()

	router.HandleFunc("POST /api/questions", question.New(store))
	router.Handle("GET /api/questions", auth.RequireFunc(question.GetList(store)))
	router.Handle("GET /api/questions/{id}", auth.RequireFunc(question.GetByID(store)))
	router.Handle("PATCH /api/questions/{id}", auth.RequireFunc(question.Update(store, answers)))
	router.Handle("GET /api/mentor/questions", auth.RequireFunc(question.MentorQuestions(store)))
	router.HandleFunc("GET /api/public/resolved", question.PublicResolved(store))
	router.HandleFunc("GET /api/public/questions", question.PublicQuestions(store))

	router.HandleFunc("POST /api/mentor/signup", mentor.Signup(store, hasher))
	router.HandleFunc("POST /api/mentor/login", mentor.Login(store, hasher))
	router.Handle("GET /api/mentor/profile", auth.RequireFunc(mentor.Profile(store)))
	router.HandleFunc("POST /api/auth/login", mentor.AdminLogin(cfg.Auth.AdminToken))
	router.Handle("GET /api/mentors", auth.RequireFunc(mentor.GetList(store)))
	router.Handle("POST /api/mentors", auth.RequireFunc(mentor.Create(store, hasher)))
	router.Handle("PATCH /api/mentors/{id}", auth.RequireFunc(mentor.Patch(store)))
	router.Handle("DELETE /api/mentors/{id}", auth.RequireFunc(mentor.Delete(store)))
	router.HandleFunc("GET /api/public/mentors", mentor.PublicList(store))

	router.HandleFunc("GET /api/health", health.Get(store, cfg.Storage.Driver))

	return middleware.New(
		middleware.Recover(log),
		middleware.Logger(log),
		middleware.CORS(cfg.CORS),
	).Apply(router)
}

// setupLogger returns a *slog.Logger configured for the environment:
//
//	dev     → text, DEBUG
//	staging → JSON, DEBUG
//	prod    → JSON, INFO
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envDev:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envStaging:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return log
}
