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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-examclock/internal/api/http"
	auth "github.com/mind-engage/mindengage-examclock/internal/auth/middleware"
	"github.com/mind-engage/mindengage-examclock/internal/config"
	"github.com/mind-engage/mindengage-examclock/internal/db"
	"github.com/mind-engage/mindengage-examclock/internal/exam"
	"github.com/mind-engage/mindengage-examclock/internal/logz"
	"github.com/mind-engage/mindengage-examclock/internal/rbac"
	"github.com/mind-engage/mindengage-examclock/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := logz.New(cfg.Mode == config.ModeOnline, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()
	store := exam.NewSQLStore(dbh, cfg.DBDriver, cfg.SiteID)

	if cfg.ContentFile != "" {
		c, err := exam.ReadContentFile(cfg.ContentFile)
		if err != nil {
			logger.Fatal("read content", zap.Error(err))
		}
		if err := store.PutContent(ctx, c); err != nil {
			logger.Fatal("load content", zap.Error(err))
		}
		logger.Info("content loaded",
			zap.String("file", cfg.ContentFile),
			zap.Int("questions", len(c.Questions)),
			zap.Int("exams", len(c.Exams)))
	}

	archive, err := storage.NewFSStore(cfg.ContentArchiveDir)
	if err != nil {
		logger.Fatal("content archive", zap.Error(err))
	}

	svc := exam.NewService(store, exam.WithLogger(logger))
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableDevLogin {
		r.Post("/auth/login", auth.LoginHandler(authSvc, cfg.DevPassHash))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Student flow
		pr.With(rbac.Require("attempt:clock")).
			Get("/exams/{examCode}/clock", api.GetTimeStatusHandler(svc, api.AllowAll{}))
		pr.With(rbac.Require("attempt:submit")).
			Post("/exams/{examCode}/submit", api.SubmitHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/exams/{examCode}/attempt", api.GetAttemptHandler(svc))

		// Teacher/admin
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/exams/{examCode}/attempts", api.ListAttemptsHandler(svc))
		pr.With(rbac.Require("content:load")).
			Post("/content", api.LoadContentHandler(store, archive))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}
