package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-health/internal/application"
	appassistant "github.com/bryanwahyu/automaton-health/internal/application/assistant"
	appdashboard "github.com/bryanwahyu/automaton-health/internal/application/dashboard"
	appprofile "github.com/bryanwahyu/automaton-health/internal/application/profile"
	appreport "github.com/bryanwahyu/automaton-health/internal/application/report"
	"github.com/bryanwahyu/automaton-health/internal/config"
	"github.com/bryanwahyu/automaton-health/internal/domain/ai"
	domprofile "github.com/bryanwahyu/automaton-health/internal/domain/profile"
	"github.com/bryanwahyu/automaton-health/internal/infra/ai/gemini"
	"github.com/bryanwahyu/automaton-health/internal/infra/ai/limiter"
	"github.com/bryanwahyu/automaton-health/internal/infra/ai/openai"
	"github.com/bryanwahyu/automaton-health/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/automaton-health/internal/infra/db/mysql"
	"github.com/bryanwahyu/automaton-health/internal/infra/db/postgres"
	"github.com/bryanwahyu/automaton-health/internal/infra/extract"
	"github.com/bryanwahyu/automaton-health/internal/infra/httpserver"
	"github.com/bryanwahyu/automaton-health/internal/infra/render/pdf"
	minioStore "github.com/bryanwahyu/automaton-health/internal/infra/storage"
	"github.com/bryanwahyu/automaton-health/internal/logging"
	"github.com/bryanwahyu/automaton-health/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// completion service
	client, err := newAIClient(ctx, cfg)
	if err != nil {
		logger.Fatal("ai client init error", zap.Error(err))
	}
	client = limiter.Wrap(client, cfg.AI.RequestsPerSecond, cfg.AI.Burst)

	checks := map[string]middleware.HealthChecker{}

	// profile store
	repo, db, err := newProfileRepo(ctx, cfg)
	if err != nil {
		logger.Fatal("database init error", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		checks["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}
	// round trip through the repository, so a missing table fails readiness
	checks["profiles"] = middleware.CheckFunc(func(ctx context.Context) error {
		_, err := repo.Get(ctx, "readyz")
		return err
	})

	reportSvc := &appreport.Service{
		AI:               client,
		Extractor:        extract.NewPlaceholder(cfg.Report.ExtractDelay),
		Renderer:         pdf.NewRenderer(),
		Clock:            application.SystemClock{},
		Log:              logger.Named("report"),
		ImageConcurrency: cfg.Report.ImageConcurrency,
		Timeout:          cfg.Report.Timeout,
	}

	// init minio (optional)
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
			cfg.Minio.URLExpiry,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		reportSvc.Artifacts = store
		checks["storage"] = middleware.CheckFunc(store.Check)
	}

	profileSvc := &appprofile.Service{
		Repo:  repo,
		Clock: application.SystemClock{},
		Log:   logger.Named("profile"),
	}
	reportSvc.OnSuccess = profileSvc.AwardReport

	rl := middleware.NewRateLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst)
	stopCleanup := make(chan struct{})
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				rl.Cleanup(10 * time.Minute)
			case <-stopCleanup:
				return
			}
		}
	}()

	handler := httpserver.NewRouter(httpserver.Options{
		Reports:        reportSvc,
		Profiles:       profileSvc,
		Assistant:      appassistant.NewService(client),
		Dashboard:      appdashboard.NewService(),
		Log:            logger.Named("http"),
		APIKeys:        cfg.Server.APIKeys,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    rl,
		MaxUploadBytes: cfg.Report.MaxUploadBytes,
		HealthChecks:   checks,
	})
	if len(cfg.Server.APIKeys) == 0 {
		logger.Warn("no API keys configured, requests are not authenticated")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// analysis runs inside the request
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("ai_provider", cfg.AI.Provider),
			zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")
	close(stopCleanup)

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newAIClient(ctx context.Context, cfg *config.Config) (ai.Client, error) {
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return openai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL), nil
	default:
		return gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
	}
}

func newProfileRepo(ctx context.Context, cfg *config.Config) (domprofile.Repository, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return mysqlp.NewProfileRepository(db), db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewProfileRepository(db), db, nil
	default:
		return memory.NewProfileRepository(), nil, nil
	}
}
