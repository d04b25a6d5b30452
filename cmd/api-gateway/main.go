package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gradebook-api/api/swagger"
	"github.com/noah-isme/gradebook-api/internal/handler"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	"github.com/noah-isme/gradebook-api/internal/router"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/internal/state"
	"github.com/noah-isme/gradebook-api/pkg/cache"
	"github.com/noah-isme/gradebook-api/pkg/config"
	"github.com/noah-isme/gradebook-api/pkg/database"
	"github.com/noah-isme/gradebook-api/pkg/logger"
	"github.com/noah-isme/gradebook-api/pkg/storage"
)

// @title Grade Book API
// @version 1.0.0
// @description Class grade book with assessment sessions, recaps and report exports
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()

	backend, closeBackend, err := newSyncBackend(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init sync backend", "backend", cfg.Sync.Backend, "error", err)
	}
	defer closeBackend()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, recap cache disabled", "error", err)
		} else {
			defer client.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(client)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	syncSvc := service.NewSyncService(backend, service.SyncOptions{
		Policy:     models.SyncPolicy(cfg.Sync.Policy),
		Timeout:    cfg.Sync.Timeout,
		Workers:    cfg.Sync.Workers,
		Retries:    cfg.Sync.Retries,
		RetryDelay: cfg.Sync.RetryDelay,
	}, metrics, logr)
	syncSvc.Start(ctx)

	store := state.NewStore(models.Dataset{})
	dispatcher := service.NewDispatcher(store, syncSvc, cacheSvc, metrics)

	bootstrapSvc := service.NewBootstrapService(syncSvc, dispatcher, logr)
	status, err := bootstrapSvc.Load(ctx)
	if err != nil {
		logr.Sugar().Fatalw("failed to load initial data", "error", err)
	}
	if status.Source == models.DataSourceSample {
		logr.Sugar().Warnw("serving sample data", "reason", status.Error)
	}

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "dir", cfg.Reports.StorageDir, "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	authSvc := service.NewAuthService(dispatcher, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AdminUsername:     cfg.Admin.Username,
		AdminPassword:     cfg.Admin.Password,
	})
	studentSvc := service.NewStudentService(dispatcher, validate, logr)
	importSvc := service.NewImportService(dispatcher, logr)
	gradeSvc := service.NewGradeService(dispatcher, validate, logr)
	sessionSvc := service.NewSessionService(dispatcher, validate, logr)
	teacherSvc := service.NewTeacherService(dispatcher, validate, logr)
	settingsSvc := service.NewSettingsService(dispatcher, validate, logr)
	recapSvc := service.NewRecapService(dispatcher, cacheSvc, validate, logr)
	reportSvc := service.NewReportService(recapSvc, settingsSvc, reportStore, signer, validate, logr, service.ReportServiceConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	reportSvc.StartCleanup(ctx)

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Auth:           authSvc,

		AuthHandler:      handler.NewAuthHandler(authSvc),
		BootstrapHandler: handler.NewBootstrapHandler(bootstrapSvc),
		StudentHandler:   handler.NewStudentHandler(studentSvc, importSvc),
		GradeHandler:     handler.NewGradeHandler(gradeSvc),
		SessionHandler:   handler.NewSessionHandler(sessionSvc),
		TeacherHandler:   handler.NewTeacherHandler(teacherSvc),
		SettingsHandler:  handler.NewSettingsHandler(settingsSvc),
		RecapHandler:     handler.NewRecapHandler(recapSvc),
		ReportHandler:    handler.NewReportHandler(reportSvc),
		MetricsHandler:   handler.NewMetricsHandler(metrics.Handler(), bootstrapSvc, cacheSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "sync_backend", cfg.Sync.Backend, "sync_policy", syncSvc.Policy())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown failed", zap.Error(err))
	}
	if err := syncSvc.Flush(shutdownCtx); err != nil {
		logr.Warn("pending sync mutations not flushed", zap.Error(err))
	}
	syncSvc.Stop()
}

// newSyncBackend picks the system of record. The returned closer is always safe to call.
func newSyncBackend(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.SyncBackend, func(), error) {
	noop := func() {}
	switch cfg.Sync.Backend {
	case config.SyncBackendRemote:
		if cfg.Sync.Endpoint == "" {
			logr.Warn("SYNC_ENDPOINT not set, running without a sync backend")
			return nil, noop, nil
		}
		return repository.NewRemoteRepository(cfg.Sync.Endpoint, cfg.Sync.Timeout, nil, logr), noop, nil
	case config.SyncBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		repo := repository.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return repo, func() { _ = db.Close() }, nil
	case config.SyncBackendNone, "":
		return nil, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown sync backend %q", cfg.Sync.Backend)
	}
}
