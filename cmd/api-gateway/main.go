package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/classpulse-api/api/swagger"
	"github.com/noah-isme/classpulse-api/internal/handler"
	"github.com/noah-isme/classpulse-api/internal/ingest"
	"github.com/noah-isme/classpulse-api/internal/repository"
	"github.com/noah-isme/classpulse-api/internal/service"
	"github.com/noah-isme/classpulse-api/pkg/cache"
	"github.com/noah-isme/classpulse-api/pkg/config"
	"github.com/noah-isme/classpulse-api/pkg/database"
	"github.com/noah-isme/classpulse-api/pkg/export"
	"github.com/noah-isme/classpulse-api/pkg/logger"
)

const version = "1.0.0"

// @title ClassPulse API
// @version 1.0.0
// @description Class risk analytics over behaviour logs and gradebooks
// @BasePath /api/v1
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

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo, closeCache := newCacheRepository(cfg, logr)
	defer closeCache()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr.Named("cache"))

	var (
		classRepo    service.ClassRepository
		settingsRepo service.SettingsRepository
	)
	if cfg.Database.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
		classRepo = repository.NewClassRepository(db)
		settingsRepo = repository.NewSettingsRepository(db)
		logr.Info("persistence enabled", zap.String("db", cfg.Database.Name))
	} else {
		classRepo = repository.NewMemoryClassRepository()
		settingsRepo = repository.NewMemorySettingsRepository()
		logr.Warn("persistence disabled, class records are kept in memory")
	}

	settingsSvc := service.NewSettingsService(settingsRepo, service.RiskSettingsFromConfig(cfg.Risk), cacheSvc, validate, logr.Named("settings"))
	if err := settingsSvc.Validate(settingsSvc.Defaults()); err != nil {
		logr.Fatal("invalid default risk settings", zap.Error(err))
	}

	classifier := ingest.DefaultClassifier()
	ingestor := ingest.NewIngestor(classifier, ingest.Options{
		BehaviorHeaderRow: cfg.Ingest.BehaviorHeaderRow,
		GradesHeaderRow:   cfg.Ingest.GradesHeaderRow,
		AssignmentOffset:  cfg.Ingest.AssignmentOffset,
		Logger:            logr.Named("ingest"),
	})
	classSvc := service.NewClassService(classRepo, settingsSvc, ingestor, classifier, cacheSvc, metrics, validate, logr.Named("classes"))
	exportSvc := service.NewExportService(classSvc, export.NewCSVExporter(), export.NewPDFExporter(cfg.Export.PDFFontPath), logr.Named("export"))

	routerCfg := handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Metrics:        metrics,
		Classes:        handler.NewClassHandler(classSvc, exportSvc, cfg.Ingest.MaxUploadBytes),
		Settings:       handler.NewSettingsHandler(settingsSvc),
		Observability:  handler.NewMetricsHandler(metrics, version),
	}
	if cfg.JWT.Enabled {
		routerCfg.Tokens = service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	} else {
		logr.Warn("authentication disabled")
	}
	r := handler.NewRouter(routerCfg)
	r.MaxMultipartMemory = cfg.Ingest.MaxUploadBytes

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cache", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

// newCacheRepository selects the view cache backend. A failing redis falls
// back to the in-process cache.
func newCacheRepository(cfg *config.Config, logr *zap.Logger) (service.CacheRepository, func()) {
	noop := func() {}
	switch cfg.Cache.Backend {
	case config.CacheBackendNone:
		logr.Info("view cache disabled")
		return nil, noop
	case config.CacheBackendRedis:
		client, err := cache.NewRedis(cfg.Redis)
		if err == nil {
			repo := repository.NewCacheRepository(client, logr.Named("redis"))
			return repo, func() { _ = repo.Close() }
		}
		logr.Warn("redis unavailable, using in-memory cache", zap.Error(err))
	}
	return repository.NewMemoryCacheRepository(cfg.Cache.TTL), noop
}
