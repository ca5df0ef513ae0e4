package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/application/service"
	"github.com/hypervisual/finance-workflow/internal/classify"
	"github.com/hypervisual/finance-workflow/internal/config"
	"github.com/hypervisual/finance-workflow/internal/dedup"
	"github.com/hypervisual/finance-workflow/internal/infrastructure/persistence/repository"
	"github.com/hypervisual/finance-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/hypervisual/finance-workflow/internal/infrastructure/source"
	"github.com/hypervisual/finance-workflow/internal/ingest"
	httpapi "github.com/hypervisual/finance-workflow/internal/interfaces/http"
	"github.com/hypervisual/finance-workflow/pkg/database"
	"github.com/hypervisual/finance-workflow/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting financial document workflow engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Persistence
	txManager := sqlite.NewDB(db.DB, logger)
	documentRepo := repository.NewDocumentRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)

	// Ingestion pipeline
	normalizer := ingest.NewNormalizer(ingest.Defaults{
		BaseCurrency:    cfg.Workflow.BaseCurrency,
		StandardVATRate: cfg.Workflow.StandardVATRate,
	}, nil)
	classifier := classify.NewClassifier(classify.DefaultTaxonomy())
	detector := dedup.NewDetector(cfg.Workflow.DedupEpsilon)

	recordStore := source.NewHTTPSource(cfg.Source.BaseURL, cfg.Source.Timeout, logger)
	var fallback port.DocumentSource
	if cfg.Source.SeedFallback {
		fallback = source.NewSeedSource()
	}

	// Application services
	serviceLogger := &zapLoggerAdapter{logger: logger}
	approvalService := service.NewApprovalService(
		documentRepo, auditRepo, txManager, cfg.Workflow.Thresholds(), serviceLogger)
	documentService := service.NewDocumentService(
		documentRepo, auditRepo, txManager, recordStore, fallback,
		normalizer, classifier, detector, serviceLogger)
	summaryService := service.NewSummaryService(documentRepo, serviceLogger)

	// HTTP interface
	tokens := httpapi.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, approvalService, documentService, summaryService, tokens, serviceLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}

// zapLoggerAdapter adapts zap.Logger to the service and http Logger
// interfaces.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
