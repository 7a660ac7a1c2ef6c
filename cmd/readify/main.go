package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/ai"
	"github.com/COROTANjayson/readify/internal/config"
	"github.com/COROTANjayson/readify/internal/db"
	"github.com/COROTANjayson/readify/internal/embedcache"
	"github.com/COROTANjayson/readify/internal/filestore"
	"github.com/COROTANjayson/readify/internal/handler"
	"github.com/COROTANjayson/readify/internal/job"
	"github.com/COROTANjayson/readify/internal/middleware"
	"github.com/COROTANjayson/readify/internal/pkg/jwt"
	"github.com/COROTANjayson/readify/internal/ratelimit"
	"github.com/COROTANjayson/readify/internal/repo"
	"github.com/COROTANjayson/readify/internal/schedule"
	"github.com/COROTANjayson/readify/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "readify",
		Short: "readify document assistant backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run readify server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	var (
		tokenUser  string
		tokenEmail string
		tokenTTL   time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "mint a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if tokenUser == "" {
				return fmt.Errorf("--user is required")
			}
			token, err := jwt.GenerateToken(tokenUser, tokenEmail, cfg.JWTIssuer, []byte(cfg.JWTSecret), tokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id to embed")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "optional email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(runCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	return config.Load(path)
}

func buildGenerator(items []config.AIProviderConfig) ai.IGenerator {
	logger := logutil.GetLogger(context.Background())
	var entries []ai.GeneratorEntry
	for _, item := range items {
		provider, err := ai.NewProvider(item.Provider, item.Data)
		if err != nil {
			logger.Warn("skip generator", zap.String("provider", item.Provider), zap.Error(err))
			continue
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      provider.Name() + ":" + item.Model,
			Generator: ai.NewGenerator(provider, item.Model),
		})
	}
	return ai.NewGroupGenerator(entries)
}

func buildEmbedder(cfg config.AIConfig, cache *repo.EmbeddingCacheRepo) ai.IEmbedder {
	logger := logutil.GetLogger(context.Background())
	var entries []ai.EmbedderEntry
	for _, item := range cfg.Embedders {
		provider, err := ai.NewProvider(item.Provider, item.Data)
		if err != nil {
			logger.Warn("skip embedder", zap.String("provider", item.Provider), zap.Error(err))
			continue
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     provider.Name() + ":" + item.Model,
			Embedder: ai.NewEmbedder(provider, item.Model),
		})
	}
	embedder := ai.NewGroupEmbedder(entries)
	if embedder == nil {
		return nil
	}
	if cfg.EmbedDBCache && cache != nil {
		embedder = embedcache.WithStore(embedder, cache)
	}
	if cfg.EmbedCacheSize > 0 {
		embedder = embedcache.WithLRU(embedder, cfg.EmbedCacheSize, time.Duration(cfg.EmbedCacheTTL)*time.Second)
	}
	return embedder
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logger := logutil.GetLogger(context.Background())
	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("rate_limit", cfg.RateLimit.Backend),
	)

	fileRepo := repo.NewFileRepo(conn)
	summaryRepo := repo.NewSummaryRepo(conn)
	insightRepo := repo.NewInsightRepo(conn)
	presentationRepo := repo.NewPresentationRepo(conn)
	messageRepo := repo.NewMessageRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(conn)

	blobs, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	generator := buildGenerator(cfg.AI.Generators)
	embedder := buildEmbedder(cfg.AI, embedCacheRepo)
	if generator == nil || embedder == nil {
		return fmt.Errorf("at least one usable ai generator and embedder are required")
	}
	manager := ai.NewManager(generator, embedder, ai.ManagerConfig{Timeout: cfg.AI.Timeout})

	ledger := service.NewUsageLedger(fileRepo)
	retrieval := service.NewRetrievalService(manager, chunkRepo)
	rag := service.NewRAGOrchestrator(retrieval, manager)
	summaries := service.NewSummaryService(fileRepo, summaryRepo, ledger, rag)
	insights := service.NewInsightService(fileRepo, insightRepo, ledger, rag)
	presentations := service.NewPresentationService(fileRepo, presentationRepo, blobs, ledger, rag)
	chat := service.NewChatService(fileRepo, messageRepo, ledger, rag)
	maxUpload := int64(cfg.Upload.MaxSizeMB) * 1024 * 1024
	files := service.NewFileService(fileRepo, blobs, service.FileServiceConfig{
		MaxSizeBytes: maxUpload,
		Quota:        cfg.Quota,
	})
	ingest := service.NewIngestService(fileRepo, blobs, chunkRepo, manager, service.IngestConfig{
		MaxPages:         cfg.Upload.MaxPages,
		EmbedConcurrency: cfg.Jobs.IngestEmbedConcurrency,
		Lease:            time.Duration(cfg.Jobs.IngestLeaseSeconds) * time.Second,
	})

	limiter, closeLimiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("init rate limiter: %w", err)
	}
	defer func() {
		if err := closeLimiter(); err != nil {
			logger.Warn("close rate limiter failed", zap.Error(err))
		}
	}()

	deps := handler.RouterDeps{
		Files:         handler.NewFileHandler(files, summaries, insights, presentations, chat, maxUpload),
		Tools:         handler.NewToolHandler(summaries, insights, presentations, chat),
		Presentations: handler.NewPresentationHandler(presentations),
		Health:        handler.NewHealthHandler(fileRepo),
		Limiter:       limiter,
		JWTSecret:     []byte(cfg.JWTSecret),
		JWTIssuer:     cfg.JWTIssuer,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression,
				gzip.WithExcludedPaths([]string{"/api/v1/tools/message"}),
				gzip.WithExcludedPathsRegexs([]string{`^/api/v1/files/[^/]+/download/`}),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIngestJob(ingest, cfg.Jobs.IngestBatch), cfg.Jobs.IngestSpec); err != nil {
		return err
	}
	if cfg.AI.EmbedDBCache {
		cleanup := job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.Jobs.EmbedCacheMaxAgeDays)
		if err := scheduler.AddJob(cleanup, cfg.Jobs.EmbedCacheCleanupSpec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()
	logger.Info("http server listening", zap.String("addr", addr))

	<-ctx.Done()
	logger.Info("server stopping...")
	return nil
}
