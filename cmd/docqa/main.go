package main

import (
	"context"
	"database/sql"
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

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/db"
	"github.com/xxxsen/docqa/internal/embedcache"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/handler"
	"github.com/xxxsen/docqa/internal/job"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/repo"
	"github.com/xxxsen/docqa/internal/retrieval"
	"github.com/xxxsen/docqa/internal/schedule"
	"github.com/xxxsen/docqa/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docqa",
		Short: "document question answering backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the docqa server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
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
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("embed_provider", cfg.AI.Embed.Provider),
		zap.String("embed_model", cfg.AI.Embed.Model),
	)

	userRepo := repo.NewUserRepo(conn)
	apiKeyRepo := repo.NewAPIKeyRepo(conn)
	docRepo := repo.NewDocumentRepo(conn)
	sessionRepo := repo.NewChatSessionRepo(conn)
	emailCodeRepo := repo.NewEmailVerificationRepo(conn)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(conn)

	embedder, err := buildEmbedder(cfg, embedCacheRepo)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	providers, err := ai.NewRegistry(cfg.AI.Providers)
	if err != nil {
		return fmt.Errorf("init ai providers: %w", err)
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	retriever := retrieval.NewRetriever(docRepo, embedder,
		time.Duration(cfg.Retrieval.TimeoutMs)*time.Millisecond)

	mailSender := service.NewEmailSender(cfg.Mail)
	verifyService := service.NewVerificationService(emailCodeRepo, mailSender)
	authService := service.NewAuthService(userRepo, verifyService,
		[]byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, cfg.AI.Embed.Model, cfg.AI.Embed.Dimension)
	ingestService := service.NewIngestService(apiKeyRepo, docRepo, embedder, store,
		cfg.Chunking.UploadChunkSize, cfg.Chunking.IngestChunkSize)
	chatService := service.NewChatService(apiKeyRepo, docRepo, sessionRepo, retriever, providers,
		cfg.Retrieval.TopK, time.Duration(cfg.AI.Timeout)*time.Second)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Keys:      handler.NewAPIKeyHandler(apiKeyService),
		Documents: handler.NewDocumentHandler(ingestService, store),
		Chat:      handler.NewChatHandler(chatService),
		Files:     handler.NewFileHandler(store),
		JWTSecret: []byte(cfg.JWTSecret),
		RateLimit: time.Duration(cfg.RateLimitMs) * time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewVerificationCleanupJob(emailCodeRepo), "0 * * * *"); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embedCacheRepo, 30), "30 3 * * *"); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// buildEmbedder stacks the cache tiers around the configured embedding
// provider: in-process LRU first, then the shared database cache.
func buildEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	args := cfg.AI.Providers[cfg.AI.Embed.Provider]
	provider, err := ai.NewEmbedProvider(cfg.AI.Embed.Provider, args)
	if err != nil {
		return nil, err
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.Embed.Model)
	if cfg.AI.Embed.EnableDBCache {
		embedder = embedcache.WithStore(embedder, cacheRepo)
	}
	ttl := time.Duration(cfg.AI.Embed.CacheTTLMin) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return embedcache.WithLRU(embedder, cfg.AI.Embed.CacheSize, ttl), nil
}
