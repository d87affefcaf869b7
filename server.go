package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"combatai/internal/battle"
	"combatai/internal/config"
	HDb "combatai/internal/db"
	"combatai/internal/image"
	"combatai/internal/llm"
	"combatai/internal/session"
	"combatai/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v3"
)

const mockFragmentDelay = 100 * time.Millisecond

type services struct {
	verdicts *battle.VerdictService
	mock     *battle.VerdictService
	images   battle.ImageGenerator
	battles  *store.Service
	sessions session.Service
}

func runServer(ctx context.Context, cmd *cli.Command) error {
	// Load configuration
	cfg, err := config.LoadConfig(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port := cmd.String("port"); port != "" {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize services
	openAIProvider := llm.NewOpenAIProvider(llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL))
	provider, err := newChatProvider(ctx, cfg, openAIProvider)
	if err != nil {
		return err
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	images, err := image.NewService(openAIProvider, resty.New().SetTimeout(cfg.Server.RelayTimeout), image.Options{
		Model:     cfg.OpenAI.ImageModel,
		Size:      cfg.OpenAI.ImageSize,
		Dir:       cfg.Image.Dir,
		URLPrefix: cfg.Image.URLPrefix,
		Modifiers: cfg.Image.Modifiers,
	})
	if err != nil {
		return fmt.Errorf("failed to create image service: %w", err)
	}

	repo, err := newRepository(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Error("failed to close battle store", "error", err)
		}
	}()

	params := battle.SamplingParams{
		Model:       chatModel(cfg),
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}

	router := newRouter(cfg, services{
		verdicts: battle.NewVerdictService(provider, params),
		mock:     battle.NewVerdictService(llm.NewScriptedProvider(llm.MockBattleFragments, mockFragmentDelay), params),
		images:   images,
		battles:  store.NewService(repo),
		sessions: session.NewServiceImpl(cfg.JWT),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "port", cfg.Server.Port, "provider", cfg.LLM.Provider, "store", cfg.Store.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func newRouter(cfg *config.Config, svc services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecoveryWithWriter(io.Discard, recoveryHandler))

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     cfg.CORS.AllowMethods,
		AllowHeaders:     cfg.CORS.AllowHeaders,
		ExposeHeaders:    cfg.CORS.ExposeHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.Static(cfg.Image.URLPrefix, cfg.Image.Dir)

	battle.NewController(svc.verdicts, svc.mock, svc.images, cfg.Server.RelayTimeout).RegisterRoutes(router)
	session.NewControllerImpl(svc.sessions).RegisterRoutes(router)

	protected := router.Group("/", session.Middleware(svc.sessions))
	store.NewController(svc.battles).RegisterRoutes(protected)

	return router
}

// recoveryHandler answers 500 for unexpected panics but lets
// http.ErrAbortHandler through so net/http drops the connection of an
// aborted stream.
func recoveryHandler(c *gin.Context, recovered any) {
	if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
		panic(http.ErrAbortHandler)
	}
	slog.Error("panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

// newChatProvider picks the judge backend. The image API is always OpenAI.
func newChatProvider(ctx context.Context, cfg *config.Config, openAIProvider *llm.OpenAIProvider) (llm.AIProvider, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAI.APIKey)
		if err != nil {
			return nil, err
		}
		return llm.NewGeminiAIProvider(client, cfg.GeminiAI.Model), nil
	default:
		return openAIProvider, nil
	}
}

func chatModel(cfg *config.Config) string {
	if cfg.LLM.Provider == config.ProviderGemini {
		return cfg.GeminiAI.Model
	}
	return cfg.OpenAI.ChatModel
}

func newRepository(ctx context.Context, cfg config.StoreConfig) (store.Repository, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		db, err := HDb.NewHDb("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return store.NewPostgresRepository(db), nil
	default:
		repo, err := store.NewBoltRepository(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open battle store: %w", err)
		}
		return repo, nil
	}
}
