package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"citechat/internal/config"
	"citechat/internal/contextacc"
	"citechat/internal/httpapi"
	"citechat/internal/llm"
	"citechat/internal/ratelimit"
	"citechat/internal/render"
	"citechat/internal/scraper"
	"citechat/internal/share"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Shared Redis client: rate-limit counters and the share store. The
	// service stays up without it (the limiter fails open, sharing
	// degrades), so a failed ping is a warning, not a fatal.
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable at startup, continuing degraded", zap.Error(err))
	}
	cancelPing()

	classifier := scraper.NewMarkerClassifierFromFile(cfg.Scraper.MarkersPath, logger)
	dispatcher := scraper.NewDispatcher(scraper.Config{
		Timeout:      cfg.Scraper.Timeout,
		UserAgent:    cfg.Scraper.UserAgent,
		MaxBodyBytes: cfg.Scraper.MaxBodyBytes,
	}, classifier, scraper.NewChromeRenderer(), logger)

	accumulator := contextacc.New(dispatcher, logger)

	model := llm.NewGeminiClient(llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	}, logger)

	limiter := ratelimit.New(rdb, cfg.RateLimit.Threshold, cfg.RateLimit.Window, logger)
	shareStore := share.NewStore(rdb, cfg.Share.TTL, logger)
	renderer := render.New()

	mux := http.NewServeMux()
	httpapi.NewChatHandler(accumulator, model, renderer, limiter, llm.GenerationConfig{
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxTokens,
	}, logger).RegisterRoutes(mux)
	httpapi.NewShareHandler(shareStore, logger).RegisterRoutes(mux)
	httpapi.NewHealthHandler(rdb, logger).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = parsed
	}
	return zcfg.Build()
}
