// Command sentineld runs the agent orchestration runtime: the supervisor,
// the memory dreamer, and the HTTP gateway.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sentinel/internal/auth"
	"sentinel/internal/config"
	"sentinel/internal/embedding"
	"sentinel/internal/engine"
	"sentinel/internal/gateway"
	"sentinel/internal/llm/anthropic"
	"sentinel/internal/memory/dreamer"
	"sentinel/internal/memory/summary"
	"sentinel/internal/memory/vector"
	"sentinel/internal/observability"
)

func main() {
	if err := run(); err != nil {
		observability.Logger.Fatal().Err(err).Msg("sentineld")
	}
}

func run() error {
	cfg := config.Load()

	summaries, err := summary.Open(context.Background(), cfg.SummaryStorePath)
	if err != nil {
		observability.Logger.Error().Err(err).Msg("failed to open summary store")
		os.Exit(2)
	}
	defer summaries.Close()

	vectors := vector.NewInMemory(1536)

	var embedder embedding.Embedder
	if cfg.OpenAIAPIKey != "" {
		embedder = embedding.NewOpenAI(embedding.OpenAIConfig{APIKey: cfg.OpenAIAPIKey}, nil)
	} else {
		embedder = embedding.NewDeterministic(1536)
	}

	keys := auth.NewKeyStore()
	loaded := keys.LoadFromEnv()
	observability.Logger.Info().Int("count", loaded).Msg("loaded API keys from environment")

	newProvider := func() engine.LLMResponder {
		return anthropic.New(anthropic.Config{APIKey: cfg.AnthropicAPIKey}, nil)
	}
	supervisor := engine.NewSupervisor(newProvider).
		WithHealthCheckInterval(cfg.HealthCheckInterval).
		WithZombieTimeout(cfg.ZombieTimeout)

	dream := dreamer.New(summaries, vectors, embedder)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go supervisor.Run(ctx)
	go dream.Run(ctx)

	server := gateway.NewServer(supervisor, keys)
	httpServer := &http.Server{Addr: cfg.Addr(), Handler: server}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	observability.Logger.Info().Str("addr", cfg.Addr()).Msg("sentineld listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server failed: %w", err)
	}

	observability.Logger.Info().Msg("sentineld shut down cleanly")
	return nil
}
