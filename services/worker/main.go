// worker subscribes to funcgen.requested, asks the model for a solve
// function, runs it against the examples in the sandbox and publishes
// funcgen.complete or funcgen.failed.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/funcforge/internal/codegen"
	"github.com/forge-ai/funcforge/internal/config"
	"github.com/forge-ai/funcforge/internal/provider"
	"github.com/forge-ai/funcforge/internal/sandbox"
	"github.com/forge-ai/funcforge/internal/worker"
	"github.com/forge-ai/funcforge/shared/events"
	"github.com/forge-ai/funcforge/shared/mq"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info().Msg("shutdown signal, stopping worker")
		cancel()
	}()

	p, err := provider.New(cfg.Provider, cfg.ProviderOptions())
	if err != nil {
		log.Fatal().Err(err).Str("key", cfg.APIKeyVar()).Msg("provider")
	}
	runner, err := sandbox.New(cfg.SandboxOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("sandbox")
	}

	broker, err := mq.New(ctx, cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("mq connect")
	}
	defer broker.Close()

	deliveries, err := broker.Subscribe("svc.worker", events.FuncgenRequested)
	if err != nil {
		log.Fatal().Err(err).Msg("subscribe")
	}

	log.Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Str("runner", cfg.Runner).
		Msg("worker started")

	h := worker.NewHandler(codegen.New(p), runner, broker)
	if err := worker.Consume(ctx, deliveries, h); err != nil {
		log.Fatal().Err(err).Msg("worker exited")
	}
}
