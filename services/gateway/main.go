// gateway is the public-facing HTTP service.
// It accepts generation requests, publishes them as funcgen.requested,
// and relays funcgen.* and log.event messages to WebSocket clients.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/funcforge/internal/config"
	"github.com/forge-ai/funcforge/internal/gateway"
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
		log.Info().Msg("shutdown signal, stopping gateway")
		cancel()
	}()

	broker, err := mq.New(ctx, cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("mq connect")
	}
	defer broker.Close()

	deliveries, err := broker.SubscribeTransient(events.FuncgenComplete, events.FuncgenFailed, "log.#")
	if err != nil {
		log.Fatal().Err(err).Msg("subscribe")
	}

	if err := gateway.New(broker).Run(ctx, ":"+cfg.Port, deliveries); err != nil {
		log.Fatal().Err(err).Msg("gateway exited")
	}
}
