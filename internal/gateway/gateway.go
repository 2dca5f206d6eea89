// Package gateway is the HTTP face of the service: it queues generation
// requests and relays results to WebSocket clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/forge-ai/funcforge/shared/mq"
)

type Gateway struct {
	pub mq.Publisher
	hub *Hub
}

func New(pub mq.Publisher) *Gateway {
	return &Gateway{pub: pub, hub: NewHub()}
}

// Run serves HTTP on addr and relays deliveries to the hub until ctx is done
// or one of them fails.
func (g *Gateway) Run(ctx context.Context, addr string, deliveries <-chan amqp.Delivery) error {
	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error { return g.hub.Run(ctx) })
	grp.Go(func() error { return g.Relay(ctx, deliveries) })
	grp.Go(func() error { return g.serve(ctx, addr) })

	return grp.Wait()
}

func (g *Gateway) serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     g.Handler(),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Info().Str("addr", addr).Msg("gateway online")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Relay forwards every delivery body to the WebSocket clients as is.
func (g *Gateway) Relay(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			log.Debug().Str("key", d.RoutingKey).Msg("relaying event")
			g.hub.Broadcast(d.Body)
			d.Ack(false)
		}
	}
}
