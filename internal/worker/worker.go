// Package worker turns funcgen.requested messages into generated, validated
// code and publishes the outcome.
package worker

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/funcforge/internal/codegen"
	"github.com/forge-ai/funcforge/internal/funcspec"
	"github.com/forge-ai/funcforge/internal/sandbox"
	"github.com/forge-ai/funcforge/internal/validate"
	"github.com/forge-ai/funcforge/shared/events"
	"github.com/forge-ai/funcforge/shared/mq"
)

// ErrInterrupted is returned when the worker is stopping while a job is in
// progress. Nothing is published for the job.
var ErrInterrupted = errors.New("job interrupted")

// Generator produces code for a spec. *codegen.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, spec funcspec.FuncSpec) (*codegen.Result, error)
}

type Handler struct {
	gen    Generator
	runner sandbox.Runner
	pub    mq.Publisher
}

func NewHandler(gen Generator, runner sandbox.Runner, pub mq.Publisher) *Handler {
	return &Handler{gen: gen, runner: runner, pub: pub}
}

// Handle processes one funcgen.requested message. Problems with the request
// itself are published as funcgen.failed; the returned error reports that a
// result could not be published, or ErrInterrupted when ctx ended first.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	p, err := events.Unwrap[events.FuncgenRequestedPayload](body)
	if err != nil {
		return h.fail(ctx, "", events.StepDecode, fmt.Errorf("decode request: %w", err))
	}
	if err := funcspec.Validate(p.Spec); err != nil {
		return h.fail(ctx, p.JobID, events.StepDecode, err)
	}

	log.Info().
		Str("job", p.JobID).
		Int("examples", len(p.Spec.Examples)).
		Msg("generating code")
	h.emitLog(ctx, p.JobID, "info", events.StepGenerate, "requesting code from model")

	res, err := h.gen.Generate(ctx, p.Spec)
	if ctx.Err() != nil {
		return fmt.Errorf("%w: job %s: %v", ErrInterrupted, p.JobID, ctx.Err())
	}
	if err != nil {
		return h.fail(ctx, p.JobID, events.StepGenerate, err)
	}

	out := events.FuncgenCompletePayload{
		JobID:    p.JobID,
		Thinking: res.Thinking,
		Code:     res.Code,
		Failures: []events.FailureRecord{},
	}

	if !p.SkipValidate {
		h.emitLog(ctx, p.JobID, "info", events.StepValidate, "running examples")
		failures, err := validate.Validate(ctx, h.runner, p.Spec, res.Code)
		if ctx.Err() != nil {
			return fmt.Errorf("%w: job %s: %v", ErrInterrupted, p.JobID, ctx.Err())
		}
		if err != nil {
			return h.fail(ctx, p.JobID, events.StepValidate, err)
		}
		out.Validated = true
		out.Passed = len(failures) == 0
		for _, f := range failures {
			out.Failures = append(out.Failures, Record(f))
		}
	}

	log.Info().
		Str("job", p.JobID).
		Bool("validated", out.Validated).
		Bool("passed", out.Passed).
		Int("failures", len(out.Failures)).
		Msg("generation complete")
	return h.publish(ctx, events.FuncgenComplete, out)
}

// Record converts a validation failure to its wire form.
func Record(f validate.Failure) events.FailureRecord {
	if f.Mismatch() {
		return events.FailureRecord{
			Kind:     events.KindMismatch,
			Input:    f.Input,
			Expected: f.Expected,
			Actual:   f.Actual,
		}
	}
	return events.FailureRecord{
		Kind:     events.KindError,
		Input:    f.Input,
		Expected: f.Expected,
		Error:    f.Err.Error(),
	}
}

func (h *Handler) fail(ctx context.Context, jobID, step string, cause error) error {
	log.Error().Err(cause).Str("job", jobID).Str("step", step).Msg("generation failed")
	return h.publish(ctx, events.FuncgenFailed, events.FuncgenFailedPayload{
		JobID: jobID,
		Error: cause.Error(),
		Step:  step,
	})
}

func (h *Handler) publish(ctx context.Context, routingKey string, payload any) error {
	b, err := events.Wrap(routingKey, payload)
	if err != nil {
		return err
	}
	if err := h.pub.Publish(ctx, routingKey, b); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// emitLog is best effort; a lost progress line is not worth failing a job.
func (h *Handler) emitLog(ctx context.Context, jobID, level, step, message string) {
	err := h.publish(ctx, events.LogEvent, events.LogEventPayload{
		JobID:   jobID,
		Level:   level,
		Step:    step,
		Message: message,
	})
	if err != nil {
		log.Debug().Err(err).Str("job", jobID).Msg("log event dropped")
	}
}

// Consume handles deliveries one at a time until ctx is done or the channel
// closes. Every delivery is acked once handled, since the result (success or
// failure) has been published. A delivery whose result could not be published
// is dropped without requeueing; one interrupted by shutdown is requeued for
// the next worker.
func Consume(ctx context.Context, deliveries <-chan amqp.Delivery, h *Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			err := h.Handle(ctx, d.Body)
			switch {
			case errors.Is(err, ErrInterrupted):
				log.Warn().Err(err).Msg("requeueing job")
				d.Nack(false, true)
			case err != nil:
				log.Error().Err(err).Str("key", d.RoutingKey).Msg("handler error")
				d.Nack(false, false)
			default:
				d.Ack(false)
			}
		}
	}
}
