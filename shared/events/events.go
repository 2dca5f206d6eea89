// Package events defines the message contract published on RabbitMQ.
// The worker and the gateway share only this package; they never call each other.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/forge-ai/funcforge/internal/funcspec"
)

// ── Routing keys (RabbitMQ topic exchange: funcforge.events) ─────────────────
const (
	FuncgenRequested = "funcgen.requested"
	FuncgenComplete  = "funcgen.complete"
	FuncgenFailed    = "funcgen.failed"
	LogEvent         = "log.event"
)

// Failed steps reported in FuncgenFailedPayload.Step.
const (
	StepDecode   = "decode"
	StepGenerate = "generate"
	StepValidate = "validate"
)

// FailureRecord kinds.
const (
	KindMismatch = "mismatch"
	KindError    = "error"
)

// ── Envelope wraps every message ─────────────────────────────────────────────

type Envelope struct {
	ID         string          `json:"id"`
	RoutingKey string          `json:"routing_key"`
	Timestamp  time.Time       `json:"ts"`
	Payload    json.RawMessage `json:"payload"`
}

func Wrap(routingKey string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		ID:         uuid.New().String(),
		RoutingKey: routingKey,
		Timestamp:  time.Now(),
		Payload:    p,
	})
}

func Unwrap[T any](raw []byte) (*T, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	var t T
	return &t, json.Unmarshal(env.Payload, &t)
}

func UnwrapEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	return &env, json.Unmarshal(raw, &env)
}

// ── Payload types ─────────────────────────────────────────────────────────────

type FuncgenRequestedPayload struct {
	JobID        string            `json:"job_id"`
	Spec         funcspec.FuncSpec `json:"spec"`
	SkipValidate bool              `json:"skip_validate,omitempty"`
}

// FailureRecord is the wire form of one validation failure. Input and
// Expected are empty for failures of the whole program.
type FailureRecord struct {
	Kind     string `json:"kind"`
	Input    string `json:"input,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`
}

type FuncgenCompletePayload struct {
	JobID     string          `json:"job_id"`
	Thinking  string          `json:"thinking"`
	Code      string          `json:"code"`
	Validated bool            `json:"validated"`
	Passed    bool            `json:"passed"`
	Failures  []FailureRecord `json:"failures"`
}

type FuncgenFailedPayload struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
	Step  string `json:"step"`
}

type LogEventPayload struct {
	JobID   string         `json:"job_id"`
	Level   string         `json:"level"`
	Step    string         `json:"step"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}
