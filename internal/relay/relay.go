// Package relay forwards whitelisted payloads to external AI scripts or an
// AI backend over HTTP and decodes their JSON replies.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"fashfolio/internal/middleware"
	"fashfolio/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

// Target names an external AI routine.
type Target string

const (
	TargetTrend   Target = "trend"
	TargetScoring Target = "scoring"
	TargetSeyna   Target = "seyna"
	TargetAgent   Target = "agent"
	TargetPixel   Target = "pixel"
)

// Transport executes one call against a target and returns its raw output.
// Failures are returned as *Error.
type Transport interface {
	Name() string
	Do(ctx context.Context, target Target, body []byte) ([]byte, error)
}

// Invoker is the relay contract consumed by services.
type Invoker interface {
	Invoke(ctx context.Context, target Target, payload, out interface{}) error
}

// Options tunes a Relay.
type Options struct {
	Timeout        time.Duration
	MaxConcurrency int64
}

// Relay applies the deadline, admission control and decoding around a
// Transport.
type Relay struct {
	transport Transport
	timeout   time.Duration
	sem       *semaphore.Weighted
}

var _ Invoker = (*Relay)(nil)

// New returns a Relay over transport.
func New(transport Transport, opts Options) *Relay {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	return &Relay{
		transport: transport,
		timeout:   opts.Timeout,
		sem:       semaphore.NewWeighted(opts.MaxConcurrency),
	}
}

// Transport returns the underlying transport name.
func (r *Relay) Transport() string {
	return r.transport.Name()
}

// Invoke marshals payload, sends it to target and decodes the JSON reply
// into out. The call is bounded by the relay timeout and by ctx.
func (r *Relay) Invoke(ctx context.Context, target Target, payload, out interface{}) (err error) {
	start := time.Now()
	name := r.transport.Name()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := observability.GetTraceLayer().TraceRelayCall(ctx, name, string(target))
	defer func() {
		outcome := "ok"
		var relayErr *Error
		if errors.As(err, &relayErr) {
			outcome = string(relayErr.Kind)
			span.SetAttributes(attribute.String("relay.failure", outcome))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			middleware.Logger.WarnContext(ctx, "AI relay call failed",
				slog.String("transport", name),
				slog.String("target", string(target)),
				slog.String("kind", outcome),
				slog.String("diagnostic", relayErr.Diagnostic),
			)
		}
		observability.ObserveRelay(name, string(target), outcome, start)
		span.End()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Kind: KindLaunch, Target: target, Transport: name, Err: err}
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		kind, ok := contextKind(ctx)
		if !ok {
			kind = KindCanceled
		}
		return &Error{Kind: kind, Target: target, Transport: name, Err: err}
	}
	defer r.sem.Release(1)

	observability.RelayInFlight.Inc()
	raw, err := r.transport.Do(ctx, target, body)
	observability.RelayInFlight.Dec()
	if err != nil {
		return err
	}

	return decode(raw, target, name, out)
}

func decode(raw []byte, target Target, transport string, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &Error{Kind: KindParse, Target: target, Transport: transport, Err: errors.New("empty output")}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &Error{Kind: KindParse, Target: target, Transport: transport, Diagnostic: truncate(trimmed), Err: err}
	}
	return nil
}
