package relay

import (
	"context"
	"errors"
	"fmt"

	"fashfolio/internal/models"
)

// MaxDiagnosticBytes bounds the stderr or response body kept on a failure.
const MaxDiagnosticBytes = 4 << 10

// Kind classifies a relay failure.
type Kind string

const (
	KindLaunch   Kind = "launch"
	KindExit     Kind = "exit"
	KindTimeout  Kind = "timeout"
	KindCanceled Kind = "canceled"
	KindStatus   Kind = "status"
	KindParse    Kind = "parse"
)

// Error is a failed relay invocation. Diagnostic holds the raw stderr or
// response body, truncated to MaxDiagnosticBytes.
type Error struct {
	Kind       Kind
	Target     Target
	Transport  string
	Diagnostic string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("relay %s %s: %s", e.Transport, e.Target, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AppError maps the failure onto the HTTP error taxonomy.
func (e *Error) AppError() *models.AppError {
	message := "AI Processing Failed"
	if e.Kind == KindParse {
		message = "AI Parsing Failed"
	}
	cause := error(e)
	if e.Kind == KindTimeout {
		cause = fmt.Errorf("%w: %w", models.ErrUpstreamTimeout, e)
	}
	details := e.Diagnostic
	if details == "" && e.Err != nil {
		details = e.Err.Error()
	}
	return models.NewExternalError(message, details, cause)
}

// AsAppError converts relay failures to AppErrors and passes anything else
// through unchanged.
func AsAppError(err error) error {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.AppError()
	}
	return err
}

// contextKind reports whether ctx ended and how.
func contextKind(ctx context.Context) (Kind, bool) {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return KindTimeout, true
	case errors.Is(ctx.Err(), context.Canceled):
		return KindCanceled, true
	}
	return "", false
}

func truncate(b []byte) string {
	if len(b) > MaxDiagnosticBytes {
		b = b[:MaxDiagnosticBytes]
	}
	return string(b)
}
