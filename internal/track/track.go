// Package track attaches cost accounting to call-producing functions.
//
// DESIGN: Wrap composes a bookkeeping step around an arbitrary
// (ctx, request) -> (response, error) function without touching its logic or
// signature. The wrapped function's own result and error always pass through
// unchanged; tracking failures are strictly additive. The one documented
// exception is Strict mode, where a usage-extraction or recording failure
// aborts the combined call so that every returned success has a cost entry.
package track

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tokenmeter/tokenmeter/internal/ledger"
)

// Usage is the token consumption reported by one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// UsageReporter is the default extraction contract: a response type that
// knows its own token counts. Responses that do not implement it need
// WithExtractor.
type UsageReporter interface {
	TokenUsage() (inputTokens, outputTokens int)
}

// UsageExtractionError reports that a successful response carried no
// recoverable usage data.
type UsageExtractionError struct {
	Err error
}

func (e *UsageExtractionError) Error() string {
	return fmt.Sprintf("extracting token usage: %v", e.Err)
}

func (e *UsageExtractionError) Unwrap() error {
	return e.Err
}

// Mode selects how tracking failures on a successful call are handled.
type Mode int

const (
	// Strict propagates extraction and recording failures; the target's
	// result is dropped and no record is made.
	Strict Mode = iota
	// BestEffort reports failures through the error handler and still
	// returns the target's original result.
	BestEffort
)

// Observer receives tracking lifecycle events, e.g. for metrics.
type Observer interface {
	CallSucceeded(model string)
	CallFailed(model string)
	TrackingFailed(model string)
}

type settings[Resp any] struct {
	extractor func(Resp) (Usage, error)
	mode      Mode
	onError   func(error)
	observer  Observer
}

// Option configures a wrapped function.
type Option[Resp any] func(*settings[Resp])

// WithExtractor supplies a custom usage extractor for response types that do
// not implement UsageReporter.
func WithExtractor[Resp any](fn func(Resp) (Usage, error)) Option[Resp] {
	return func(s *settings[Resp]) { s.extractor = fn }
}

// WithMode sets the failure mode. Default is Strict.
func WithMode[Resp any](m Mode) Option[Resp] {
	return func(s *settings[Resp]) { s.mode = m }
}

// WithErrorHandler sets the BestEffort side channel. Default logs via zerolog.
func WithErrorHandler[Resp any](fn func(error)) Option[Resp] {
	return func(s *settings[Resp]) { s.onError = fn }
}

// WithObserver attaches a tracking observer.
func WithObserver[Resp any](obs Observer) Option[Resp] {
	return func(s *settings[Resp]) { s.observer = obs }
}

// Wrap returns a function with the same contract as target that records the
// call's cost against calc under model. If target fails, its error is
// returned unchanged and nothing is recorded; a cancelled target call is just
// a target failure.
func Wrap[Req, Resp any](
	target func(context.Context, Req) (Resp, error),
	calc *ledger.Calculator,
	model string,
	opts ...Option[Resp],
) func(context.Context, Req) (Resp, error) {
	s := settings[Resp]{
		mode: Strict,
		onError: func(err error) {
			log.Warn().Err(err).Str("model", model).Msg("cost tracking failed")
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.extractor == nil {
		s.extractor = reporterUsage[Resp]
	}

	return func(ctx context.Context, req Req) (Resp, error) {
		resp, err := target(ctx, req)
		if err != nil {
			if s.observer != nil {
				s.observer.CallFailed(model)
			}
			return resp, err
		}

		usage, err := s.extractor(resp)
		if err != nil {
			return s.trackingFailure(resp, model, wrapExtraction(err))
		}
		if _, err := calc.RecordCall(model, usage.InputTokens, usage.OutputTokens); err != nil {
			return s.trackingFailure(resp, model, err)
		}

		if s.observer != nil {
			s.observer.CallSucceeded(model)
		}
		return resp, nil
	}
}

// trackingFailure applies the configured mode to a tracking error on an
// otherwise successful call.
func (s *settings[Resp]) trackingFailure(resp Resp, model string, err error) (Resp, error) {
	if s.observer != nil {
		s.observer.TrackingFailed(model)
	}
	if s.mode == Strict {
		var zero Resp
		return zero, err
	}
	s.onError(err)
	return resp, nil
}

// reporterUsage extracts usage via the UsageReporter contract.
func reporterUsage[Resp any](resp Resp) (Usage, error) {
	r, ok := any(resp).(UsageReporter)
	if !ok {
		return Usage{}, fmt.Errorf("response type %T does not implement UsageReporter", resp)
	}
	in, out := r.TokenUsage()
	return Usage{InputTokens: in, OutputTokens: out}, nil
}

func wrapExtraction(err error) error {
	if _, ok := err.(*UsageExtractionError); ok {
		return err
	}
	return &UsageExtractionError{Err: err}
}
