package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/render"
	"github.com/tsawler/spectra/sandbox"
)

// Stage identifies where in the pipeline an event occurred.
type Stage string

const (
	StageReceived  Stage = "received"
	StageDetecting Stage = "detecting"
	StageParsing   Stage = "parsing"
	StageRendering Stage = "rendering"
	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
)

// Kind classifies a pipeline failure. Callers branch on Kind instead of
// matching error strings.
type Kind int

const (
	// KindInternalFault covers parser panics and other defects in the
	// processing code itself. The input may be fine.
	KindInternalFault Kind = iota

	// KindDetectionInconclusive means no format candidate was found.
	KindDetectionInconclusive

	// KindNoParserAvailable means the format was recognized but nothing
	// is registered to parse it.
	KindNoParserAvailable

	// KindMalformedInput covers structurally invalid input, including
	// empty input.
	KindMalformedInput

	// KindInputTooLarge means the input exceeded the admission ceiling.
	KindInputTooLarge

	// KindMemoryLimitExceeded means parsing tripped the sandbox memory
	// guard.
	KindMemoryLimitExceeded

	// KindTimeout means parsing exceeded its wall-clock limit.
	KindTimeout

	// KindUnsupportedRenderTarget means no renderer serves the requested
	// target.
	KindUnsupportedRenderTarget

	// KindCanceled means the caller's context ended the job.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindDetectionInconclusive:
		return "detection_inconclusive"
	case KindNoParserAvailable:
		return "no_parser_available"
	case KindMalformedInput:
		return "malformed_input"
	case KindInputTooLarge:
		return "input_too_large"
	case KindMemoryLimitExceeded:
		return "memory_limit_exceeded"
	case KindTimeout:
		return "timeout"
	case KindUnsupportedRenderTarget:
		return "unsupported_render_target"
	case KindCanceled:
		return "canceled"
	default:
		return "internal_fault"
	}
}

// Error is the typed failure every pipeline operation returns.
type Error struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline %s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the same input might succeed on a later
// attempt: timeouts, memory-limit trips and internal faults can be
// transient or resolvable with adjusted limits, everything the input
// itself caused cannot.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindMemoryLimitExceeded, KindInternalFault, KindCanceled:
		return true
	default:
		return false
	}
}

// InputError reports whether the input, not the pipeline, caused the
// failure.
func (e *Error) InputError() bool {
	switch e.Kind {
	case KindDetectionInconclusive, KindNoParserAvailable, KindMalformedInput,
		KindInputTooLarge, KindUnsupportedRenderTarget:
		return true
	default:
		return false
	}
}

// fail wraps err into a stage-tagged *Error, classifying it by the
// sentinel it carries. Existing *Error values pass through unchanged.
func fail(stage Stage, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Stage: stage, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, sandbox.ErrTimeout):
		return KindTimeout
	case errors.Is(err, sandbox.ErrMemoryLimit):
		return KindMemoryLimitExceeded
	case errors.Is(err, parser.ErrMalformed):
		return KindMalformedInput
	case errors.Is(err, parser.ErrNoParser):
		return KindNoParserAvailable
	case errors.Is(err, render.ErrUnknownTarget):
		return KindUnsupportedRenderTarget
	case errors.Is(err, render.ErrNoPages):
		return KindMalformedInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternalFault
	}
}
