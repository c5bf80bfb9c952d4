package service

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure for the caller.
type Kind int

const (
	// KindInput means the request itself was unusable, e.g. the image could
	// not be fetched.
	KindInput Kind = iota
	KindModelUnavailable
	// KindProcessing covers failures on data we did receive, such as bytes
	// that are not an image or a caption backend error.
	KindProcessing
	KindUpstream
	KindSynthesis
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindProcessing:
		return "processing"
	case KindUpstream:
		return "upstream"
	case KindSynthesis:
		return "synthesis"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StageError reports which pipeline stage failed and why.
type StageError struct {
	Stage string
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Detail is the message shown to API callers.
func (e *StageError) Detail() string {
	switch e.Kind {
	case KindInput:
		return fmt.Sprintf("Error fetching image: %v", e.Err)
	case KindModelUnavailable:
		return modelUnavailableDetail
	case KindUpstream:
		return fmt.Sprintf("Narrative API error: %v", e.Err)
	case KindSynthesis:
		return fmt.Sprintf("Text-to-speech error: %v", e.Err)
	default:
		return fmt.Sprintf("Image analysis failed: %v", e.Err)
	}
}

// AsStageError unwraps err into a StageError when possible.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
