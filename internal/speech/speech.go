// Package speech synthesizes MP3 narration from text.
package speech

import (
	"context"
	"io"
)

// Synthesizer converts text to MP3 audio written to w.
type Synthesizer interface {
	// Name returns the backend name, e.g. "google".
	Name() string

	Synthesize(ctx context.Context, text string, w io.Writer) error
}
