// Package caption turns images into short English descriptions using an
// image-to-text model hosted behind an inference API.
package caption

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/kdduha/image-narrator/internal/fetcher"
)

// ErrModelUnavailable is returned while the captioning model cannot be loaded.
var ErrModelUnavailable = errors.New("captioning model unavailable")

// Backend is a captioning model provider.
type Backend interface {
	// Name returns the backend name, e.g. "huggingface".
	Name() string

	// Load resolves the model and checks that it can serve captions. It is
	// called once at startup and again on demand while it keeps failing.
	Load(ctx context.Context) error

	// Caption returns a short description of img.
	Caption(ctx context.Context, img *fetcher.Image) (string, error)
}

// Model owns the process-wide captioning backend. It is built once in main
// and passed to the services that need it.
type Model struct {
	logger  *log.Logger
	backend Backend

	loadMu sync.Mutex // one load attempt at a time
	loaded atomic.Bool

	// Held around inference when the backend is not safe for concurrent use.
	serialize bool
	inferMu   sync.Mutex
}

func NewModel(logger *log.Logger, backend Backend, serialize bool) *Model {
	return &Model{
		logger:    logger,
		backend:   backend,
		serialize: serialize,
	}
}

func (m *Model) Name() string { return m.backend.Name() }

// Init performs the startup load. A failure is logged and returned, the
// model stays unloaded and Ensure will try again later.
func (m *Model) Init(ctx context.Context) error {
	if err := m.Ensure(ctx); err != nil {
		m.logger.Printf("error loading caption model (%s): %v\n", m.backend.Name(), err)
		return err
	}
	m.logger.Printf("caption model loaded (%s)\n", m.backend.Name())
	return nil
}

// Ensure loads the backend if it is not loaded yet. Concurrent callers wait
// for a single load attempt.
func (m *Model) Ensure(ctx context.Context) error {
	if m.Loaded() {
		return nil
	}

	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	if m.loaded.Load() {
		return nil
	}

	if err := m.backend.Load(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	m.loaded.Store(true)
	return nil
}

// Loaded reports whether the model is ready. It never waits on a load in
// progress.
func (m *Model) Loaded() bool {
	return m.loaded.Load()
}

func (m *Model) Caption(ctx context.Context, img *fetcher.Image) (string, error) {
	if !m.Loaded() {
		return "", ErrModelUnavailable
	}

	if m.serialize {
		m.inferMu.Lock()
		defer m.inferMu.Unlock()
	}
	return m.backend.Caption(ctx, img)
}
