package inference

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LoadFunc builds the analyzer behind a Handle.
type LoadFunc func(ctx context.Context) (Analyzer, error)

// Handle is the process-wide model resource. It loads on first use and
// never changes afterwards; a failed load stays failed.
type Handle struct {
	load     LoadFunc
	once     sync.Once
	analyzer Analyzer
	err      error
}

func NewHandle(load LoadFunc) *Handle {
	return &Handle{load: load}
}

// Static wraps an already built analyzer.
func Static(a Analyzer) *Handle {
	return NewHandle(func(context.Context) (Analyzer, error) { return a, nil })
}

// ServingLoader returns a LoadFunc for a TensorFlow Serving endpoint.
// An empty baseURL leaves the model unavailable.
func ServingLoader(baseURL, name string, size int) LoadFunc {
	return func(ctx context.Context) (Analyzer, error) {
		if baseURL == "" {
			return nil, ErrModelUnavailable
		}

		m := NewServingModel(baseURL, name, nil)
		if err := m.Status(ctx); err != nil {
			slog.Warn("model server not ready", "error", err, "model", name)
		}
		return NewAdapter(m, size), nil
	}
}

func (h *Handle) init() {
	h.once.Do(func() {
		if h.load == nil {
			h.err = ErrModelUnavailable
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		h.analyzer, h.err = h.load(ctx)
		if h.err != nil {
			slog.Warn("model unavailable", "error", h.err)
			return
		}
		slog.Info("model loaded")
	})
}

// Loaded reports whether the model can serve requests.
func (h *Handle) Loaded() bool {
	h.init()
	return h.err == nil && h.analyzer != nil
}

func (h *Handle) Analyze(ctx context.Context, image []byte) (Result, error) {
	h.init()
	if h.err != nil || h.analyzer == nil {
		return Result{}, ErrModelUnavailable
	}
	return h.analyzer.Analyze(ctx, image)
}
