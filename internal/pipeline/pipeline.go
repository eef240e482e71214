// Package pipeline wraps the external decode engines that turn a stream
// locator into raw RGB frames. The engine owns its own threads; frames
// arrive through a callback that must not block beyond handing the
// buffer off.
package pipeline

import (
	"fmt"

	"github.com/smazurov/camgrid/internal/logging"
)

// FrameFunc receives one decoded frame: row-major RGB, 3 bytes per
// pixel, no padding. The buffer is only valid for the duration of the
// call; receivers copy what they keep. Invoked on a thread owned by the
// decode engine.
type FrameFunc func(data []byte, width, height int)

// Pipeline is one decode instance bound to a single URL for its
// lifetime.
type Pipeline interface {
	// Start builds and launches the pipeline. Returns an error when
	// construction or the initial state transition fails.
	Start() error

	// Stop transitions the pipeline to an inert state and releases it.
	// Safe to call multiple times and on a never-started pipeline.
	Stop()
}

// Kind selects a decode backend. The set is closed and chosen once at
// construction; pipelines are never re-backed at runtime.
type Kind string

// Available backends.
const (
	KindGStreamer Kind = "gstreamer"
	KindSynthetic Kind = "synthetic"
)

// Config carries construction parameters common to all backends.
type Config struct {
	URL     string
	OnFrame FrameFunc
	Logger  logging.Logger

	// Synthetic backend only.
	Width  int
	Height int
	FPS    int
}

// New constructs a pipeline of the given kind.
func New(kind Kind, cfg Config) (Pipeline, error) {
	if cfg.OnFrame == nil {
		return nil, fmt.Errorf("pipeline: frame callback is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetLogger("pipeline")
	}

	switch kind {
	case KindGStreamer:
		return newGstPipeline(cfg), nil
	case KindSynthetic:
		return newSyntheticPipeline(cfg), nil
	default:
		return nil, fmt.Errorf("pipeline: unknown backend %q", kind)
	}
}
