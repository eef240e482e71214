// Package streams manages per-stream ingestion lifecycles and the
// aggregate slot assignment that feeds the compositor.
package streams

import (
	"sync"
	"time"

	"github.com/smazurov/camgrid/internal/events"
	"github.com/smazurov/camgrid/internal/logging"
	"github.com/smazurov/camgrid/internal/pipeline"
)

// State represents a stream worker's lifecycle state.
type State string

// Worker states.
const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StatePlaying  State = "playing"
	StateFailed   State = "failed"
)

// Worker owns exactly one decode pipeline for one URL and writes its
// frames into one compositor slot. The URL and slot index are fixed for
// the worker's lifetime.
type Worker struct {
	url  string
	slot int

	newPipeline func() (pipeline.Pipeline, error)
	logger      logging.Logger
	bus         *events.Bus

	mu    sync.Mutex
	state State
	pipe  pipeline.Pipeline
}

func newWorker(url string, slot int, factory func() (pipeline.Pipeline, error), bus *events.Bus, logger logging.Logger) *Worker {
	return &Worker{
		url:         url,
		slot:        slot,
		newPipeline: factory,
		logger:      logger,
		bus:         bus,
		state:       StateStopped,
	}
}

// URL returns the worker's immutable stream locator.
func (w *Worker) URL() string { return w.url }

// Slot returns the compositor slot this worker writes into.
func (w *Worker) Slot() int { return w.slot }

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start builds and launches the decode pipeline. A worker that is
// already playing is a successful no-op. On failure the worker is left
// in StateFailed with no pipeline; sibling workers are unaffected.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StatePlaying {
		w.logger.Debug("Stream already started", "url", w.url, "slot", w.slot)
		return nil
	}

	w.setStateLocked(StateStarting)

	pipe, err := w.newPipeline()
	if err != nil {
		w.setStateLocked(StateFailed)
		w.logger.Error("Failed to create pipeline", "url", w.url, "slot", w.slot, "error", err)
		return err
	}
	if err := pipe.Start(); err != nil {
		pipe.Stop()
		w.setStateLocked(StateFailed)
		w.logger.Error("Failed to start pipeline", "url", w.url, "slot", w.slot, "error", err)
		return err
	}

	w.pipe = pipe
	w.setStateLocked(StatePlaying)
	w.logger.Info("Stream started", "url", w.url, "slot", w.slot)
	return nil
}

// Stop halts and releases the pipeline. Safe to call repeatedly and on
// a worker that never started; always ends in StateStopped.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pipe != nil {
		w.pipe.Stop()
		w.pipe = nil
	}
	if w.state != StateStopped {
		w.setStateLocked(StateStopped)
	}
}

// setStateLocked records a transition and publishes it. Caller holds mu.
func (w *Worker) setStateLocked(s State) {
	w.state = s
	if w.bus != nil {
		w.bus.Publish(events.StreamStateChangedEvent{
			Slot:      w.slot,
			URL:       w.url,
			State:     string(s),
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}
