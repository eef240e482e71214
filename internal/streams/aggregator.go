package streams

import (
	"sync"

	"github.com/smazurov/camgrid/internal/events"
	"github.com/smazurov/camgrid/internal/logging"
	"github.com/smazurov/camgrid/internal/metrics"
	"github.com/smazurov/camgrid/internal/pipeline"
	"github.com/smazurov/camgrid/internal/render"
)

// PipelineFactory constructs decode pipelines; tests substitute fakes.
type PipelineFactory func(kind pipeline.Kind, cfg pipeline.Config) (pipeline.Pipeline, error)

// Options configures an Aggregator.
type Options struct {
	Compositor *render.Compositor
	Backend    pipeline.Kind
	Bus        *events.Bus
	Logger     logging.Logger
	Factory    PipelineFactory // nil means pipeline.New
}

// Aggregator owns the collection of stream workers and hands out slot
// indices. Indices are sequential, never reused, and never compacted;
// the compositor's grid capacity is sized from the expected stream count
// at construction, so indices double as grid cells.
type Aggregator struct {
	compositor *render.Compositor
	backend    pipeline.Kind
	bus        *events.Bus
	logger     logging.Logger
	factory    PipelineFactory

	mu      sync.Mutex
	workers []*Worker
}

// NewAggregator creates an aggregator that feeds the given compositor.
func NewAggregator(opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("streams")
	}
	factory := opts.Factory
	if factory == nil {
		factory = pipeline.New
	}
	backend := opts.Backend
	if backend == "" {
		backend = pipeline.KindGStreamer
	}
	return &Aggregator{
		compositor: opts.Compositor,
		backend:    backend,
		bus:        opts.Bus,
		logger:     logger,
		factory:    factory,
	}
}

// Register assigns the next slot index to url, constructs its worker,
// and starts it. A worker whose pipeline fails to start still keeps its
// slot (state Failed, logged); registration order defines the grid.
func (a *Aggregator) Register(url string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot := len(a.workers)
	factory := func() (pipeline.Pipeline, error) {
		return a.factory(a.backend, pipeline.Config{
			URL:    url,
			Logger: a.logger,
			OnFrame: func(data []byte, width, height int) {
				a.compositor.Push(slot, data, width, height)
			},
		})
	}

	worker := newWorker(url, slot, factory, a.bus, a.logger)
	if err := worker.Start(); err != nil {
		a.logger.Warn("Stream registered but not playing", "url", url, "slot", slot)
	}
	a.workers = append(a.workers, worker)

	metrics.SetStreamsPlaying(a.playingLocked())
	return slot
}

// StopAll stops every worker in registration order and releases the
// collection. Part of the shutdown contract: callers run this before
// process exit so no pipeline threads outlive the process.
func (a *Aggregator) StopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, w := range a.workers {
		w.Stop()
	}
	a.workers = nil
	metrics.SetStreamsPlaying(0)
	a.logger.Info("All streams stopped")
}

// Count returns the number of registered workers.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.workers)
}

// Contains reports whether a URL is already registered. Used by the
// config watcher so a reloaded streams file only adds unseen URLs.
func (a *Aggregator) Contains(url string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, w := range a.workers {
		if w.URL() == url {
			return true
		}
	}
	return false
}

// Info describes one worker for the HTTP API.
type Info struct {
	Slot  int    `json:"slot"`
	URL   string `json:"url"`
	State string `json:"state"`
}

// Workers snapshots all workers in slot order.
func (a *Aggregator) Workers() []Info {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Info, len(a.workers))
	for i, w := range a.workers {
		out[i] = Info{Slot: w.Slot(), URL: w.URL(), State: string(w.State())}
	}
	return out
}

// playingLocked counts playing workers. Caller holds mu.
func (a *Aggregator) playingLocked() int {
	n := 0
	for _, w := range a.workers {
		if w.State() == StatePlaying {
			n++
		}
	}
	return n
}
