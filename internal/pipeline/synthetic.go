package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/camgrid/internal/logging"
)

const (
	defaultSyntheticWidth  = 320
	defaultSyntheticHeight = 240
	defaultSyntheticFPS    = 10
)

// syntheticPipeline generates a moving color pattern on a ticker. Used
// by tests and by the stress/debug mode so the frame path can run
// without cameras or a GStreamer install.
type syntheticPipeline struct {
	onFrame FrameFunc
	logger  logging.Logger
	traceID string
	width   int
	height  int
	fps     int

	mu   sync.Mutex
	stop chan struct{}
	done sync.WaitGroup
}

func newSyntheticPipeline(cfg Config) *syntheticPipeline {
	width, height, fps := cfg.Width, cfg.Height, cfg.FPS
	if width <= 0 {
		width = defaultSyntheticWidth
	}
	if height <= 0 {
		height = defaultSyntheticHeight
	}
	if fps <= 0 {
		fps = defaultSyntheticFPS
	}
	return &syntheticPipeline{
		onFrame: cfg.OnFrame,
		logger:  cfg.Logger,
		traceID: uuid.New().String(),
		width:   width,
		height:  height,
		fps:     fps,
	}
}

// Start implements Pipeline.
func (p *syntheticPipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return nil
	}
	p.stop = make(chan struct{})
	p.done.Add(1)
	go p.run(p.stop)

	p.logger.Debug("Synthetic source started",
		"trace_id", p.traceID, "width", p.width, "height", p.height, "fps", p.fps)
	return nil
}

// Stop implements Pipeline.
func (p *syntheticPipeline) Stop() {
	p.mu.Lock()
	if p.stop == nil {
		p.mu.Unlock()
		return
	}
	close(p.stop)
	p.stop = nil
	p.mu.Unlock()

	p.done.Wait()
}

func (p *syntheticPipeline) run(stop chan struct{}) {
	defer p.done.Done()

	ticker := time.NewTicker(time.Second / time.Duration(p.fps))
	defer ticker.Stop()

	buf := make([]byte, p.width*p.height*3)
	var tick int
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.fill(buf, tick)
			p.onFrame(buf, p.width, p.height)
			tick++
		}
	}
}

// fill paints a diagonal gradient that shifts every tick, so consecutive
// frames are distinguishable in tests and snapshots.
func (p *syntheticPipeline) fill(buf []byte, tick int) {
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			i := (y*p.width + x) * 3
			buf[i+0] = byte((x + tick) & 0xff)
			buf[i+1] = byte((y + tick) & 0xff)
			buf[i+2] = byte(tick & 0xff)
		}
	}
}
