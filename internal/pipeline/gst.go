package pipeline

import (
	"fmt"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/smazurov/camgrid/internal/logging"
)

// gstPipeline decodes an RTSP stream through GStreamer. decodebin picks
// the codec, videoconvert normalizes to RGB, and the appsink delivers
// samples on a GStreamer streaming thread. max-buffers=2 drop=true keeps
// the sink at live speed instead of applying backpressure upstream.
type gstPipeline struct {
	url     string
	onFrame FrameFunc
	logger  logging.Logger

	mu       sync.Mutex
	pipeline *gst.Pipeline
}

func newGstPipeline(cfg Config) *gstPipeline {
	return &gstPipeline{
		url:     cfg.URL,
		onFrame: cfg.OnFrame,
		logger:  cfg.Logger,
	}
}

// Start implements Pipeline.
func (p *gstPipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline != nil {
		return nil
	}

	gst.Init(nil)

	launch := fmt.Sprintf(
		"rtspsrc location=%s ! decodebin ! videoconvert"+
			" ! video/x-raw,format=RGB"+
			" ! appsink name=sink sync=false max-buffers=2 drop=true",
		p.url,
	)
	pipeline, err := gst.NewPipelineFromString(launch)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	elem, err := pipeline.GetElementByName("sink")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return fmt.Errorf("appsink lookup: %w", err)
	}
	sink := app.SinkFromElement(elem)
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: p.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		pipeline.SetState(gst.StateNull)
		return fmt.Errorf("start pipeline: %w", err)
	}

	p.pipeline = pipeline
	return nil
}

// Stop implements Pipeline.
func (p *gstPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline == nil {
		return
	}
	if err := p.pipeline.SetState(gst.StateNull); err != nil {
		p.logger.Warn("Pipeline teardown state change failed", "url", p.url, "error", err)
	}
	p.pipeline = nil
}

// onNewSample runs on the appsink's streaming thread. It hands the
// mapped buffer straight to the frame callback and unmaps; the receiver
// copies under its own lock. A bad sample is skipped, never fatal.
func (p *gstPipeline) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}

	width, height := sampleDimensions(sample)
	if width <= 0 || height <= 0 {
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		p.logger.Warn("Sample without buffer, skipping frame", "url", p.url)
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	if data := mapInfo.Bytes(); len(data) > 0 {
		p.onFrame(data, width, height)
	}
	buffer.Unmap()

	return gst.FlowOK
}

// sampleDimensions reads width/height from the sample caps, 0 on any
// missing field.
func sampleDimensions(sample *gst.Sample) (int, int) {
	caps := sample.GetCaps()
	if caps == nil {
		return 0, 0
	}
	structure := caps.GetStructureAt(0)
	if structure == nil {
		return 0, 0
	}

	width, err := structure.GetValue("width")
	if err != nil {
		return 0, 0
	}
	height, err := structure.GetValue("height")
	if err != nil {
		return 0, 0
	}

	w, _ := width.(int)
	h, _ := height.(int)
	return w, h
}
