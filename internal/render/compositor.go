package render

import (
	"context"
	"time"

	"github.com/smazurov/camgrid/internal/events"
	"github.com/smazurov/camgrid/internal/logging"
	"github.com/smazurov/camgrid/internal/metrics"
)

// Compositor drains dirty slots once per render pass, uploads their
// frames to the device, and draws each slot into its grid cell. All
// device calls happen on the caller's goroutine: one consumer, many
// producers.
type Compositor struct {
	device Device
	slots  []*Slot
	grid   Grid
	logger logging.Logger
	bus    *events.Bus

	scratch []byte // reused copy-out buffer, render goroutine only
}

// NewCompositor creates a compositor with a fixed slot capacity. The
// grid layout derives from capacity once; streams registered later than
// construction do not resize it.
func NewCompositor(device Device, capacity int, bus *events.Bus, logger logging.Logger) *Compositor {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = logging.GetLogger("render")
	}
	slots := make([]*Slot, capacity)
	for i := range slots {
		slots[i] = newSlot(i)
	}
	return &Compositor{
		device: device,
		slots:  slots,
		grid:   LayoutGrid(capacity),
		logger: logger,
		bus:    bus,
	}
}

// Grid returns the fixed layout.
func (c *Compositor) Grid() Grid { return c.grid }

// Capacity returns the number of slots.
func (c *Compositor) Capacity() int { return len(c.slots) }

// Push stores a decoded frame for a slot. Safe to call from any
// goroutine; holds only the slot's own lock for the duration of one
// buffer copy. Non-positive dimensions and short buffers are no-ops.
// Frames for slots beyond capacity are dropped.
func (c *Compositor) Push(slot int, buf []byte, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if slot < 0 || slot >= len(c.slots) {
		metrics.RecordFrameOverflow()
		if c.bus != nil {
			c.bus.Publish(events.FrameOverflowEvent{
				Slot:      slot,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		}
		c.logger.Warn("Dropping frame for out-of-range slot", "slot", slot, "capacity", len(c.slots))
		return
	}
	if len(buf) < width*height*3 {
		c.logger.Warn("Dropping short frame buffer", "slot", slot, "len", len(buf), "width", width, "height", height)
		return
	}
	c.slots[slot].write(buf, width, height)
}

// RenderFrame executes one compositor pass: drain dirty slots, upload,
// draw the grid, present. Per-slot device failures are logged and do not
// abort the rest of the pass.
func (c *Compositor) RenderFrame() {
	surfaceW, surfaceH := c.device.SurfaceSize()
	c.device.Clear()

	for i, slot := range c.slots {
		buf, w, h, ok := slot.take(c.scratch)
		c.scratch = buf

		if ok {
			if err := c.upload(slot, buf, w, h); err != nil {
				metrics.RecordDrawError()
				c.logger.Error("Texture upload failed", "slot", i, "error", err)
			}
		}

		// Never received a frame: draw nothing for this cell.
		if slot.displayedW == 0 {
			continue
		}

		if err := c.device.Draw(i, c.grid.Cell(i, surfaceW, surfaceH)); err != nil {
			metrics.RecordDrawError()
			c.logger.Error("Draw failed", "slot", i, "error", err)
		}
	}

	c.device.Present()
}

// upload sends a drained frame to the device, reallocating the texture
// only when the stream's resolution changed.
func (c *Compositor) upload(slot *Slot, buf []byte, w, h int) error {
	var err error
	if w != slot.displayedW || h != slot.displayedH {
		err = c.device.CreateTexture(slot.index, w, h, buf)
		if err == nil {
			slot.displayedW = w
			slot.displayedH = h
		}
	} else {
		err = c.device.UpdateTexture(slot.index, w, h, buf)
	}
	if err == nil {
		metrics.RecordUpload()
	}
	return err
}

// Run drives RenderFrame at the given interval until ctx is cancelled.
// For hosts that own their render loop (vsync-driven windows), call
// RenderFrame directly instead.
func (c *Compositor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RenderFrame()
		}
	}
}

// SlotStats snapshots all slots for the HTTP API.
func (c *Compositor) SlotStats() []Stats {
	out := make([]Stats, len(c.slots))
	for i, s := range c.slots {
		out[i] = s.stats()
	}
	return out
}
