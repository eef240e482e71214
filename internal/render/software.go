package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
)

// SoftwareDevice rasterizes the grid into an in-memory RGBA image. It is
// the bundled fallback for headless hosts; a real GPU device is supplied
// by the embedding application. Nearest-neighbor scaling keeps it cheap.
type SoftwareDevice struct {
	mu       sync.Mutex
	width    int
	height   int
	frame    *image.RGBA
	textures map[int]*softTexture
}

type softTexture struct {
	width  int
	height int
	pixels []byte // RGB24 copy
}

var clearColor = color.RGBA{R: 13, G: 13, B: 13, A: 255}

// NewSoftwareDevice creates a software surface of the given size.
func NewSoftwareDevice(width, height int) *SoftwareDevice {
	return &SoftwareDevice{
		width:    width,
		height:   height,
		frame:    image.NewRGBA(image.Rect(0, 0, width, height)),
		textures: make(map[int]*softTexture),
	}
}

// SurfaceSize implements Device.
func (d *SoftwareDevice) SurfaceSize() (int, int) {
	return d.width, d.height
}

// CreateTexture implements Device.
func (d *SoftwareDevice) CreateTexture(slot, width, height int, pixels []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid texture size %dx%d for slot %d", width, height, slot)
	}
	tex := &softTexture{
		width:  width,
		height: height,
		pixels: make([]byte, width*height*3),
	}
	copy(tex.pixels, pixels)

	d.mu.Lock()
	d.textures[slot] = tex
	d.mu.Unlock()
	return nil
}

// UpdateTexture implements Device.
func (d *SoftwareDevice) UpdateTexture(slot, width, height int, pixels []byte) error {
	d.mu.Lock()
	tex, ok := d.textures[slot]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("no texture allocated for slot %d", slot)
	}
	if tex.width != width || tex.height != height {
		return fmt.Errorf("texture size mismatch for slot %d: have %dx%d, update %dx%d",
			slot, tex.width, tex.height, width, height)
	}
	copy(tex.pixels, pixels)
	return nil
}

// Draw implements Device. The viewport origin is bottom-left, so the
// rectangle flips into the image's top-left coordinate space.
func (d *SoftwareDevice) Draw(slot int, vp Viewport) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, ok := d.textures[slot]
	if !ok {
		return fmt.Errorf("no texture allocated for slot %d", slot)
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil
	}

	top := d.height - vp.Y - vp.Height
	for dy := 0; dy < vp.Height; dy++ {
		iy := top + dy
		if iy < 0 || iy >= d.height {
			continue
		}
		sy := dy * tex.height / vp.Height
		for dx := 0; dx < vp.Width; dx++ {
			ix := vp.X + dx
			if ix < 0 || ix >= d.width {
				continue
			}
			sx := dx * tex.width / vp.Width
			src := (sy*tex.width + sx) * 3
			dst := d.frame.PixOffset(ix, iy)
			d.frame.Pix[dst+0] = tex.pixels[src+0]
			d.frame.Pix[dst+1] = tex.pixels[src+1]
			d.frame.Pix[dst+2] = tex.pixels[src+2]
			d.frame.Pix[dst+3] = 255
		}
	}
	return nil
}

// Clear implements Device.
func (d *SoftwareDevice) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			d.frame.SetRGBA(x, y, clearColor)
		}
	}
}

// Present implements Device. The software surface has no swap chain.
func (d *SoftwareDevice) Present() {}

// Snapshot returns a copy of the current frame.
func (d *SoftwareDevice) Snapshot() *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := image.NewRGBA(d.frame.Rect)
	copy(out.Pix, d.frame.Pix)
	return out
}

// WriteSnapshot encodes the current frame as PNG, for debugging headless
// runs.
func (d *SoftwareDevice) WriteSnapshot(path string) error {
	img := d.Snapshot()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
