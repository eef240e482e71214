package render

// Viewport is a pixel rectangle on the output surface. The origin is the
// bottom-left corner of the surface, matching GPU viewport conventions.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Device is the boundary to the GPU rendering collaborator. The
// compositor drives it from a single goroutine; implementations do not
// need to be safe for concurrent draw calls.
//
// Pixels are row-major RGB, 3 bytes per pixel, no padding, row 0 at the
// top of the image.
type Device interface {
	// SurfaceSize returns the current output surface dimensions in pixels.
	SurfaceSize() (width, height int)

	// CreateTexture (re)allocates the texture backing a slot at the given
	// dimensions and fills it with pixels.
	CreateTexture(slot, width, height int, pixels []byte) error

	// UpdateTexture overwrites the texture contents in place. Dimensions
	// match the preceding CreateTexture call for the slot.
	UpdateTexture(slot, width, height int, pixels []byte) error

	// Draw renders slot's texture as a quad confined to the viewport.
	Draw(slot int, vp Viewport) error

	// Clear begins a frame by clearing the whole surface.
	Clear()

	// Present finishes the frame.
	Present()
}
