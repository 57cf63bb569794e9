package graphics

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"
	"os"

	"fortio.org/safecast"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Texture is a view into RGBA texture storage in video memory. Views made
// with Sub share their source's storage, which is deleted once every view
// has been released.
type Texture struct {
	owner
	device *Device
	handle uint32
	// storage is the size of the whole allocation; rect is this view of it.
	storage [2]uint32
	rect    Rect
}

func isPowerOfTwo(n uint32) bool { return n != 0 && n&(n-1) == 0 }

func nextPowerOfTwo(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len32(n-1)
}

func (d *Device) validateTextureSize(width, height uint32) error {
	if width == 0 || height == 0 {
		return &InvalidTextureSizeError{Width: width, Height: height}
	}
	if !d.NPOTSupported() && (!isPowerOfTwo(width) || !isPowerOfTwo(height)) {
		return &InvalidTextureSizeError{Width: width, Height: height}
	}
	return nil
}

// glSize converts a pair of sizes or offsets to the driver's GLsizei.
func glSize(a, b uint32) (int32, int32, error) {
	ga, err := safecast.Conv[int32](a)
	if err != nil {
		return 0, 0, err
	}
	gb, err := safecast.Conv[int32](b)
	if err != nil {
		return 0, 0, err
	}
	return ga, gb, nil
}

// NewTexture allocates uninitialised texture storage.
func NewTexture(d *Device, width, height uint32) (*Texture, error) {
	if err := d.validateTextureSize(width, height); err != nil {
		return nil, err
	}
	gw, gh, err := glSize(width, height)
	if err != nil {
		return nil, &InvalidTextureSizeError{Width: width, Height: height}
	}
	handle := d.backend.CreateTexture(gw, gh)
	if err := d.glResult("create texture"); err != nil {
		d.backend.DeleteTexture(handle)
		return nil, err
	}
	t := &Texture{
		device:  d,
		handle:  handle,
		storage: [2]uint32{width, height},
		rect:    Rect{W: width, H: height},
	}
	own(t, &t.owner, newResource(d.queue, d.track(TextureResource, handle)))
	return t, nil
}

// NewTextureFromColor creates a 1x1 texture. Components range over [0, 1].
func NewTextureFromColor(d *Device, r, g, b, a float32) (*Texture, error) {
	t, err := NewTexture(d, 1, 1)
	if err != nil {
		return nil, err
	}
	px := []byte{unit(r), unit(g), unit(b), unit(a)}
	if err := t.UpdateData(px); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func unit(f float32) byte {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	}
	return byte(f*255 + 0.5)
}

// NewTextureFromImage uploads img. On devices without NPOT support images
// are scaled up to the next power of two.
func NewTextureFromImage(d *Device, img image.Image) (*Texture, error) {
	b := img.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy())
	if w > 0 && h > 0 && !d.NPOTSupported() {
		w, h = nextPowerOfTwo(w), nextPowerOfTwo(h)
	}
	t, err := NewTexture(d, w, h)
	if err != nil {
		return nil, err
	}
	rgba := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	if rgba.Bounds().Size() == b.Size() {
		xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(rgba, rgba.Bounds(), img, b, xdraw.Src, nil)
	}
	if err := t.UpdateData(rgba.Pix); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// NewTextureFromFile decodes a PNG, JPEG, BMP, TIFF or WebP file.
func NewTextureFromFile(d *Device, path string) (*Texture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	d.log.Printf("loaded %s image %s (%dx%d)", format, path, img.Bounds().Dx(), img.Bounds().Dy())
	return NewTextureFromImage(d, img)
}

// Sub returns a view of r, given relative to t. The view shares t's storage
// and must be released separately.
func (t *Texture) Sub(r Rect) (*Texture, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	local := Rect{W: t.rect.W, H: t.rect.H}
	if !local.Contains(r) {
		return nil, &InvalidSubTextureError{Outer: local, Inner: r}
	}
	if r.W == 0 || r.H == 0 {
		return nil, &InvalidTextureSizeError{Width: r.W, Height: r.H}
	}
	t.res.retain()
	sub := &Texture{
		device:  t.device,
		handle:  t.handle,
		storage: t.storage,
		rect:    r.Offset(t.rect),
	}
	own(sub, &sub.owner, t.res)
	return sub, nil
}

// UpdateData replaces every texel of the view. len(data) must be
// width*height*4.
func (t *Texture) UpdateData(data []byte) error {
	return t.UpdateSubData(Rect{W: t.rect.W, H: t.rect.H}, data)
}

// UpdateSubData replaces the texels of r, given relative to the view.
func (t *Texture) UpdateSubData(r Rect, data []byte) error {
	if err := t.check(); err != nil {
		return err
	}
	local := Rect{W: t.rect.W, H: t.rect.H}
	if !local.Contains(r) {
		return &InvalidSubTextureError{Outer: local, Inner: r}
	}
	if want := r.area() * 4; len(data) != want {
		return &InvalidImageDataError{Expected: want, Actual: len(data)}
	}
	if len(data) == 0 {
		return nil
	}
	abs := r.Offset(t.rect)
	x, y, err := glSize(abs.X, abs.Y)
	if err != nil {
		return fmt.Errorf("update texture: %w", err)
	}
	w, h, err := glSize(abs.W, abs.H)
	if err != nil {
		return fmt.Errorf("update texture: %w", err)
	}
	t.device.backend.UploadTexture(t.handle, x, y, w, h, data)
	return t.device.glResult("update texture")
}

func (t *Texture) Width() uint32  { return t.rect.W }
func (t *Texture) Height() uint32 { return t.rect.H }

// Rect is the view's rectangle within its storage.
func (t *Texture) Rect() Rect { return t.rect }

// Handle returns the raw GPU handle.
func (t *Texture) Handle() uint32 { return t.handle }

// UV returns the view's texture coordinates: left, top, right, bottom.
func (t *Texture) UV() [4]float32 {
	sw, sh := float32(t.storage[0]), float32(t.storage[1])
	return [4]float32{
		float32(t.rect.X) / sw,
		float32(t.rect.Y) / sh,
		float32(t.rect.X+t.rect.W) / sw,
		float32(t.rect.Y+t.rect.H) / sh,
	}
}

func (t *Texture) String() string {
	return fmt.Sprintf("Texture(%d, %s)", t.handle, t.rect)
}
