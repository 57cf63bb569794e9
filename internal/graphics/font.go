package graphics

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Glyph describes one character's placement in a font atlas.
type Glyph struct {
	// Texture is a view of the glyph's texels; nil for blank glyphs.
	Texture *Texture
	// Bearing is the offset from the pen position on the baseline to the
	// glyph's top-left corner, y pointing up.
	BearingX, BearingY float32
	Advance            float32
}

// Font is a set of glyphs baked into one texture atlas.
type Font struct {
	atlas      *Texture
	glyphs     map[rune]Glyph
	lineHeight float32
}

const (
	firstGlyph  = 32
	lastGlyph   = 255
	atlasPad    = 1
	minAtlasDim = 256
)

// NewDefaultFont bakes the Go Regular typeface at size pixels.
func NewDefaultFont(d *Device, size float64) (*Font, error) {
	return NewFont(d, goregular.TTF, size)
}

// NewFontFromFile bakes a TrueType or OpenType file at size pixels.
func NewFontFromFile(d *Device, path string, size float64) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return NewFont(d, data, size)
}

// NewFont bakes the printable Latin-1 range of a font into an atlas.
func NewFont(d *Device, data []byte, size float64) (*Font, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	defer func() { _ = face.Close() }()

	type placed struct {
		r       rune
		dst     image.Rectangle
		bx, by  int
		advance fixed.Int26_6
	}

	// Grow a square power of two atlas until every glyph fits in rows.
	dim := minAtlasDim
	var glyphs []placed
	for {
		glyphs = glyphs[:0]
		x, y, rowH := 0, 0, 0
		fits := true
		for r := rune(firstGlyph); r <= lastGlyph; r++ {
			dr, _, _, advance, ok := face.Glyph(fixed.P(0, 0), r)
			if !ok {
				continue
			}
			p := placed{r: r, bx: dr.Min.X, by: -dr.Min.Y, advance: advance}
			gw, gh := dr.Dx(), dr.Dy()
			if gw > 0 && gh > 0 {
				if x+gw > dim {
					x = 0
					y += rowH + atlasPad
					rowH = 0
				}
				if y+gh > dim {
					fits = false
					break
				}
				p.dst = image.Rect(x, y, x+gw, y+gh)
				x += gw + atlasPad
				rowH = max(rowH, gh)
			}
			glyphs = append(glyphs, p)
		}
		if fits {
			break
		}
		dim *= 2
	}

	// Glyph masks are only valid until the next Glyph call.
	img := image.NewRGBA(image.Rect(0, 0, dim, dim))
	for _, g := range glyphs {
		if g.dst.Empty() {
			continue
		}
		if _, mask, maskp, _, ok := face.Glyph(fixed.P(0, 0), g.r); ok {
			xdraw.DrawMask(img, g.dst, image.White, image.Point{}, mask, maskp, xdraw.Src)
		}
	}
	atlas, err := NewTexture(d, uint32(dim), uint32(dim))
	if err != nil {
		return nil, err
	}
	if err := atlas.UpdateData(img.Pix); err != nil {
		atlas.Release()
		return nil, err
	}

	fnt := &Font{
		atlas:      atlas,
		glyphs:     make(map[rune]Glyph, len(glyphs)),
		lineHeight: float32(face.Metrics().Height.Round()),
	}
	for _, g := range glyphs {
		glyph := Glyph{
			BearingX: float32(g.bx),
			BearingY: float32(g.by),
			Advance:  float32(math.Round(float64(g.advance) / 64.0)),
		}
		if !g.dst.Empty() {
			sub, err := atlas.Sub(Rect{
				X: uint32(g.dst.Min.X), Y: uint32(g.dst.Min.Y),
				W: uint32(g.dst.Dx()), H: uint32(g.dst.Dy()),
			})
			if err != nil {
				fnt.Release()
				return nil, err
			}
			glyph.Texture = sub
		}
		fnt.glyphs[g.r] = glyph
	}
	return fnt, nil
}

// Glyph returns the glyph for r, falling back to a space.
func (f *Font) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	if !ok {
		g, ok = f.glyphs[' ']
	}
	return g, ok
}

func (f *Font) LineHeight() float32 { return f.lineHeight }

// Measure returns the width and height text occupies at scale.
func (f *Font) Measure(text string, scale float32) (float32, float32) {
	var width, height float32
	for _, r := range text {
		g, ok := f.Glyph(r)
		if !ok {
			continue
		}
		width += g.Advance * scale
		if g.Texture != nil {
			height = max(height, float32(g.Texture.Height())*scale)
		}
	}
	return width, height
}

// AddText queues text on batch with its baseline starting at (x, y), y
// pointing down.
func (f *Font) AddText(batch *SpriteBatch, text string, x, y, scale float32, color mgl32.Vec4, t Transform2D) {
	penX := x
	for _, r := range text {
		if r == '\n' {
			penX = x
			y += f.lineHeight * scale
			continue
		}
		g, ok := f.Glyph(r)
		if !ok {
			continue
		}
		if g.Texture != nil {
			w := float32(g.Texture.Width()) * scale
			h := float32(g.Texture.Height()) * scale
			batch.AddTinted(penX+g.BearingX*scale, y-g.BearingY*scale, w, h, g.Texture, color, t)
		}
		penX += g.Advance * scale
	}
}

// Release frees the atlas once every glyph view is released too.
func (f *Font) Release() {
	for _, g := range f.glyphs {
		if g.Texture != nil {
			g.Texture.Release()
		}
	}
	f.atlas.Release()
}
