// Package wordcloud lays out weighted words on a canvas and renders them
// with a TrueType or OpenType font.
package wordcloud

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"os"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"tweetcloud/pkg/logger"
)

// ErrFontNotFound is returned when the configured font file does not exist
var ErrFontNotFound = errors.New("font file not found")

// Options configures a WordCloud. Zero values fall back to defaults.
type Options struct {
	Width           int
	Height          int
	MaxWords        int
	FontPath        string
	Background      string
	MaxFontSize     int
	MinFontSize     int
	FontStep        int
	RelativeScaling float64
	Margin          int
	Scale           float64
	Palette         []color.Color
	Seed            uint64
}

// DefaultPalette is sampled from the viridis color map
var DefaultPalette = []color.Color{
	color.RGBA{0x44, 0x01, 0x54, 0xff},
	color.RGBA{0x48, 0x28, 0x78, 0xff},
	color.RGBA{0x3e, 0x49, 0x89, 0xff},
	color.RGBA{0x31, 0x68, 0x8e, 0xff},
	color.RGBA{0x26, 0x82, 0x8e, 0xff},
	color.RGBA{0x1f, 0x9e, 0x89, 0xff},
	color.RGBA{0x35, 0xb7, 0x79, 0xff},
	color.RGBA{0x6d, 0xcd, 0x59, 0xff},
	color.RGBA{0xb4, 0xde, 0x2c, 0xff},
	color.RGBA{0xfd, 0xe7, 0x25, 0xff},
}

// DefaultOptions returns options matching the usual word cloud defaults
func DefaultOptions() Options {
	return Options{
		Width:           400,
		Height:          200,
		MaxWords:        200,
		Background:      "white",
		MinFontSize:     4,
		FontStep:        1,
		RelativeScaling: 0.5,
		Margin:          2,
		Scale:           1,
		Palette:         DefaultPalette,
		Seed:            1,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.MaxWords <= 0 {
		o.MaxWords = d.MaxWords
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	if o.MinFontSize <= 0 {
		o.MinFontSize = d.MinFontSize
	}
	if o.FontStep <= 0 {
		o.FontStep = d.FontStep
	}
	if o.RelativeScaling < 0 || o.RelativeScaling > 1 {
		o.RelativeScaling = d.RelativeScaling
	}
	if o.Margin < 0 {
		o.Margin = d.Margin
	}
	if o.Scale <= 0 {
		o.Scale = d.Scale
	}
	if len(o.Palette) == 0 {
		o.Palette = d.Palette
	}
}

// Placement is a word positioned on the canvas
type Placement struct {
	Word     string
	Count    int
	FontSize int
	Rect     image.Rectangle
	Color    color.Color

	dot fixed.Point26_6
}

// WordCloud renders word frequencies into an image
type WordCloud struct {
	opts       Options
	background color.Color
	font       *opentype.Font
	faces      map[int]font.Face
	logger     logger.Logger
}

// New loads the font and prepares a WordCloud. It fails with
// ErrFontNotFound when the font file is missing.
func New(opts Options, log logger.Logger) (*WordCloud, error) {
	opts.applyDefaults()
	if log == nil {
		log = logger.NewNopLogger()
	}

	bg, err := ParseColor(opts.Background)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(opts.FontPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFontNotFound, opts.FontPath)
		}
		return nil, fmt.Errorf("failed to stat font: %w", err)
	}

	f, err := loadFont(opts.FontPath)
	if err != nil {
		return nil, err
	}

	return &WordCloud{
		opts:       opts,
		background: bg,
		font:       f,
		faces:      make(map[int]font.Face),
		logger:     log,
	}, nil
}

// loadFont parses a single font or the first font of a collection
func loadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}

	if bytes.HasPrefix(data, []byte("ttcf")) {
		collection, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font collection: %w", err)
		}
		f, err := collection.Font(0)
		if err != nil {
			return nil, fmt.Errorf("failed to load font from collection: %w", err)
		}
		return f, nil
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return f, nil
}

// ParseColor accepts a color name such as "white" or a #rrggbb value
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}

	var r, g, b uint8
	if len(s) == 7 && s[0] == '#' {
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{r, g, b, 0xff}, nil
		}
	}
	return nil, fmt.Errorf("unknown color %q", s)
}

// Close releases the cached font faces
func (wc *WordCloud) Close() error {
	var errs []error
	for size, face := range wc.faces {
		errs = append(errs, face.Close())
		delete(wc.faces, size)
	}
	return errors.Join(errs...)
}

func (wc *WordCloud) face(size int) (font.Face, error) {
	if face, ok := wc.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(wc.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face of size %d: %w", size, err)
	}
	wc.faces[size] = face
	return face, nil
}

// Layout places words, most frequent first, on the canvas. Each word starts
// at a size scaled from the previous word's final size by their count ratio;
// when a word cannot be placed its size shrinks by FontStep, and layout
// stops once a word does not fit at MinFontSize.
func (wc *WordCloud) Layout(words []WordCount) ([]Placement, error) {
	if len(words) > wc.opts.MaxWords {
		words = words[:wc.opts.MaxWords]
	}
	if len(words) == 0 {
		return nil, nil
	}

	rng := rand.New(rand.NewPCG(wc.opts.Seed, wc.opts.Seed^0x9e3779b97f4a7c15))
	grid := newOccupancy(wc.opts.Width, wc.opts.Height)
	rs := wc.opts.RelativeScaling

	size := wc.opts.MaxFontSize
	if size <= 0 {
		size = wc.opts.Height
	}
	lastCount := words[0].Count

	var placements []Placement
	for i, w := range words {
		if i > 0 && lastCount > 0 {
			scaled := int(math.Round(float64(size) * (rs*float64(w.Count)/float64(lastCount) + (1 - rs))))
			size = min(size, scaled)
		}

		var placed *Placement
		for ; size >= wc.opts.MinFontSize; size -= wc.opts.FontStep {
			p, ok, err := wc.tryPlace(grid, w, size, rng)
			if err != nil {
				return nil, err
			}
			if ok {
				placed = &p
				break
			}
		}
		if placed == nil {
			wc.logger.DebugWithFields("canvas full, stopping layout", map[string]interface{}{
				"word":   w.Word,
				"placed": len(placements),
			})
			break
		}

		mask, err := wc.glyphMask(*placed)
		if err != nil {
			return nil, err
		}
		grid.mark(mask)
		placements = append(placements, *placed)
		lastCount = w.Count
	}

	return placements, nil
}

// tryPlace picks a random position for word at size among every position
// where its box, grown by Margin, touches no inked pixel.
func (wc *WordCloud) tryPlace(grid *occupancy, w WordCount, size int, rng *rand.Rand) (Placement, bool, error) {
	face, err := wc.face(size)
	if err != nil {
		return Placement{}, false, err
	}

	bounds, _ := font.BoundString(face, w.Word)
	bw := (bounds.Max.X - bounds.Min.X).Ceil()
	bh := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if bw <= 0 || bh <= 0 {
		return Placement{}, false, nil
	}

	pt, ok := grid.sample(bw+wc.opts.Margin, bh+wc.opts.Margin, rng)
	if !ok {
		return Placement{}, false, nil
	}
	pt = pt.Add(image.Pt(wc.opts.Margin/2, wc.opts.Margin/2))

	return Placement{
		Word:     w.Word,
		Count:    w.Count,
		FontSize: size,
		Rect:     image.Rect(pt.X, pt.Y, pt.X+bw, pt.Y+bh),
		Color:    wc.opts.Palette[rng.IntN(len(wc.opts.Palette))],
		dot: fixed.Point26_6{
			X: fixed.I(pt.X) - bounds.Min.X,
			Y: fixed.I(pt.Y) - bounds.Min.Y,
		},
	}, true, nil
}

// glyphMask rasterizes p into an alpha mask covering p.Rect
func (wc *WordCloud) glyphMask(p Placement) (*image.Alpha, error) {
	face, err := wc.face(p.FontSize)
	if err != nil {
		return nil, err
	}
	mask := image.NewAlpha(p.Rect)
	d := font.Drawer{Dst: mask, Src: image.Opaque, Face: face, Dot: p.dot}
	d.DrawString(p.Word)
	return mask, nil
}

// Render draws placements on the background
func (wc *WordCloud) Render(placements []Placement) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, wc.opts.Width, wc.opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(wc.background), image.Point{}, draw.Src)

	for _, p := range placements {
		face, err := wc.face(p.FontSize)
		if err != nil {
			return nil, err
		}
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(p.Color),
			Face: face,
			Dot:  p.dot,
		}
		d.DrawString(p.Word)
	}

	if wc.opts.Scale != 1 {
		w := int(math.Round(float64(wc.opts.Width) * wc.opts.Scale))
		h := int(math.Round(float64(wc.opts.Height) * wc.opts.Scale))
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
		return scaled, nil
	}

	return img, nil
}

// Generate lays out and renders words in one step
func (wc *WordCloud) Generate(words []WordCount) (*image.RGBA, []Placement, error) {
	placements, err := wc.Layout(words)
	if err != nil {
		return nil, nil, err
	}

	img, err := wc.Render(placements)
	if err != nil {
		return nil, nil, err
	}

	wc.logger.InfoWithFields("word cloud rendered", map[string]interface{}{
		"words":  len(words),
		"placed": len(placements),
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	})

	return img, placements, nil
}
