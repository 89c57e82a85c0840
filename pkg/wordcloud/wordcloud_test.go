package wordcloud

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/font/gofont/goregular"
	"tweetcloud/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFont(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goregular.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0644))
	return path
}

func sampleWords() []WordCount {
	return []WordCount{
		{"golang", 40}, {"gopher", 30}, {"cloud", 22}, {"words", 18},
		{"render", 12}, {"glyph", 9}, {"font", 7}, {"canvas", 5},
		{"pixel", 3}, {"tiny", 1},
	}
}

func TestNewFontNotFound(t *testing.T) {
	opts := DefaultOptions()
	opts.FontPath = filepath.Join(t.TempDir(), "missing.ttc")

	_, err := New(opts, nil)
	assert.ErrorIs(t, err, ErrFontNotFound)
}

func TestNewInvalidFont(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ttf")
	require.NoError(t, os.WriteFile(path, []byte("not a font"), 0644))

	opts := DefaultOptions()
	opts.FontPath = path
	_, err := New(opts, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFontNotFound)
}

func TestLayoutNoOverlap(t *testing.T) {
	opts := DefaultOptions()
	opts.FontPath = writeTestFont(t)

	wc, err := New(opts, logger.NewTestLogger())
	require.NoError(t, err)
	defer wc.Close()

	placements, err := wc.Layout(sampleWords())
	require.NoError(t, err)
	require.NotEmpty(t, placements)

	// Words may sit inside another word's box but never share an inked pixel
	canvas := image.Rect(0, 0, opts.Width, opts.Height)
	inked := make(map[image.Point]string)
	for _, p := range placements {
		assert.True(t, p.Rect.In(canvas), "%s outside canvas: %v", p.Word, p.Rect)

		mask, err := wc.glyphMask(p)
		require.NoError(t, err)
		for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
			for x := p.Rect.Min.X; x < p.Rect.Max.X; x++ {
				if mask.AlphaAt(x, y).A == 0 {
					continue
				}
				pt := image.Pt(x, y)
				if other, ok := inked[pt]; ok {
					t.Fatalf("%s overlaps %s at %v", p.Word, other, pt)
				}
				inked[pt] = p.Word
			}
		}
	}

	// Most frequent word first and never smaller than later words
	assert.Equal(t, "golang", placements[0].Word)
	for _, p := range placements[1:] {
		assert.LessOrEqual(t, p.FontSize, placements[0].FontSize)
	}
}

func zipfWords(n int) []WordCount {
	words := make([]WordCount, n)
	for i := range words {
		words[i] = WordCount{Word: fmt.Sprintf("word%03d", i), Count: 1000 / (i + 1)}
	}
	return words
}

func TestLayoutFillsCanvas(t *testing.T) {
	opts := DefaultOptions()
	opts.FontPath = writeTestFont(t)

	wc, err := New(opts, nil)
	require.NoError(t, err)
	defer wc.Close()

	words := zipfWords(200)
	placements, err := wc.Layout(words)
	require.NoError(t, err)

	// Small words fill the gaps around large glyphs
	assert.Greater(t, len(placements), 80)

	// Sizes carry forward, so they never grow again
	for i := 1; i < len(placements); i++ {
		assert.LessOrEqual(t, placements[i].FontSize, placements[i-1].FontSize, placements[i].Word)
		assert.GreaterOrEqual(t, placements[i].FontSize, opts.MinFontSize)
	}

	if len(placements) == len(words) {
		return
	}

	// Layout only stops when the next word has no free slot left
	grid := newOccupancy(opts.Width, opts.Height)
	for _, p := range placements {
		mask, err := wc.glyphMask(p)
		require.NoError(t, err)
		grid.mark(mask)
	}
	next := words[len(placements)]
	rng := rand.New(rand.NewPCG(7, 7))
	_, ok, err := wc.tryPlace(grid, next, opts.MinFontSize, rng)
	require.NoError(t, err)
	assert.False(t, ok, "%s had a free slot at size %d", next.Word, opts.MinFontSize)
}

func TestLayoutDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.FontPath = writeTestFont(t)

	wc1, err := New(opts, nil)
	require.NoError(t, err)
	wc2, err := New(opts, nil)
	require.NoError(t, err)

	a, err := wc1.Layout(sampleWords())
	require.NoError(t, err)
	b, err := wc2.Layout(sampleWords())
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Rect, b[i].Rect)
		assert.Equal(t, a[i].FontSize, b[i].FontSize)
	}
}

func TestLayoutRespectsMaxWords(t *testing.T) {
	opts := DefaultOptions()
	opts.FontPath = writeTestFont(t)
	opts.MaxWords = 3

	wc, err := New(opts, nil)
	require.NoError(t, err)

	placements, err := wc.Layout(sampleWords())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(placements), 3)

	empty, err := wc.Layout(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGenerateAndSave(t *testing.T) {
	opts := DefaultOptions()
	opts.FontPath = writeTestFont(t)

	wc, err := New(opts, logger.NewTestLogger())
	require.NoError(t, err)

	img, placements, err := wc.Generate(sampleWords())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 200), img.Bounds())
	assert.NotEmpty(t, placements)

	// Background is white and some word pixels are drawn
	white, nonWhite := 0, 0
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
				white++
			} else {
				nonWhite++
			}
		}
	}
	assert.Greater(t, nonWhite, 0)
	assert.Greater(t, white, nonWhite)

	dir := t.TempDir()
	pngPath := filepath.Join(dir, "out", "wordcloud.png")
	require.NoError(t, Save(img, pngPath))

	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	bmpPath := filepath.Join(dir, "wordcloud.bmp")
	require.NoError(t, Save(img, bmpPath))
	bf, err := os.Open(bmpPath)
	require.NoError(t, err)
	defer bf.Close()
	_, err = bmp.Decode(bf)
	require.NoError(t, err)

	require.NoError(t, Save(img, filepath.Join(dir, "wordcloud.jpg")))
	require.NoError(t, Save(img, filepath.Join(dir, "wordcloud.tiff")))
	assert.Error(t, Save(img, filepath.Join(dir, "wordcloud.svg")))
}

func TestRenderScale(t *testing.T) {
	opts := DefaultOptions()
	opts.FontPath = writeTestFont(t)
	opts.Scale = 2

	wc, err := New(opts, nil)
	require.NoError(t, err)

	img, _, err := wc.Generate(sampleWords()[:2])
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 400), img.Bounds())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("white")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, c)

	c, err = ParseColor("#102030")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0x10, 0x20, 0x30, 0xff}, c)

	_, err = ParseColor("not-a-color")
	assert.Error(t, err)
}

func solidMask(r image.Rectangle) *image.Alpha {
	m := image.NewAlpha(r)
	for i := range m.Pix {
		m.Pix[i] = 0xff
	}
	return m
}

func TestOccupancy(t *testing.T) {
	o := newOccupancy(10, 10)
	assert.True(t, o.free(image.Rect(0, 0, 10, 10)))

	o.mark(solidMask(image.Rect(2, 2, 4, 4)))
	assert.False(t, o.free(image.Rect(3, 3, 5, 5)))
	assert.True(t, o.free(image.Rect(4, 0, 10, 10)))
	assert.True(t, o.free(image.Rect(0, 4, 10, 10)))

	// Marking outside the canvas is clipped
	o.mark(solidMask(image.Rect(-5, -5, 1, 1)))
	assert.False(t, o.free(image.Rect(0, 0, 1, 1)))

	// Transparent pixels stay free
	o.mark(image.NewAlpha(image.Rect(5, 5, 10, 10)))
	assert.True(t, o.free(image.Rect(5, 5, 10, 10)))
}

func TestOccupancySampleFindsLastHole(t *testing.T) {
	o := newOccupancy(40, 20)
	o.mark(solidMask(image.Rect(0, 0, 40, 12)))
	o.mark(solidMask(image.Rect(0, 12, 31, 20)))
	o.mark(solidMask(image.Rect(36, 12, 40, 20)))
	o.mark(solidMask(image.Rect(31, 15, 36, 20)))

	// Only a 5x3 hole at (31,12) is left
	for seed := uint64(0); seed < 20; seed++ {
		pt, ok := o.sample(5, 3, rand.New(rand.NewPCG(seed, seed)))
		require.True(t, ok)
		assert.Equal(t, image.Pt(31, 12), pt)
	}

	rng := rand.New(rand.NewPCG(1, 1))
	_, ok := o.sample(6, 3, rng)
	assert.False(t, ok)
	_, ok = o.sample(5, 4, rng)
	assert.False(t, ok)
	_, ok = o.sample(41, 1, rng)
	assert.False(t, ok)
}

func TestOccupancySampleCoversCanvas(t *testing.T) {
	o := newOccupancy(4, 3)
	rng := rand.New(rand.NewPCG(3, 3))

	seen := make(map[image.Point]bool)
	for range 500 {
		pt, ok := o.sample(2, 2, rng)
		require.True(t, ok)
		seen[pt] = true
	}
	// 3 columns x 2 rows of top-left corners
	assert.Len(t, seen, 6)
}
