package wordcloud

import (
	"image"
	"math/rand/v2"
)

// occupancy tracks inked canvas pixels with a summed-area table so that a
// rectangle can be tested in constant time.
type occupancy struct {
	w, h     int
	used     []bool
	integral []int32 // (w+1)*(h+1)
}

func newOccupancy(w, h int) *occupancy {
	return &occupancy{
		w:        w,
		h:        h,
		used:     make([]bool, w*h),
		integral: make([]int32, (w+1)*(h+1)),
	}
}

// free reports whether no pixel of r is used. r must lie inside the canvas.
func (o *occupancy) free(r image.Rectangle) bool {
	stride := o.w + 1
	sum := o.integral[r.Max.Y*stride+r.Max.X] -
		o.integral[r.Min.Y*stride+r.Max.X] -
		o.integral[r.Max.Y*stride+r.Min.X] +
		o.integral[r.Min.Y*stride+r.Min.X]
	return sum == 0
}

// sample picks a uniformly random top-left corner at which a w x h box is
// free. Every position on the canvas is tested against the summed-area
// table, so a box is found whenever any free slot exists.
func (o *occupancy) sample(w, h int, rng *rand.Rand) (image.Point, bool) {
	if w <= 0 || h <= 0 || w > o.w || h > o.h {
		return image.Point{}, false
	}

	hits := 0
	o.each(w, h, func(image.Point) bool {
		hits++
		return true
	})
	if hits == 0 {
		return image.Point{}, false
	}

	var pt image.Point
	skip := rng.IntN(hits)
	o.each(w, h, func(p image.Point) bool {
		if skip == 0 {
			pt = p
			return false
		}
		skip--
		return true
	})
	return pt, true
}

// each calls fn with every free w x h position in row-major order until fn
// returns false
func (o *occupancy) each(w, h int, fn func(image.Point) bool) {
	for y := 0; y+h <= o.h; y++ {
		for x := 0; x+w <= o.w; x++ {
			if o.free(image.Rect(x, y, x+w, y+h)) && !fn(image.Pt(x, y)) {
				return
			}
		}
	}
}

// mark sets every pixel of mask with non-zero alpha as used. mask bounds
// are in canvas coordinates and are clipped to the canvas.
func (o *occupancy) mark(mask *image.Alpha) {
	r := mask.Rect.Intersect(image.Rect(0, 0, o.w, o.h))
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if mask.AlphaAt(x, y).A != 0 {
				o.used[y*o.w+x] = true
			}
		}
	}
	o.rebuild(r.Min.Y)
}

// rebuild recomputes the summed-area table from row y0 down
func (o *occupancy) rebuild(y0 int) {
	stride := o.w + 1
	for y := y0; y < o.h; y++ {
		var rowSum int32
		for x := 0; x < o.w; x++ {
			if o.used[y*o.w+x] {
				rowSum++
			}
			o.integral[(y+1)*stride+x+1] = o.integral[y*stride+x+1] + rowSum
		}
	}
}
