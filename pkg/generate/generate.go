// Package generate produces 2D point sets for exercising the triangulator:
// random points in squares, rectangles, circles and ellipses, points on an
// axis, regional cuts, duplicates, and regular grids. Every generator draws
// from a caller-supplied source so results are reproducible.
package generate

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"golang.org/x/exp/rand"
)

// Axis selects the variable coordinate for OnAxis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Method selects the generator used at the leaves of InRegionalCut.
type Method byte

const (
	MethodRect       Method = 'r'
	MethodSquare     Method = 's'
	MethodHorizontal Method = 'h'
	MethodVertical   Method = 'v'
	MethodCircle     Method = 'c'
	MethodEllipse    Method = 'e'
	MethodCenter     Method = 'o'
)

// Rect is an axis-aligned region.
type Rect struct {
	Min, Max v2.Vec
}

// NewSource returns a deterministic generator seeded with seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

func (b Rect) center() v2.Vec {
	return v2.Vec{X: (b.Min.X + b.Max.X) * 0.5, Y: (b.Min.Y + b.Max.Y) * 0.5}
}

// square returns the largest square centered in b.
func (b Rect) square() Rect {
	c := b.center()
	h := math.Min(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y) * 0.5
	return Rect{
		Min: v2.Vec{X: c.X - h, Y: c.Y - h},
		Max: v2.Vec{X: c.X + h, Y: c.Y + h},
	}
}

// InRect returns n uniform points inside b.
func InRect(r *rand.Rand, n int, b Rect) []v2.Vec {
	out := make([]v2.Vec, 0, n)
	for len(out) < n {
		out = append(out, v2.Vec{X: uniform(r, b.Min.X, b.Max.X), Y: uniform(r, b.Min.Y, b.Max.Y)})
	}
	return out
}

// InSquare returns n uniform points inside the largest square centered in b.
func InSquare(r *rand.Rand, n int, b Rect) []v2.Vec {
	return InRect(r, n, b.square())
}

// InEllipse returns n uniform points inside the ellipse inscribed in b,
// by rejection sampling.
func InEllipse(r *rand.Rand, n int, b Rect) []v2.Vec {
	c := b.center()
	rx := math.Abs(b.Max.X-b.Min.X) * 0.5
	ry := math.Abs(b.Max.Y-b.Min.Y) * 0.5
	out := make([]v2.Vec, 0, n)
	if rx == 0 || ry == 0 {
		return out
	}
	for len(out) < n {
		p := v2.Vec{X: uniform(r, b.Min.X, b.Max.X), Y: uniform(r, b.Min.Y, b.Max.Y)}
		dx, dy := p.X-c.X, p.Y-c.Y
		if dx*dx/(rx*rx)+dy*dy/(ry*ry) > 1 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// InCircle returns n uniform points inside the largest circle centered in b.
func InCircle(r *rand.Rand, n int, b Rect) []v2.Vec {
	return InEllipse(r, n, b.square())
}

// OnAxis returns n points on the line where the other coordinate equals
// constant. With uniform set the points are evenly spaced from lo to hi;
// otherwise they are random.
func OnAxis(r *rand.Rand, n int, lo, hi, constant float64, axis Axis, uniformSpacing bool) []v2.Vec {
	out := make([]v2.Vec, 0, n)
	step := 0.0
	if n > 1 {
		step = (hi - lo) / float64(n-1)
	}
	for i := 0; i < n; i++ {
		v := lo + step*float64(i)
		if !uniformSpacing {
			v = uniform(r, lo, hi)
		}
		if axis == AxisX {
			out = append(out, v2.Vec{X: v, Y: constant})
		} else {
			out = append(out, v2.Vec{X: constant, Y: v})
		}
	}
	return out
}

// InRegionalCut halves b recursively cuts times, alternating the cut axis
// when alternate is set, and fills every leaf region with n points using m.
// It spreads points more evenly than a single uniform draw.
func InRegionalCut(r *rand.Rand, n, cuts int, axis Axis, alternate bool, b Rect, m Method) []v2.Vec {
	if cuts < 1 {
		switch m {
		case MethodSquare:
			return InSquare(r, n, b)
		case MethodHorizontal:
			return OnAxis(r, n, b.Min.X, b.Max.X, b.center().Y, AxisX, false)
		case MethodVertical:
			return OnAxis(r, n, b.Min.Y, b.Max.Y, b.center().X, AxisY, false)
		case MethodCircle:
			return InCircle(r, n, b)
		case MethodEllipse:
			return InEllipse(r, n, b)
		case MethodCenter:
			out := make([]v2.Vec, n)
			for i := range out {
				out[i] = b.center()
			}
			return out
		}
		return InRect(r, n, b)
	}

	next := axis
	if alternate {
		next = 1 - axis
	}
	c := b.center()
	var lower, upper Rect
	if axis == AxisX {
		lower = Rect{Min: b.Min, Max: v2.Vec{X: b.Max.X, Y: c.Y}}
		upper = Rect{Min: v2.Vec{X: b.Min.X, Y: c.Y}, Max: b.Max}
	} else {
		lower = Rect{Min: b.Min, Max: v2.Vec{X: c.X, Y: b.Max.Y}}
		upper = Rect{Min: v2.Vec{X: c.X, Y: b.Min.Y}, Max: b.Max}
	}
	out := InRegionalCut(r, n, cuts-1, next, alternate, lower, m)
	return append(out, InRegionalCut(r, n, cuts-1, next, alternate, upper, m)...)
}

// Duplicate returns a shuffled list holding every input point once plus
// between minDup and maxDup extra copies of it.
func Duplicate(r *rand.Rand, points []v2.Vec, minDup, maxDup int) []v2.Vec {
	var out []v2.Vec
	for _, p := range points {
		k := minDup
		if maxDup > minDup {
			k += r.Intn(maxDup - minDup + 1)
		}
		for i := 0; i <= k; i++ {
			out = append(out, p)
		}
	}
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// InGrid returns the (xDiv+1)*(yDiv+1) lattice points of b. Division counts
// below one are raised to one.
func InGrid(b Rect, xDiv, yDiv int) []v2.Vec {
	xDiv = max(xDiv, 1)
	yDiv = max(yDiv, 1)
	dx := (b.Max.X - b.Min.X) / float64(xDiv)
	dy := (b.Max.Y - b.Min.Y) / float64(yDiv)
	out := make([]v2.Vec, 0, (xDiv+1)*(yDiv+1))
	for i := 0; i <= xDiv; i++ {
		for j := 0; j <= yDiv; j++ {
			out = append(out, v2.Vec{X: b.Min.X + dx*float64(i), Y: b.Min.Y + dy*float64(j)})
		}
	}
	return out
}
