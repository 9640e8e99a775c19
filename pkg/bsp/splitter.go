package bsp

import "math"

// Splitter chooses the index of the polygon whose plane partitions polys.
// polys is never empty.
type Splitter interface {
	Choose(polys []Polygon, eps float64) int
}

// FirstPolygon always splits on the first polygon.
type FirstPolygon struct{}

func (FirstPolygon) Choose([]Polygon, float64) int { return 0 }

// MinSplits scores candidate planes by splits*Weight + |front-back| and
// picks the cheapest, earliest on ties. Only the first Candidates polygons
// are scored; zero scores all of them.
type MinSplits struct {
	Weight     float64
	Candidates int
}

func (m MinSplits) Choose(polys []Polygon, eps float64) int {
	n := len(polys)
	if m.Candidates > 0 && m.Candidates < n {
		n = m.Candidates
	}
	best, bestCost := 0, math.Inf(1)
	for i := 0; i < n; i++ {
		pl := polys[i].Plane
		var front, back, splits int
		for j, q := range polys {
			if j == i {
				continue
			}
			var side Side
			for _, v := range q.Vertices {
				side |= pl.Classify(v, eps)
			}
			switch side {
			case Front:
				front++
			case Back:
				back++
			case Spanning:
				splits++
			}
		}
		cost := float64(splits)*m.Weight + math.Abs(float64(front-back))
		if cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return best
}
