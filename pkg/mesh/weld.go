package mesh

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type weldPoint struct {
	idx  int
	pos  v3.Vec
	rect rtreego.Rect
}

func (w *weldPoint) Bounds() rtreego.Rect { return w.rect }

// Weld merges vertices closer than tol and remaps faces onto the survivors.
// The first vertex of each cluster wins. Consecutive repeats produced by the
// merge are collapsed and faces left with fewer than three vertices are
// dropped. With tol <= 0 only exactly equal positions merge.
func Weld(vertices []v3.Vec, faces [][]int, tol float64) (*IFS, error) {
	remap, kept := weldIndex(vertices, tol)

	var out [][]int
	for _, loop := range faces {
		var welded []int
		for _, v := range loop {
			if v < 0 || v >= len(vertices) {
				return nil, errors.Wrapf(ErrInvalidFace, "face references vertex %d of %d", v, len(vertices))
			}
			w := remap[v]
			if len(welded) > 0 && welded[len(welded)-1] == w {
				continue
			}
			welded = append(welded, w)
		}
		for len(welded) > 1 && welded[0] == welded[len(welded)-1] {
			welded = welded[:len(welded)-1]
		}
		if len(lo.Uniq(welded)) < 3 {
			continue
		}
		out = append(out, welded)
	}
	return BuildIFS(kept, out)
}

// FromLoops welds a polygon soup into an IFS.
func FromLoops(loops [][]v3.Vec, tol float64) (*IFS, error) {
	var verts []v3.Vec
	faces := make([][]int, len(loops))
	for i, loop := range loops {
		faces[i] = lo.Range(len(loop))
		for j := range faces[i] {
			faces[i][j] += len(verts)
		}
		verts = append(verts, loop...)
	}
	return Weld(verts, faces, tol)
}

// weldIndex returns, for every input vertex, its index in the kept list.
func weldIndex(vertices []v3.Vec, tol float64) ([]int, []v3.Vec) {
	remap := make([]int, len(vertices))
	var kept []v3.Vec

	if tol <= 0 {
		seen := make(map[v3.Vec]int)
		for i, p := range vertices {
			if k, ok := seen[p]; ok {
				remap[i] = k
				continue
			}
			seen[p] = len(kept)
			remap[i] = len(kept)
			kept = append(kept, p)
		}
		return remap, kept
	}

	tree := rtreego.NewTree(3, 8, 32)
	for i, p := range vertices {
		pt := rtreego.Point{p.X, p.Y, p.Z}
		best, bestDist := -1, tol
		for _, obj := range tree.SearchIntersect(pt.ToRect(tol)) {
			w := obj.(*weldPoint)
			if d := w.pos.Sub(p).Length(); d <= bestDist && (best < 0 || d < bestDist || w.idx < best) {
				best, bestDist = w.idx, d
			}
		}
		if best >= 0 {
			remap[i] = best
			continue
		}
		remap[i] = len(kept)
		tree.Insert(&weldPoint{idx: len(kept), pos: p, rect: pt.ToRect(tol / 2)})
		kept = append(kept, p)
	}
	return remap, kept
}
