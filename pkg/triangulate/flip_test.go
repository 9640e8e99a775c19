package triangulate

import (
	"testing"

	"github.com/chazu/kerf/pkg/generate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeDelaunayUnitSquareTieBreak(t *testing.T) {
	tr, err := Triangulate(unitSquare, Options{})
	require.NoError(t, err)
	require.True(t, tr.HasEdge(1, 3))

	d := MakeDelaunay(tr)
	require.NoError(t, d.Validate())
	assert.True(t, d.HasEdge(0, 2), "co-circular square resolves to the diagonal with the smaller key")
	assert.False(t, d.HasEdge(1, 3))
	assert.Equal(t, 1, d.FlipCount())

	// The input triangulation is untouched.
	assert.True(t, tr.HasEdge(1, 3))
	assert.Equal(t, 0, tr.FlipCount())
}

func TestMakeDelaunayUnitSquareFromChosenDiagonal(t *testing.T) {
	// Starting from the diagonal (0,0)-(1,1), which already has the smaller
	// key, the flip pass leaves the square alone.
	tr, err := FromTriangles(unitSquare, [][3]int{{0, 1, 2}, {0, 2, 3}}, Options{})
	require.NoError(t, err)

	d := MakeDelaunay(tr)
	assert.True(t, d.HasEdge(0, 2))
	assert.Equal(t, 0, d.FlipCount())
	assert.Equal(t, 1, d.Passes())
}

func TestMakeDelaunayIsStable(t *testing.T) {
	pts := generate.InGrid(box, 6, 6)
	var first []Triangle
	for run := 0; run < 5; run++ {
		tr, err := Triangulate(pts, Options{})
		require.NoError(t, err)
		got := MakeDelaunay(tr).Triangles()
		if run == 0 {
			first = got
			continue
		}
		assert.Equal(t, first, got, "run %d", run)
	}
}

func TestMakeDelaunayIsIdempotent(t *testing.T) {
	tr, err := Triangulate(generate.InRect(generate.NewSource(11), 300, box), Options{})
	require.NoError(t, err)

	d := MakeDelaunay(tr)
	assert.Greater(t, d.FlipCount(), 0)

	again := MakeDelaunay(d)
	assert.Equal(t, 0, again.FlipCount())
	assert.Equal(t, d.Triangles(), again.Triangles())
}

func TestMakeDelaunayPassLimit(t *testing.T) {
	tr, err := Triangulate(generate.InRect(generate.NewSource(12), 300, box), Options{MaxFlipPasses: 1})
	require.NoError(t, err)

	d := MakeDelaunay(tr)
	assert.Equal(t, 1, d.Passes())
	assert.Greater(t, d.FlipCount(), 0)
	require.NoError(t, d.Validate())
}

func TestFlipRewiresNeighbors(t *testing.T) {
	tr, err := Triangulate(generate.InCircle(generate.NewSource(13), 80, box), Options{})
	require.NoError(t, err)
	d := MakeDelaunay(tr)

	tris := d.Triangles()
	for i, tri := range tris {
		for s := 0; s < 3; s++ {
			n := tri.N[s]
			if n < 0 {
				continue
			}
			back := tris[n].slot(tri.V[(s+1)%3], tri.V[s])
			require.GreaterOrEqual(t, back, 0)
			require.Equal(t, i, tris[n].N[back])
		}
	}
}

func TestFromTrianglesReorientsClockwise(t *testing.T) {
	tr, err := FromTriangles(unitSquare, [][3]int{{0, 2, 1}, {0, 3, 2}}, Options{})
	require.NoError(t, err)
	require.NoError(t, tr.Validate())
	assert.True(t, tr.HasEdge(0, 2))
}

func TestFromTrianglesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		tris [][3]int
	}{
		{"missing triangle", [][3]int{{0, 1, 2}}},
		{"out of range", [][3]int{{0, 1, 2}, {0, 2, 7}}},
		{"flat", [][3]int{{0, 1, 1}, {0, 2, 3}}},
		{"overlapping", [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 1, 3}}},
		{"repeated", [][3]int{{0, 1, 2}, {0, 1, 2}, {0, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromTriangles(unitSquare, tt.tris, Options{})
			assert.ErrorIs(t, err, ErrInvalidTriangulation)
		})
	}
}
