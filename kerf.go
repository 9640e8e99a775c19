// Package kerf is a small computational-geometry kernel: 2D Delaunay
// triangulation by edge flipping, indexed face sets and half-edge meshes,
// and BSP trees with CSG booleans. The functions here are thin entry points
// over the pkg/ packages; App runs the Lisp DSL pipeline on top of them.
package kerf

import (
	"context"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/kerf/pkg/bsp"
	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/logging"
	"github.com/chazu/kerf/pkg/mesh"
	"github.com/chazu/kerf/pkg/triangulate"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrDegenerateInput   = triangulate.ErrDegenerateInput
	ErrInvalidFace       = mesh.ErrInvalidFace
	ErrNonManifold       = mesh.ErrNonManifold
	ErrDegeneratePolygon = bsp.ErrDegeneratePolygon
)

// Triangulate builds a valid, not necessarily Delaunay, triangulation of
// points. Vertex IDs are the indices into points.
func Triangulate(points []v2.Vec, cfg config.Config) (*triangulate.Triangulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return triangulate.Triangulate(points, triangulate.OptionsFrom(cfg))
}

// MakeDelaunay returns a Delaunay copy of t. t is left unchanged.
func MakeDelaunay(t *triangulate.Triangulation) *triangulate.Triangulation {
	return triangulate.MakeDelaunay(t)
}

// BuildIFS builds an indexed face set.
func BuildIFS(vertices []v3.Vec, faces [][]int) (*mesh.IFS, error) {
	return mesh.BuildIFS(vertices, faces)
}

// BuildHEDS builds the half-edge structure of ifs.
func BuildHEDS(ifs *mesh.IFS) (*mesh.HEDS, error) {
	return mesh.BuildHEDS(ifs)
}

// BuildBSP builds a BSP tree over polygons. cfg.Epsilon is the plane
// classification tolerance and cfg.Splitter picks the heuristic. An invalid
// cfg, an unknown splitter name included, wraps config.ErrInvalidConfig.
func BuildBSP(polygons []bsp.Polygon, cfg config.Config) (*bsp.Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return bsp.Build(polygons, bsp.OptionsFrom(cfg))
}

// CSGUnion returns the boundary of a ∪ b. The operands are not modified.
func CSGUnion(a, b *bsp.Tree) []bsp.Polygon { return bsp.Union(a, b) }

// CSGIntersection returns the boundary of a ∩ b.
func CSGIntersection(a, b *bsp.Tree) []bsp.Polygon { return bsp.Intersection(a, b) }

// CSGDifference returns the boundary of a − b.
func CSGDifference(a, b *bsp.Tree) []bsp.Polygon { return bsp.Difference(a, b) }

// TriangulateAll triangulates every point set and runs the flip pass on
// each, using at most cfg.Workers goroutines. Results follow the order of
// sets. The first failure cancels the jobs not yet started.
func TriangulateAll(ctx context.Context, sets [][]v2.Vec, cfg config.Config) ([]*triangulate.Triangulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := triangulate.OptionsFrom(cfg)
	return runAll(ctx, len(sets), cfg.Workers, func(i int) (*triangulate.Triangulation, error) {
		t, err := triangulate.Triangulate(sets[i], opts)
		if err != nil {
			return nil, err
		}
		return triangulate.MakeDelaunay(t), nil
	})
}

// BuildAll builds one BSP tree per polygon soup, using at most cfg.Workers
// goroutines.
func BuildAll(ctx context.Context, soups [][]bsp.Polygon, cfg config.Config) ([]*bsp.Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := bsp.OptionsFrom(cfg)
	return runAll(ctx, len(soups), cfg.Workers, func(i int) (*bsp.Tree, error) {
		return bsp.Build(soups[i], opts)
	})
}

func runAll[T any](ctx context.Context, n, workers int, job func(i int) (T, error)) ([]T, error) {
	out := make([]T, n)
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := job(i)
			if err != nil {
				return errors.WithMessagef(err, "job %d", i)
			}
			out[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	logging.Logger().Debug("kerf: batch done", "jobs", n, "workers", workers)
	return out, nil
}
