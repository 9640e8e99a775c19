// Package bsp builds binary space partitioning trees over polygonal solids
// and combines them with boolean (CSG) operations.
//
// Every traversal uses an explicit work-stack, so tree depth is bounded by
// memory rather than by the goroutine stack. CSG operations clone their
// operands; a Tree is never mutated after it is returned.
package bsp

import (
	"github.com/chazu/kerf/pkg/config"
	"github.com/pkg/errors"
)

var (
	// ErrDegeneratePolygon is returned by Build for a polygon that has fewer
	// than three vertices, no area, vertices off its plane, or crossing
	// edges.
	ErrDegeneratePolygon = errors.New("bsp: degenerate polygon")

	// ErrInvalidOptions is returned for a non-positive epsilon or an invalid
	// splitter.
	ErrInvalidOptions = errors.New("bsp: invalid options")
)

// Options configure tree construction and CSG.
type Options struct {
	// Epsilon is the plane thickness. Vertices within Epsilon of a plane are
	// coplanar with it. Too small a value for the input's scale splits nearly
	// coplanar faces into slivers that leave cracks after CSG; too large a
	// value snaps distinct features together and can leak volume between
	// them. Must be positive.
	Epsilon float64

	// Splitter picks each node's partitioning polygon. Nil means
	// FirstPolygon.
	Splitter Splitter
}

// DefaultOptions returns the defaults of config.Default.
func DefaultOptions() Options {
	return OptionsFrom(config.Default())
}

// OptionsFrom maps the shared configuration onto BSP options.
func OptionsFrom(c config.Config) Options {
	o := Options{Epsilon: c.Epsilon}
	if c.Splitter == config.SplitterMinSplits {
		o.Splitter = MinSplits{Weight: c.SplitWeight, Candidates: c.Candidates}
	}
	return o
}

// Validate checks the options. The error wraps ErrInvalidOptions.
func (o Options) Validate() error {
	if !(o.Epsilon > 0) {
		return errors.Wrapf(ErrInvalidOptions, "epsilon must be positive, got %g", o.Epsilon)
	}
	if ms, ok := o.Splitter.(MinSplits); ok && (ms.Weight < 0 || ms.Candidates < 0) {
		return errors.Wrapf(ErrInvalidOptions, "min-splits weight %g candidates %d", ms.Weight, ms.Candidates)
	}
	return nil
}

func (o Options) splitter() Splitter {
	if o.Splitter == nil {
		return FirstPolygon{}
	}
	return o.Splitter
}
