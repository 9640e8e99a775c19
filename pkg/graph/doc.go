// Package graph defines the CSG scene graph for kerf.
// The scene graph is an immutable DAG of primitives, transforms, boolean
// operations and groups that describes one or more solids.
package graph
