// Package voxel turns a manifold, per-face-tagged triangle mesh into a
// regular grid of voxels, each voxel itself a closed manifold mesh
// carved out of the input by a unit cube. The pipeline follows three
// stages: axis-aligned planar contouring to insert vertices on every
// slice plane, slab extraction to bucket triangles into grid cells,
// and, per cell, six cube-face intersections stitched back together
// into a manifold cell mesh with in/out gradient classification
// deciding which cells should exist at all.
package voxel

import (
	"github.com/taigrr/matvox/pkg/halfedge"
	"github.com/taigrr/matvox/pkg/math3d"
)

// Mesh is a manifold triangle mesh with a per-face material tag,
// backed by a half-edge structure. It is the unit every contouring,
// decimation, and cube-intersection step in this package operates on.
type Mesh struct {
	he *halfedge.Mesh
}

// NewMesh builds a Mesh from an indexed triangle soup. materials must
// be 1-based (0 is reserved). FromModelsMesh converts models.Mesh's
// 0-based, -1-unassigned indices: -1 becomes 1 and index i becomes i+2.
func NewMesh(positions []math3d.Vec3, faces [][3]int, materials []int) (*Mesh, error) {
	m, err := halfedge.New(positions, faces, materials)
	if err != nil {
		return nil, err
	}
	return &Mesh{he: m}, nil
}

func fromHalfEdge(m *halfedge.Mesh) *Mesh { return &Mesh{he: m} }

// HalfEdge exposes the underlying half-edge mesh for callers (tests,
// exporters) that need lower-level access.
func (m *Mesh) HalfEdge() *halfedge.Mesh { return m.he }

// Triangles flattens the mesh to an indexed triangle soup.
func (m *Mesh) Triangles() ([]math3d.Vec3, [][3]int, []int) {
	return m.he.Triangles()
}

// ExtremeCoordinates returns the mesh's axis-aligned bounding box.
func (m *Mesh) ExtremeCoordinates() (min, max math3d.Vec3) {
	return m.he.ExtremeCoordinates()
}

// Translated returns a copy of the mesh translated by offset.
func (m *Mesh) Translated(offset math3d.Vec3) *Mesh {
	return fromHalfEdge(m.he.Translated(offset))
}

// Transformed returns a copy of the mesh with mat applied to every vertex.
func (m *Mesh) Transformed(mat math3d.Mat4) *Mesh {
	return fromHalfEdge(m.he.Transformed(mat))
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh { return fromHalfEdge(m.he.Clone()) }

// NumFaces returns the number of live faces.
func (m *Mesh) NumFaces() int { return m.he.NumFaces() }

// NumVertices returns the number of live vertices.
func (m *Mesh) NumVertices() int { return m.he.NumVertices() }
