package voxel

import (
	"math"
	"sort"

	"github.com/taigrr/matvox/pkg/math3d"
)

// Slab is one slab of a slice: a contiguous sub-mesh extracted from a
// contoured mesh along one axis, paired with the axis coordinate of
// its lower bounding plane.
type Slab struct {
	LowerPlane float64
	Mesh       *Mesh
}

// ExtractSlabs partitions a contoured mesh into slabs of thickness
// spacing along axis, using each face's centroid to decide which slab
// it belongs to. A face whose centroid lies exactly on a slab's lower
// boundary is assigned to the slab below instead, so every face is
// claimed by exactly one slab.
func ExtractSlabs(mesh *Mesh, axis math3d.Axis, spacing, min, max float64) []Slab {
	type bucket struct {
		faces    []int
		vertexID map[int]int
		verts    []math3d.Vec3
	}
	buckets := make(map[int]*bucket)

	for _, f := range mesh.he.Faces() {
		center := mesh.he.FaceCenter(f)
		c := axis.Component(center)
		slice := math.Floor((c - min) / spacing)
		lower := slice*spacing + min
		if !(lower < c) {
			slice--
		}
		idx := int(slice)

		b := buckets[idx]
		if b == nil {
			b = &bucket{vertexID: make(map[int]int)}
			buckets[idx] = b
		}
		b.faces = append(b.faces, f)
		for _, v := range mesh.he.FaceVertices(f) {
			if _, ok := b.vertexID[v]; !ok {
				b.vertexID[v] = len(b.verts)
				b.verts = append(b.verts, mesh.he.VertexPosition(v))
			}
		}
	}

	var keys []int
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]Slab, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		faces := make([][3]int, len(b.faces))
		materials := make([]int, len(b.faces))
		for i, f := range b.faces {
			tri := mesh.he.FaceVertices(f)
			for j, v := range tri {
				faces[i][j] = b.vertexID[v]
			}
			materials[i] = mesh.he.FaceTag(f)
		}
		sub, err := NewMesh(b.verts, faces, materials)
		if err != nil {
			continue // a malformed slab (non-manifold cut) contributes nothing rather than aborting the whole slice
		}
		out = append(out, Slab{LowerPlane: float64(k)*spacing + min, Mesh: sub})
	}
	return out
}

// SliceAxis runs the full planar-contouring + slab-extraction +
// decimation pipeline for one axis: it snaps the mesh's bounding box
// outward to spacing multiples, contours every edge onto the
// resulting slice planes, extracts one sub-mesh per slab, and
// decimates redundant boundary vertices out of each.
func SliceAxis(mesh *Mesh, axis math3d.Axis, spacing float64) []Slab {
	lo, hi := mesh.ExtremeCoordinates()
	min := math.Floor(axis.Component(lo)/spacing-math3d.Epsilon) * spacing
	max := math.Ceil(axis.Component(hi)/spacing+math3d.Epsilon) * spacing

	working := mesh.Clone()
	Contour(working, axis, spacing, min, max)
	slabs := ExtractSlabs(working, axis, spacing, min, max)
	for _, s := range slabs {
		Decimate(s.Mesh)
	}
	return slabs
}
