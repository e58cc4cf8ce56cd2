package voxel

import (
	"math"

	"github.com/taigrr/matvox/pkg/math3d"
)

// Decimate removes vertices that are geometrically and materially
// unnecessary: a boundary vertex whose adjacent faces are coplanar,
// share one material, and whose two boundary edges are collinear
// through it contributes nothing and is dissolved. Interior-vertex
// decimation (coplanar/same-material interior points, and the 2-edge
// "bend" generalization of it) is future work; interior vertices pass
// through untouched.
func Decimate(mesh *Mesh) {
	for _, v := range mesh.he.Vertices() {
		if !mesh.he.IsVertexOnBoundary(v) {
			continue
		}
		if !vertexIsDissolvable(mesh, v) {
			continue
		}
		dissolveBoundaryVertex(mesh, v)
	}
}

func vertexIsDissolvable(mesh *Mesh, v int) bool {
	normal := mesh.he.VertexNormal(v)
	uniform := true
	minDot := math.Inf(1)
	haveMat := false
	mat0 := 0
	seen := map[int]bool{}

	for _, he := range mesh.he.OutgoingHalfEdges(v) {
		f := mesh.he.HalfEdge(he).Face
		if seen[f] {
			continue
		}
		seen[f] = true
		m := mesh.he.FaceTag(f)
		if !haveMat {
			mat0, haveMat = m, true
		} else if m != mat0 {
			uniform = false
		}
		d := mesh.he.FaceNormal(f).Dot(normal)
		if d < minDot {
			minDot = d
		}
	}
	if !haveMat || !uniform || minDot <= 1.0-math3d.Epsilon {
		return false
	}

	dirs := boundaryDirsAwayFromVertex(mesh, v)
	if len(dirs) != 2 {
		return false
	}
	return dirs[0].Dot(dirs[1]) < -1.0+math3d.Epsilon
}

// boundaryDirsAwayFromVertex returns, for each boundary half-edge
// incident to v, the unit direction pointing away from v along it —
// regardless of whether that half-edge is stored outgoing from v or
// incoming to it.
func boundaryDirsAwayFromVertex(mesh *Mesh, v int) []math3d.Vec3 {
	var dirs []math3d.Vec3
	for _, he := range mesh.he.OutgoingHalfEdges(v) {
		if mesh.he.IsEdgeOnBoundary(he) {
			dirs = append(dirs, mesh.he.EdgeVector(he).Normalize())
		}
		prev := mesh.he.HalfEdge(he).Prev
		if mesh.he.IsEdgeOnBoundary(prev) {
			dirs = append(dirs, mesh.he.EdgeVector(prev).Normalize().Negate())
		}
	}
	return dirs
}

func isFlippable(mesh *Mesh, e int) bool {
	if mesh.he.IsEdgeOnBoundary(e) {
		return false
	}
	twin := mesh.he.HalfEdge(e).Twin
	eDir := mesh.he.EdgeVector(e)
	dir1 := mesh.he.EdgeVector(mesh.he.HalfEdge(e).Next)
	dir0 := mesh.he.EdgeVector(mesh.he.HalfEdge(twin).Prev)
	return dir0.Cross(dir1).Dot(dir0.Cross(eDir.Negate())) > 0.0
}

// dissolveBoundaryVertex flips every non-boundary half-edge incident to
// v out of its star, then removes it. If at any point no remaining
// incident interior edge is safely flippable, or a flip is refused,
// the vertex is left in place.
func dissolveBoundaryVertex(mesh *Mesh, v int) {
	var inner []int
	for _, he := range mesh.he.OutgoingHalfEdges(v) {
		if !mesh.he.IsEdgeOnBoundary(he) {
			inner = append(inner, he)
		}
	}

	innerCount := len(inner)
	var flippable []int
	for _, he := range inner {
		if isFlippable(mesh, he) {
			flippable = append(flippable, he)
		}
	}

	for innerCount > 0 {
		if len(flippable) == 0 {
			return
		}
		he := flippable[len(flippable)-1]
		flippable = flippable[:len(flippable)-1]

		if err := mesh.he.FlipEdge(he); err != nil {
			return
		}
		innerCount--

		prev := mesh.he.HalfEdge(he).Prev
		next := mesh.he.HalfEdge(mesh.he.HalfEdge(he).Next).Twin
		for _, cand := range [2]int{prev, next} {
			if cand == -1 || containsInt(flippable, cand) || !isFlippable(mesh, cand) {
				continue
			}
			flippable = append(flippable, cand)
		}
	}

	mesh.he.RemoveManifoldVertex(v)
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
