package voxel

import "github.com/taigrr/matvox/pkg/math3d"

// AlignWithSlicePlanes snaps any vertex within SnapEpsilon of an axis
// slice plane exactly onto it. Call this before AxisGradients so a
// vertex that is merely close to a plane (rather than exactly on it)
// doesn't turn what should be a pure voxel into a borderline complex
// one. The coarser SnapEpsilon (rather than the package's usual
// Epsilon) is intentional: face recovery after a slice can drift
// vertices further off a plane than Epsilon tolerates, so this snap
// must stay loose. Do not unify it with the tighter tolerance used
// everywhere else.
func AlignWithSlicePlanes(mesh *Mesh, axis math3d.Axis, spacing float64) {
	he := mesh.he
	for _, v := range he.Vertices() {
		pos := he.VertexPosition(v)
		c := axis.Component(pos)
		plane := roundToMultiple(c, spacing)
		if absDiff(plane, c) < math3d.SnapEpsilon {
			he.MoveVertexTo(v, axis.WithComponent(pos, plane))
		}
	}
}

func roundToMultiple(v, spacing float64) float64 {
	q := v / spacing
	return roundHalfAwayFromZero(q) * spacing
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -roundHalfAwayFromZero(-v)
	}
	i := float64(int64(v))
	if v-i >= 0.5 {
		return i + 1
	}
	return i
}

func absDiff(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

// CollapseSmallEdges collapses every edge whose squared length is
// below SnapEpsilon^2 in a single pass, skipping any edge with an
// endpoint already deleted earlier in the same pass so a chain of
// tiny edges doesn't collapse onto a vertex that no longer exists.
func CollapseSmallEdges(mesh *Mesh) {
	he := mesh.he
	const threshold = math3d.SnapEpsilon * math3d.SnapEpsilon

	type pair struct{ a, b int }
	var edges []pair
	for _, e := range he.Edges() {
		a, b := he.EdgeVertices(e)
		edges = append(edges, pair{a, b})
	}

	deleted := make(map[int]bool)
	for _, p := range edges {
		if deleted[p.a] || deleted[p.b] {
			continue
		}
		edge, ok := he.ConnectingEdge(p.a, p.b)
		if !ok {
			continue
		}
		if he.EdgeSqrLength(edge) >= threshold {
			continue
		}
		survivor := he.CollapseEdge(edge)
		if survivor == p.a {
			deleted[p.b] = true
		} else {
			deleted[p.a] = true
		}
	}
}
