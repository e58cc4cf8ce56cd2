package voxel

import (
	"github.com/taigrr/matvox/pkg/math3d"
)

// EdgeRange tracks one edge as it sweeps through a sequence of slice
// planes along an axis. Min/Max are the edge's axis-coordinate extent;
// HalfEdge names the live half-edge currently representing it. Reversed
// is set when that half-edge's Origin sits at Max rather than Min (the
// one half-edge picked per edge, boundary or interior, can run
// opposite the sweep). Triangulation marks an edge born from a face
// split rather than carried over from the input mesh; such edges get
// an edge-flip pass instead of further splitting once they're caught
// up to the sweep.
type EdgeRange struct {
	Min, Max      float64
	HalfEdge      int
	Reversed      bool
	Triangulation bool
}

// Contour inserts a vertex on every axis-aligned plane spaced spacing
// apart between minSlice and maxSlice wherever an edge of mesh crosses
// that plane, re-triangulating each affected face as it goes. After
// Contour returns, every triangle of mesh lies entirely within a
// single slab [minSlice+k*spacing, minSlice+(k+1)*spacing).
func Contour(mesh *Mesh, axis math3d.Axis, spacing, minSlice, maxSlice float64) {
	pending := initialEdgeRanges(mesh, axis)

	for sliceCoord := minSlice; sliceCoord <= maxSlice+math3d.Epsilon; sliceCoord += spacing {
		var due, remaining []EdgeRange
		for _, r := range pending {
			stillStraddling := r.Max+math3d.Epsilon > sliceCoord
			if !stillStraddling {
				continue
			}
			if r.Min <= sliceCoord+math3d.Epsilon {
				due = append(due, r)
			} else {
				remaining = append(remaining, r)
			}
		}

		var edges, triEdges []EdgeRange
		for _, r := range due {
			if r.Triangulation {
				triEdges = append(triEdges, r)
			} else {
				edges = append(edges, r)
			}
		}

		for _, r := range edges {
			remaining = append(remaining, splitOnPlane(mesh, axis, sliceCoord, r)...)
		}
		for _, r := range triEdges {
			_ = mesh.he.FlipEdge(r.HalfEdge) // non-flippable results are left as extra triangulation edges
		}

		pending = remaining
	}
}

func initialEdgeRanges(mesh *Mesh, axis math3d.Axis) []EdgeRange {
	var ranges []EdgeRange
	for _, he := range mesh.he.Edges() {
		p0, p1 := mesh.he.EdgePositions(he)
		c0, c1 := axis.Component(p0), axis.Component(p1)
		if math3d.ApproxEqual(c0, c1) {
			continue // edge runs perpendicular to axis, never crosses a slice plane
		}
		reversed := c0 > c1
		min, max := c0, c1
		if reversed {
			min, max = c1, c0
		}
		ranges = append(ranges, EdgeRange{Min: min, Max: max, HalfEdge: he, Reversed: reversed})
	}
	return ranges
}

// snapContinuation handles the tail of a degenerate snap: if r still
// extends past sliceCoord, the same half-edge keeps representing it for
// later planes; if sliceCoord already reached r.Max, the range is fully
// consumed and dropped.
func snapContinuation(r EdgeRange, sliceCoord float64) []EdgeRange {
	if r.Max > sliceCoord+math3d.Epsilon {
		return []EdgeRange{{Min: sliceCoord, Max: r.Max, HalfEdge: r.HalfEdge, Reversed: r.Reversed, Triangulation: r.Triangulation}}
	}
	return nil
}

// splitOnPlane inserts a vertex on r at sliceCoord, snapping onto an
// existing endpoint instead of splitting when the edge already nearly
// terminates on the plane. It returns the new EdgeRanges needed to
// keep sweeping the surviving fragment and any triangulation edges
// the split introduced that still cross further slice planes.
func splitOnPlane(mesh *Mesh, axis math3d.Axis, sliceCoord float64, r EdgeRange) []EdgeRange {
	originV, destV := mesh.he.EdgeVertices(r.HalfEdge)
	originPos := mesh.he.VertexPosition(originV)
	destPos := mesh.he.VertexPosition(destV)
	oc, dc := axis.Component(originPos), axis.Component(destPos)

	if math3d.ApproxEqual(sliceCoord, oc) {
		mesh.he.MoveVertexTo(originV, axis.WithComponent(originPos, sliceCoord))
		return snapContinuation(r, sliceCoord)
	}
	if math3d.ApproxEqual(sliceCoord, dc) {
		mesh.he.MoveVertexTo(destV, axis.WithComponent(destPos, sliceCoord))
		return snapContinuation(r, sliceCoord)
	}

	t := (sliceCoord - oc) / (dc - oc)
	inter := axis.WithComponent(originPos.Lerp(destPos, t), sliceCoord)
	nv, hb := mesh.he.SplitEdge(r.HalfEdge, inter)

	main := hb
	if r.Reversed {
		main = r.HalfEdge
	}

	out := []EdgeRange{{Min: sliceCoord, Max: r.Max, HalfEdge: main, Reversed: r.Reversed, Triangulation: r.Triangulation}}
	// For a reversed interior edge the surviving fragment's twin also
	// leaves nv; it is not a triangulation edge and must not be flipped.
	fragTwin := mesh.he.HalfEdge(main).Twin
	for _, c := range mesh.he.OutgoingHalfEdges(nv) {
		if c == hb || c == fragTwin {
			continue
		}
		_, cd := mesh.he.EdgeVertices(c)
		coord := axis.Component(mesh.he.VertexPosition(cd))
		if coord > sliceCoord+math3d.Epsilon {
			out = append(out, EdgeRange{Min: sliceCoord, Max: coord, HalfEdge: c, Triangulation: true})
		}
	}
	return out
}
