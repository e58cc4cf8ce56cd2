package halfedge

import (
	"fmt"

	"github.com/taigrr/matvox/pkg/math3d"
)

// SplitEdge inserts a new vertex at position p on the edge he, splitting
// the one or two triangles incident to that edge into two each. he is
// assumed oriented origin->destination; the returned half-edge is the
// "upper" fragment nv->destination, in the newly created face, matching
// the contouring sweep's expectation that the first returned half-edge
// is the surviving continuation of the original edge.
func (m *Mesh) SplitEdge(he int, p math3d.Vec3) (newVertex int, newHalfEdge int) {
	nv := len(m.vertices)
	m.vertices = append(m.vertices, Vertex{Position: p, HalfEdge: -1})

	twin := m.halfEdges[he].Twin

	hb := m.splitFaceAtEdge(he, nv)

	if twin != -1 {
		hbPrime := m.splitFaceAtEdge(twin, nv)
		m.halfEdges[he].Twin = hbPrime
		m.halfEdges[hbPrime].Twin = he
		m.halfEdges[hb].Twin = twin
		m.halfEdges[twin].Twin = hb
	}

	m.vertices[nv].HalfEdge = hb
	return nv, hb
}

// splitFaceAtEdge splits the triangle owning half-edge x (origin p0,
// destination p1, third vertex p2) at the already-created vertex nv
// lying on the p0-p1 edge. x is shortened in place to p0->nv and stays
// in its original face; a new face holds the (nv,p1,p2) half.
// Returns the new half-edge nv->p1.
func (m *Mesh) splitFaceAtEdge(x int, nv int) int {
	faceIdx := m.halfEdges[x].Face
	nextX := m.halfEdges[x].Next
	prevX := m.halfEdges[x].Prev
	mat := m.faces[faceIdx].MaterialID

	d1 := len(m.halfEdges)
	d2 := d1 + 1
	hb := d1 + 2
	m.halfEdges = append(m.halfEdges,
		HalfEdge{Origin: nv, Face: faceIdx, Next: prevX, Prev: x, Twin: d2},   // d1: nv->p2
		HalfEdge{Origin: -1, Face: -1, Next: hb, Prev: nextX, Twin: d1},       // d2: p2->nv (origin fixed below)
		HalfEdge{Origin: nv, Face: -1, Next: nextX, Prev: d2, Twin: -1},       // hb: nv->p1
	)
	m.halfEdges[d2].Origin = m.halfEdges[prevX].Origin // p2

	// Shorten x to p0->nv, keep it (and prevX) in the original face.
	m.halfEdges[x].Next = d1
	m.halfEdges[x].Twin = -1
	m.halfEdges[prevX].Next = x
	m.halfEdges[prevX].Prev = d1

	// New face holds hb, the reused nextX, and d2.
	f2 := len(m.faces)
	m.faces = append(m.faces, Face{HalfEdge: hb, MaterialID: mat})
	m.halfEdges[nextX].Face = f2
	m.halfEdges[nextX].Next = d2
	m.halfEdges[nextX].Prev = hb
	m.halfEdges[d2].Face = f2
	m.halfEdges[hb].Face = f2

	m.faces[faceIdx].HalfEdge = x

	return hb
}

// FlipEdge rotates the diagonal shared by he's two incident triangles by
// 90 degrees: if he (p0->p1) borders faces (p0,p1,p2) and (p1,p0,p3), the
// shared edge becomes p3-p2. he and its twin are reused in place so
// callers holding he's index keep a valid handle (now naming p3->p2).
// Returns an error if he is a boundary half-edge, or if flipping would
// create a duplicate edge (non-manifold result).
func (m *Mesh) FlipEdge(he int) error {
	twin := m.halfEdges[he].Twin
	if twin == -1 {
		return fmt.Errorf("halfedge: cannot flip boundary edge %d", he)
	}

	n1 := m.halfEdges[he].Next   // p1->p2
	n2 := m.halfEdges[he].Prev   // p2->p0
	m1 := m.halfEdges[twin].Next // p0->p3
	m2 := m.halfEdges[twin].Prev // p3->p1

	p0 := m.halfEdges[he].Origin
	p1 := m.halfEdges[twin].Origin
	p2 := m.halfEdges[n2].Origin
	p3 := m.halfEdges[m2].Origin

	if p2 == p3 {
		return fmt.Errorf("halfedge: flip of edge %d would produce a degenerate face", he)
	}
	if _, ok := m.ConnectingEdge(p2, p3); ok {
		return fmt.Errorf("halfedge: flip of edge %d would duplicate an existing edge", he)
	}
	if _, ok := m.ConnectingEdge(p3, p2); ok {
		return fmt.Errorf("halfedge: flip of edge %d would duplicate an existing edge", he)
	}

	faceF := m.halfEdges[he].Face
	faceG := m.halfEdges[twin].Face

	// Triangle A (reuse faceF): p3 -> p2 (he), p2 -> p0 (n2), p0 -> p3 (m1)
	m.halfEdges[he] = HalfEdge{Origin: p3, Face: faceF, Next: n2, Prev: m1, Twin: twin}
	m.halfEdges[n2].Face, m.halfEdges[n2].Next, m.halfEdges[n2].Prev = faceF, m1, he
	m.halfEdges[m1].Face, m.halfEdges[m1].Next, m.halfEdges[m1].Prev = faceF, he, n2

	// Triangle B (reuse faceG): p2 -> p3 (twin), p3 -> p1 (m2), p1 -> p2 (n1)
	m.halfEdges[twin] = HalfEdge{Origin: p2, Face: faceG, Next: m2, Prev: n1, Twin: he}
	m.halfEdges[m2].Face, m.halfEdges[m2].Next, m.halfEdges[m2].Prev = faceG, n1, twin
	m.halfEdges[n1].Face, m.halfEdges[n1].Next, m.halfEdges[n1].Prev = faceG, twin, m2

	m.faces[faceF].HalfEdge = he
	m.faces[faceG].HalfEdge = twin

	if m.vertices[p0].HalfEdge == he {
		m.vertices[p0].HalfEdge = m1
	}
	if m.vertices[p1].HalfEdge == twin {
		m.vertices[p1].HalfEdge = n1
	}

	return nil
}

// CollapseEdge merges he's two endpoints into one, deleting the one or
// two triangles incident to the edge and returning the surviving
// vertex (always he's origin).
func (m *Mesh) CollapseEdge(he int) int {
	v0, v1 := m.EdgeVertices(he)

	for i := range m.halfEdges {
		if m.halfEdges[i].Origin == v1 {
			m.halfEdges[i].Origin = v0
		}
	}

	m.collapseFaceAt(he)
	if twin := m.halfEdges[he].Twin; twin != -1 {
		m.collapseFaceAt(twin)
	}

	m.vertices[v1].HalfEdge = deletedVertex
	m.fixVertexHalfEdge(v0)
	return v0
}

// collapseFaceAt deletes the face owning he (origin already rewritten
// to the surviving vertex) and re-twins the two edges that bordered it.
func (m *Mesh) collapseFaceAt(he int) {
	f := m.halfEdges[he].Face
	a := m.halfEdges[he].Next
	b := m.halfEdges[he].Prev

	ta := m.halfEdges[a].Twin
	tb := m.halfEdges[b].Twin

	switch {
	case ta != -1 && tb != -1:
		m.halfEdges[ta].Twin = tb
		m.halfEdges[tb].Twin = ta
	case ta != -1:
		m.halfEdges[ta].Twin = -1
	case tb != -1:
		m.halfEdges[tb].Twin = -1
	}

	m.faces[f].MaterialID = 0

	for _, v := range []int{m.halfEdges[a].Origin, m.halfEdges[b].Origin} {
		m.fixVertexHalfEdge(v)
	}
}

// fixVertexHalfEdge repoints v's cached outgoing half-edge at a live
// one if the cached index no longer belongs to a live face.
func (m *Mesh) fixVertexHalfEdge(v int) {
	if v < 0 || m.vertices[v].HalfEdge == deletedVertex {
		return
	}
	cur := m.vertices[v].HalfEdge
	if cur >= 0 && cur < len(m.halfEdges) && m.halfEdges[cur].Origin == v && m.IsFaceLive(m.halfEdges[cur].Face) {
		return
	}
	for i, he := range m.halfEdges {
		if he.Origin == v && m.IsFaceLive(he.Face) {
			m.vertices[v].HalfEdge = i
			return
		}
	}
	m.vertices[v].HalfEdge = -1
}

// RemoveManifoldVertex deletes v and retriangulates the polygonal hole
// left by its incident faces with a fan from the vertex's first
// neighbor. For a boundary vertex whose star is a single triangle
// (the common case after dissolveBoundaryVertex's edge flips), this
// removes that sliver triangle with no replacement, merging the two
// boundary edges through v into one.
func (m *Mesh) RemoveManifoldVertex(v int) {
	outs := m.OutgoingHalfEdges(v)
	k := len(outs)
	if k == 0 {
		m.vertices[v].HalfEdge = deletedVertex
		return
	}

	faces := make([]int, k)
	rims := make([]int, k)
	ring := make([]int, k+1)
	for i, o := range outs {
		faces[i] = m.halfEdges[o].Face
		rims[i] = m.halfEdges[o].Next
		ring[i] = m.halfEdges[o].Origin // == v; placeholder, fixed below
	}
	// ring[i] should be the i-th rim point (origin of rims[i]); the
	// final wrap point is rims[k-1]'s destination.
	for i := 0; i < k; i++ {
		ring[i] = m.halfEdges[rims[i]].Origin
	}
	ring[k] = m.halfEdges[m.halfEdges[rims[k-1]].Next].Origin

	closed := ring[0] == ring[k]
	mat := m.faces[faces[0]].MaterialID

	for _, f := range faces {
		m.faces[f].MaterialID = 0
	}
	m.vertices[v].HalfEdge = deletedVertex

	// The fan below reuses faces[0..count-1] but never faces[k-1]; park
	// the old spokes (v->ring[i] and ring[i+1]->v) there so they stay dead.
	for _, o := range outs {
		m.halfEdges[m.halfEdges[o].Prev].Face = faces[k-1]
		m.halfEdges[o].Face = faces[k-1]
	}

	count := k - 1
	if closed {
		count = k - 2
	}

	// pendingDiag holds the diagonal ring[i]->p0 created while building
	// triangle i-1; triangle i twins it with the p0->ring[i] edge it
	// creates.
	var pendingDiag = -1

	for i := 1; i <= count; i++ {
		faceSlot := faces[i-1]
		p0, pNext := ring[0], ring[i+1]

		var aEdge int
		if i == 1 {
			aEdge = rims[0]
		} else {
			aEdge = len(m.halfEdges)
			m.halfEdges = append(m.halfEdges, HalfEdge{Origin: p0, Twin: pendingDiag})
			if pendingDiag != -1 {
				m.halfEdges[pendingDiag].Twin = aEdge
			}
		}

		bEdge := rims[i]

		var cEdge int
		switch {
		case closed && i == count:
			cEdge = rims[k-1]
		case !closed && i == count:
			cEdge = len(m.halfEdges)
			m.halfEdges = append(m.halfEdges, HalfEdge{Origin: pNext, Twin: -1})
		default:
			cEdge = len(m.halfEdges)
			m.halfEdges = append(m.halfEdges, HalfEdge{Origin: pNext, Twin: -1})
			pendingDiag = cEdge
		}

		m.halfEdges[aEdge].Face, m.halfEdges[aEdge].Next, m.halfEdges[aEdge].Prev = faceSlot, bEdge, cEdge
		m.halfEdges[bEdge].Face, m.halfEdges[bEdge].Next, m.halfEdges[bEdge].Prev = faceSlot, cEdge, aEdge
		m.halfEdges[cEdge].Face, m.halfEdges[cEdge].Next, m.halfEdges[cEdge].Prev = faceSlot, aEdge, bEdge

		m.faces[faceSlot] = Face{HalfEdge: aEdge, MaterialID: mat}
	}

	if count == 0 {
		// k==1: the sole rim edge survives outside the dead face,
		// inheriting boundary status if its twin is now orphaned.
		rim := rims[0]
		if t := m.halfEdges[rim].Twin; t != -1 {
			m.halfEdges[t].Twin = -1
		}
	}

	for _, p := range ring {
		m.fixVertexHalfEdge(p)
	}
}
