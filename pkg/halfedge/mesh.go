// Package halfedge provides an index-based half-edge mesh over a
// triangulated surface with a per-face MaterialID tag. It is the
// façade the voxelization core operates on: vertex/edge/face
// iteration, walkers around an edge, and the small set of local
// mutations (split, flip, collapse, manifold-vertex removal) that the
// core's contouring and decimation steps need.
package halfedge

import (
	"fmt"

	"github.com/taigrr/matvox/pkg/math3d"
)

// Vertex holds a position and one outgoing half-edge incident to it.
type Vertex struct {
	Position math3d.Vec3
	HalfEdge int // an outgoing half-edge from this vertex, -1 if isolated
}

// Face holds one half-edge of the triangle and its material tag.
// MaterialID is >=1 on every live face; 0 never appears here.
type Face struct {
	HalfEdge   int
	MaterialID int
}

// HalfEdge is one oriented side of an edge.
type HalfEdge struct {
	Origin int // vertex this half-edge starts at
	Face   int // face this half-edge borders
	Next   int // next half-edge around Face
	Prev   int // previous half-edge around Face
	Twin   int // opposite half-edge, or -1 if this is a boundary half-edge
}

// IsBoundary reports whether he has no twin.
func (he HalfEdge) IsBoundary() bool {
	return he.Twin == -1
}

// Mesh is a triangulated half-edge mesh. Every face has exactly three
// half-edges, stored contiguously: face i owns half-edges
// [3*i, 3*i+1, 3*i+2].
type Mesh struct {
	vertices  []Vertex
	faces     []Face
	halfEdges []HalfEdge
}

// ErrNonManifoldEdge is returned by New when a triangle edge is shared
// by more than two faces.
var ErrNonManifoldEdge = fmt.Errorf("halfedge: edge shared by more than two faces")

type edgeKey [2]int

func undirectedKey(a, b int) edgeKey {
	if a < b {
		return edgeKey{a, b}
	}
	return edgeKey{b, a}
}

// New builds a Mesh from an indexed triangle list: positions and one
// []int{a,b,c} (CCW, viewed from outside) per face, plus a MaterialID
// per face. Faces sharing an edge are paired into half-edge twins by
// the same two-pass undirected-edge map used by the reference
// half-edge construction this package is grounded on: the first
// occurrence of an edge records it pending, the second pairs it.
func New(positions []math3d.Vec3, faces [][3]int, materials []int) (*Mesh, error) {
	if len(faces) != len(materials) {
		return nil, fmt.Errorf("halfedge: %d faces but %d material tags", len(faces), len(materials))
	}

	m := &Mesh{
		vertices:  make([]Vertex, len(positions)),
		faces:     make([]Face, len(faces)),
		halfEdges: make([]HalfEdge, len(faces)*3),
	}
	for i, p := range positions {
		m.vertices[i] = Vertex{Position: p, HalfEdge: -1}
	}

	pending := make(map[edgeKey]int)
	seenTwice := make(map[edgeKey]bool)

	for i, tri := range faces {
		if materials[i] < 1 {
			return nil, fmt.Errorf("halfedge: face %d has invalid MaterialID %d", i, materials[i])
		}
		base := i * 3
		m.faces[i] = Face{HalfEdge: base, MaterialID: materials[i]}

		for j := 0; j < 3; j++ {
			k := base + j
			nextJ := (j + 1) % 3
			prevJ := (j + 2) % 3
			origin := tri[j]

			m.halfEdges[k] = HalfEdge{
				Origin: origin,
				Face:   i,
				Next:   base + nextJ,
				Prev:   base + prevJ,
				Twin:   -1,
			}
			m.vertices[origin].HalfEdge = k

			key := undirectedKey(tri[j], tri[nextJ])
			if seenTwice[key] {
				return nil, ErrNonManifoldEdge
			}
			if twin, ok := pending[key]; ok {
				m.halfEdges[k].Twin = twin
				m.halfEdges[twin].Twin = k
				delete(pending, key)
				seenTwice[key] = true
			} else {
				pending[key] = k
			}
		}
	}

	// Prefer a boundary half-edge as each vertex's stored half-edge so
	// one-ring walks that must stop at a boundary start from the edge
	// of the fan, not its middle.
	for i, he := range m.halfEdges {
		if he.IsBoundary() {
			m.vertices[he.Origin].HalfEdge = i
		}
	}

	return m, nil
}

// deletedVertex is a sentinel vertex-handle value marking a vertex
// removed by RemoveManifoldVertex or CollapseEdge; it is distinct from
// -1 (isolated-but-live) so the two cases are never confused.
const deletedVertex = -2

// IsFaceLive reports whether f has not been retired by a mutation.
// Retired faces are tagged MaterialID 0, the tag the data model
// reserves and guarantees never appears on a live face.
func (m *Mesh) IsFaceLive(f int) bool { return m.faces[f].MaterialID != 0 }

// IsVertexLive reports whether v has not been removed.
func (m *Mesh) IsVertexLive(v int) bool { return m.vertices[v].HalfEdge != deletedVertex }

// NumVertices returns the number of live vertices.
func (m *Mesh) NumVertices() int {
	n := 0
	for _, v := range m.vertices {
		if v.HalfEdge != deletedVertex {
			n++
		}
	}
	return n
}

// NumFaces returns the number of live faces.
func (m *Mesh) NumFaces() int {
	n := 0
	for _, f := range m.faces {
		if f.MaterialID != 0 {
			n++
		}
	}
	return n
}

// NumHalfEdges returns the number of half-edges belonging to live faces.
func (m *Mesh) NumHalfEdges() int {
	n := 0
	for _, he := range m.halfEdges {
		if m.faces[he.Face].MaterialID != 0 {
			n++
		}
	}
	return n
}

// NumEdges returns the number of distinct geometric edges among live
// half-edges (boundary half-edges count once, interior twin pairs
// count once).
func (m *Mesh) NumEdges() int {
	n := 0
	for i, he := range m.halfEdges {
		if !m.IsFaceLive(he.Face) {
			continue
		}
		if he.Twin == -1 || he.Twin > i {
			n++
		}
	}
	return n
}

// Vertices returns the indices of every live vertex.
func (m *Mesh) Vertices() []int {
	out := make([]int, 0, len(m.vertices))
	for i, v := range m.vertices {
		if v.HalfEdge != deletedVertex {
			out = append(out, i)
		}
	}
	return out
}

// Faces returns the indices of every live face.
func (m *Mesh) Faces() []int {
	out := make([]int, 0, len(m.faces))
	for i, f := range m.faces {
		if f.MaterialID != 0 {
			out = append(out, i)
		}
	}
	return out
}

// HalfEdges returns the indices of every half-edge belonging to a live face.
func (m *Mesh) HalfEdges() []int {
	out := make([]int, 0, len(m.halfEdges))
	for i, he := range m.halfEdges {
		if m.IsFaceLive(he.Face) {
			out = append(out, i)
		}
	}
	return out
}

// Edges returns one representative half-edge index per distinct live
// geometric edge (the lower-indexed of a twin pair, or the sole
// boundary half-edge).
func (m *Mesh) Edges() []int {
	out := make([]int, 0, m.NumEdges())
	for i, he := range m.halfEdges {
		if !m.IsFaceLive(he.Face) {
			continue
		}
		if he.Twin == -1 || he.Twin > i {
			out = append(out, i)
		}
	}
	return out
}

// Vertex returns vertex v.
func (m *Mesh) Vertex(v int) Vertex { return m.vertices[v] }

// Face returns face f.
func (m *Mesh) Face(f int) Face { return m.faces[f] }

// HalfEdge returns half-edge he.
func (m *Mesh) HalfEdge(he int) HalfEdge { return m.halfEdges[he] }
