package halfedge

import "github.com/taigrr/matvox/pkg/math3d"

// VertexPosition returns the position of vertex v.
func (m *Mesh) VertexPosition(v int) math3d.Vec3 {
	return m.vertices[v].Position
}

// MoveVertexTo relocates vertex v in place.
func (m *Mesh) MoveVertexTo(v int, p math3d.Vec3) {
	m.vertices[v].Position = p
}

// VertexNormal returns the area-weighted average of the normals of
// every face incident to v.
func (m *Mesh) VertexNormal(v int) math3d.Vec3 {
	sum := math3d.Vec3{}
	seen := make(map[int]bool)
	for _, he := range m.OutgoingHalfEdges(v) {
		f := m.halfEdges[he].Face
		if seen[f] {
			continue
		}
		seen[f] = true
		p0, p1, p2 := m.FacePositions(f)
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		sum = sum.Add(n)
	}
	return sum.Normalize()
}

// EdgeVertices returns the (origin, destination) vertex indices of he.
func (m *Mesh) EdgeVertices(he int) (int, int) {
	h := m.halfEdges[he]
	return h.Origin, m.halfEdges[h.Next].Origin
}

// EdgePositions returns the (origin, destination) positions of he.
func (m *Mesh) EdgePositions(he int) (math3d.Vec3, math3d.Vec3) {
	a, b := m.EdgeVertices(he)
	return m.vertices[a].Position, m.vertices[b].Position
}

// EdgeVector returns destination - origin for he.
func (m *Mesh) EdgeVector(he int) math3d.Vec3 {
	p0, p1 := m.EdgePositions(he)
	return p1.Sub(p0)
}

// EdgeSqrLength returns the squared length of he.
func (m *Mesh) EdgeSqrLength(he int) float64 {
	return m.EdgeVector(he).LenSq()
}

// FaceVertices returns the three vertex indices of face f, in
// half-edge order.
func (m *Mesh) FaceVertices(f int) [3]int {
	start := m.faces[f].HalfEdge
	he := start
	var out [3]int
	for i := 0; i < 3; i++ {
		out[i] = m.halfEdges[he].Origin
		he = m.halfEdges[he].Next
	}
	return out
}

// FacePositions returns the three vertex positions of face f.
func (m *Mesh) FacePositions(f int) (math3d.Vec3, math3d.Vec3, math3d.Vec3) {
	v := m.FaceVertices(f)
	return m.vertices[v[0]].Position, m.vertices[v[1]].Position, m.vertices[v[2]].Position
}

// FaceCenter returns the centroid of face f.
func (m *Mesh) FaceCenter(f int) math3d.Vec3 {
	p0, p1, p2 := m.FacePositions(f)
	return p0.Add(p1).Add(p2).Scale(1.0 / 3.0)
}

// FaceNormal returns the (unnormalized-input, normalized-output)
// geometric normal of face f under CCW winding.
func (m *Mesh) FaceNormal(f int) math3d.Vec3 {
	p0, p1, p2 := m.FacePositions(f)
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// FaceTag returns the MaterialID of face f.
func (m *Mesh) FaceTag(f int) int {
	return m.faces[f].MaterialID
}

// FaceHalfEdges returns the three half-edge indices of face f.
func (m *Mesh) FaceHalfEdges(f int) [3]int {
	start := m.faces[f].HalfEdge
	return [3]int{start, m.halfEdges[start].Next, m.halfEdges[start].Prev}
}

// ExtremeCoordinates returns the axis-aligned bounding box of the mesh.
func (m *Mesh) ExtremeCoordinates() (min, max math3d.Vec3) {
	if len(m.vertices) == 0 {
		return
	}
	min, max = m.vertices[0].Position, m.vertices[0].Position
	for _, v := range m.vertices[1:] {
		min = min.Min(v.Position)
		max = max.Max(v.Position)
	}
	return min, max
}

// Translate moves every vertex by offset, in place.
func (m *Mesh) Translate(offset math3d.Vec3) {
	for i := range m.vertices {
		m.vertices[i].Position = m.vertices[i].Position.Add(offset)
	}
}

// Translated returns a deep copy of the mesh translated by offset.
func (m *Mesh) Translated(offset math3d.Vec3) *Mesh {
	clone := m.Clone()
	clone.Translate(offset)
	return clone
}

// Transformed returns a deep copy of the mesh with mat applied to
// every vertex position.
func (m *Mesh) Transformed(mat math3d.Mat4) *Mesh {
	clone := m.Clone()
	for i := range clone.vertices {
		clone.vertices[i].Position = mat.MulVec3(clone.vertices[i].Position)
	}
	return clone
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		vertices:  make([]Vertex, len(m.vertices)),
		faces:     make([]Face, len(m.faces)),
		halfEdges: make([]HalfEdge, len(m.halfEdges)),
	}
	copy(clone.vertices, m.vertices)
	copy(clone.faces, m.faces)
	copy(clone.halfEdges, m.halfEdges)
	return clone
}

// Triangles flattens the mesh back into an indexed triangle list,
// suitable for handing to manifold reconstruction or an exporter.
func (m *Mesh) Triangles() (positions []math3d.Vec3, faces [][3]int, materials []int) {
	positions = make([]math3d.Vec3, len(m.vertices))
	for i, v := range m.vertices {
		positions[i] = v.Position
	}
	faces = make([][3]int, len(m.faces))
	materials = make([]int, len(m.faces))
	for i := range m.faces {
		faces[i] = m.FaceVertices(i)
		materials[i] = m.faces[i].MaterialID
	}
	return positions, faces, materials
}
