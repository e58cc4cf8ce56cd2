package voxel

import (
	"testing"

	"github.com/taigrr/matvox/pkg/math3d"
)

// TestDissolveBoundaryVertexSimple: a flat two-triangle strip with a
// redundant vertex in the middle of its bottom boundary collapses to a
// single triangle.
func TestDissolveBoundaryVertexSimple(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(2, 0, 0), math3d.V3(1.5, 1, 0),
	}
	mesh, err := NewMesh(verts, [][3]int{{0, 1, 3}, {3, 1, 2}}, ones(2))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	dissolveBoundaryVertex(mesh, 1)

	he := mesh.HalfEdge()
	if got := he.NumVertices(); got != 3 {
		t.Errorf("vertices = %d, want 3", got)
	}
	if got := he.NumFaces(); got != 1 {
		t.Errorf("faces = %d, want 1", got)
	}
	if he.IsVertexLive(1) {
		t.Errorf("vertex 1 should have been removed")
	}
}

// TestDissolveBoundaryVertexMultipleInner: the doomed vertex has two
// interior edges, so two flips are needed before it can go.
func TestDissolveBoundaryVertexMultipleInner(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(2, 0, 0),
		math3d.V3(1.5, 1, 0), math3d.V3(1, 1, 0),
	}
	mesh, err := NewMesh(verts, [][3]int{{0, 1, 4}, {4, 1, 3}, {3, 1, 2}}, ones(3))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	dissolveBoundaryVertex(mesh, 1)

	he := mesh.HalfEdge()
	if got := he.NumVertices(); got != 4 {
		t.Errorf("vertices = %d, want 4", got)
	}
	if got := he.NumFaces(); got != 2 {
		t.Errorf("faces = %d, want 2", got)
	}
	if he.IsVertexLive(1) {
		t.Errorf("vertex 1 should have been removed")
	}
}

// TestDissolveBoundaryVertexConcave: the upper boundary of the fan is
// concave at vertex 4, so the flip order matters; the retriangulation
// must put an edge between vertices 3 and 5 rather than cut across the
// concavity.
func TestDissolveBoundaryVertexConcave(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(3, 0, 0), math3d.V3(6, 0, 0),
		math3d.V3(4, 1, 0), math3d.V3(3, 3, 0), math3d.V3(2, 1, 0),
	}
	mesh, err := NewMesh(verts, [][3]int{{0, 1, 5}, {5, 1, 4}, {4, 1, 3}, {3, 1, 2}}, ones(4))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	dissolveBoundaryVertex(mesh, 1)

	he := mesh.HalfEdge()
	if got := he.NumVertices(); got != 5 {
		t.Errorf("vertices = %d, want 5", got)
	}
	if got := he.NumFaces(); got != 3 {
		t.Errorf("faces = %d, want 3", got)
	}
	if he.IsVertexLive(1) {
		t.Errorf("vertex 1 should have been removed")
	}
	_, fwd := he.ConnectingEdge(3, 5)
	_, rev := he.ConnectingEdge(5, 3)
	if !fwd && !rev {
		t.Errorf("triangulation does not respect the concave corner: no edge between 3 and 5")
	}
}

// TestDecimateRemovesCollinearBoundaryVertex: the full eligibility
// check (coplanar, co-material, collinear boundary) plus dissolve,
// driven through Decimate itself.
func TestDecimateRemovesCollinearBoundaryVertex(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(2, 0, 0), math3d.V3(1.5, 1, 0),
	}
	mesh, err := NewMesh(verts, [][3]int{{0, 1, 3}, {3, 1, 2}}, ones(2))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	Decimate(mesh)

	if got := mesh.NumFaces(); got != 1 {
		t.Errorf("faces = %d, want 1", got)
	}
	if mesh.HalfEdge().IsVertexLive(1) {
		t.Errorf("collinear boundary vertex 1 should have been decimated")
	}
}

// TestDecimateKeepsDifferentMaterials: a boundary vertex whose faces
// disagree on material is not eligible, collinear or not.
func TestDecimateKeepsDifferentMaterials(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(2, 0, 0), math3d.V3(1.5, 1, 0),
	}
	mesh, err := NewMesh(verts, [][3]int{{0, 1, 3}, {3, 1, 2}}, []int{1, 2})
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	Decimate(mesh)

	if got := mesh.NumFaces(); got != 2 {
		t.Errorf("faces = %d, want 2 (mixed materials must not be merged)", got)
	}
	if !mesh.HalfEdge().IsVertexLive(1) {
		t.Errorf("vertex 1 should have been kept")
	}
}

// TestDecimateIsAFixedPoint: a second pass over an already-decimated
// mesh changes nothing.
func TestDecimateIsAFixedPoint(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(2, 0, 0),
		math3d.V3(1.5, 1, 0), math3d.V3(1, 1, 0),
	}
	mesh, err := NewMesh(verts, [][3]int{{0, 1, 4}, {4, 1, 3}, {3, 1, 2}}, ones(3))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	Decimate(mesh)
	v1, f1 := mesh.NumVertices(), mesh.NumFaces()
	Decimate(mesh)
	if v2, f2 := mesh.NumVertices(), mesh.NumFaces(); v2 != v1 || f2 != f1 {
		t.Errorf("second pass changed the mesh: %d/%d -> %d/%d vertices/faces", v1, f1, v2, f2)
	}
}
