package voxel

import (
	"testing"

	"github.com/taigrr/matvox/pkg/math3d"
)

// TestCollapseSmallEdgesRemovesDegenerateEdge: an edge far below the
// length threshold collapses, taking its incident sliver face with it.
func TestCollapseSmallEdgesRemovesDegenerateEdge(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1e-4, 0, 0), math3d.V3(1, 1, 0), math3d.V3(0, 1, 0),
	}
	mesh, err := NewMesh(verts, [][3]int{{0, 1, 2}, {0, 2, 3}}, ones(2))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	CollapseSmallEdges(mesh)

	he := mesh.HalfEdge()
	if got := he.NumVertices(); got != 3 {
		t.Errorf("vertices = %d, want 3", got)
	}
	if got := he.NumFaces(); got != 1 {
		t.Errorf("faces = %d, want 1", got)
	}
}

// TestCollapseSmallEdgesKeepsNormalEdges: nothing happens to a mesh
// whose shortest edge is well above the threshold.
func TestCollapseSmallEdgesKeepsNormalEdges(t *testing.T) {
	mesh := unitCube(t)
	before := mesh.NumVertices()

	CollapseSmallEdges(mesh)

	if after := mesh.NumVertices(); after != before {
		t.Errorf("vertices changed: %d -> %d", before, after)
	}
}

// TestAxisGradientsOpenColumn: the cap-only column a slab slice leaves
// behind (bottom facing out at z=0, top facing out at z=2, sides cut
// away) classifies as entering the solid at the bottom cap and leaving
// it at the top cap.
func TestAxisGradientsOpenColumn(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0), math3d.V3(0, 1, 0),
		math3d.V3(0, 0, 2), math3d.V3(1, 0, 2), math3d.V3(1, 1, 2), math3d.V3(0, 1, 2),
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom, normal -z
		{4, 5, 6}, {4, 6, 7}, // top, normal +z
	}
	mesh, err := NewMesh(verts, faces, ones(4))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	intervals := AxisGradients(mesh, math3d.AxisZ, 1.0)
	if len(intervals) != 2 {
		t.Fatalf("intervals = %d, want 2", len(intervals))
	}
	if intervals[0].Gradient != -1 {
		t.Errorf("bottom cap gradient = %d, want -1 (outside to inside)", intervals[0].Gradient)
	}
	if intervals[1].Gradient != 1 {
		t.Errorf("top cap gradient = %d, want 1 (inside to outside)", intervals[1].Gradient)
	}
	if !math3d.ApproxEqual(intervals[0].Min, 0) || !math3d.ApproxEqual(intervals[1].Min, 2) {
		t.Errorf("interval bounds = [%g,%g] and [%g,%g], want caps at 0 and 2",
			intervals[0].Min, intervals[0].Max, intervals[1].Min, intervals[1].Max)
	}
}
