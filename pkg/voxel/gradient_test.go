package voxel

import (
	"testing"

	"github.com/taigrr/matvox/pkg/math3d"
)

// unitCube returns a closed unit cube (corner at origin) as a Mesh,
// 12 triangles, all one material.
func unitCube(t *testing.T) *Mesh {
	t.Helper()
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0), math3d.V3(0, 1, 0),
		math3d.V3(0, 0, 1), math3d.V3(1, 0, 1), math3d.V3(1, 1, 1), math3d.V3(0, 1, 1),
	}
	quads := [][4]int{
		{0, 3, 2, 1}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {3, 7, 6, 2},
		{0, 4, 7, 3}, {1, 2, 6, 5},
	}
	var faces [][3]int
	for _, q := range quads {
		faces = append(faces, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
	}
	materials := ones(len(faces))
	mesh, err := NewMesh(verts, faces, materials)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	return mesh
}

func TestAxisGradientsUnitCube(t *testing.T) {
	mesh := unitCube(t)
	for _, axis := range []math3d.Axis{math3d.AxisX, math3d.AxisY, math3d.AxisZ} {
		intervals := AxisGradients(mesh, axis, 1.0)
		if len(intervals) != 1 {
			t.Fatalf("axis %v: got %d intervals, want 1", axis, len(intervals))
		}
		iv := intervals[0]
		if !math3d.ApproxEqual(iv.Min, 0) || !math3d.ApproxEqual(iv.Max, 1) {
			t.Errorf("axis %v: interval = [%g,%g], want [0,1]", axis, iv.Min, iv.Max)
		}
		if iv.Gradient != 0 {
			t.Errorf("axis %v: gradient = %d, want 0 (cube both enters and exits within the interval)", axis, iv.Gradient)
		}
	}
}

func TestAlignWithSlicePlanesSnapsNearbyVertex(t *testing.T) {
	mesh := unitCube(t)
	he := mesh.HalfEdge()
	// Nudge every vertex near x=1 slightly off the plane, within SnapEpsilon.
	for _, v := range he.Vertices() {
		p := he.VertexPosition(v)
		if math3d.ApproxEqual(p.X, 1) {
			he.MoveVertexTo(v, math3d.V3(1+math3d.SnapEpsilon/10, p.Y, p.Z))
		}
	}
	AlignWithSlicePlanes(mesh, math3d.AxisX, 1.0)
	for _, v := range he.Vertices() {
		p := he.VertexPosition(v)
		if p.X > 0.5 && !math3d.ApproxEqual(p.X, 1) {
			t.Errorf("vertex at x=%g was not snapped back onto the slice plane", p.X)
		}
	}
}
