package voxel

import (
	"testing"

	"github.com/taigrr/matvox/pkg/math3d"
)

// tetrahedronSoup is a small closed soup exercising the angular sort
// and union-find of manifold reconstruction.
func tetrahedronSoup() ([]math3d.Vec3, []int) {
	soup := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 1), math3d.V3(0, 1, 1),
		math3d.V3(1, 1, 0), math3d.V3(0, 1, 1), math3d.V3(1, 0, 1),
		math3d.V3(0, 0, 0), math3d.V3(1, 1, 0), math3d.V3(1, 0, 1),
		math3d.V3(1, 1, 0), math3d.V3(0, 0, 0), math3d.V3(0, 1, 1),
	}
	return soup, []int{1, 1, 1, 1}
}

func BenchmarkManifoldFromTriangleSoup(b *testing.B) {
	soup, materials := tetrahedronSoup()

	for b.Loop() {
		_ = ManifoldFromTriangleSoup(soup, materials)
	}
}

func BenchmarkWeldVertices(b *testing.B) {
	soup, _ := tetrahedronSoup()

	for b.Loop() {
		_ = weldVertices(soup)
	}
}

func BenchmarkContour(b *testing.B) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(8, 0, 0), math3d.V3(0, 8, 0),
	}
	base, err := NewMesh(verts, [][3]int{{0, 1, 2}}, []int{1})
	if err != nil {
		b.Fatalf("NewMesh: %v", err)
	}

	for b.Loop() {
		mesh := base.Clone()
		Contour(mesh, math3d.AxisX, 1, -1, 9)
	}
}

func BenchmarkIntersectUnitCube(b *testing.B) {
	verts := []math3d.Vec3{
		math3d.V3(0, 1, 0), math3d.V3(1, 0, 0), math3d.V3(1, 0, 1), math3d.V3(0, 1, 1),
	}
	base, err := NewMesh(verts, [][3]int{{0, 1, 2}, {2, 3, 0}}, []int{1, 1})
	if err != nil {
		b.Fatalf("NewMesh: %v", err)
	}

	for b.Loop() {
		_ = IntersectUnitCube(base, math3d.Zero3())
	}
}
