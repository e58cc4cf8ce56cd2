package voxel

import (
	"testing"

	"github.com/taigrr/matvox/pkg/math3d"
)

// loopGraph builds a directed cycle over points, in the given order,
// wrapping back from the last point to the first.
func loopGraph(points []math3d.Vec2) *graph2D {
	g := newGraph2D()
	idx := make([]int, len(points))
	for i, p := range points {
		idx[i] = g.addNode(p)
	}
	for i := range idx {
		g.addEdge(idx[i], idx[(i+1)%len(idx)])
	}
	return g
}

// buildGraph constructs a graph2D from explicit node positions and
// directed (source, target) index pairs into that slice.
func buildGraph(points []math3d.Vec2, edges [][2]int) *graph2D {
	g := newGraph2D()
	for _, p := range points {
		g.addNode(p)
	}
	for _, e := range edges {
		g.addEdge(e[0], e[1])
	}
	return g
}

type dirEdge struct{ x0, y0, x1, y1 float64 }

// edgeMultiset canonicalizes a graph's directed edges by endpoint
// positions, so graphs built with different node orderings compare
// equal. Duplicate edges are counted, not collapsed.
func edgeMultiset(g *graph2D) map[dirEdge]int {
	out := make(map[dirEdge]int)
	for _, e := range g.edges {
		p0, p1 := g.pos[e[0]], g.pos[e[1]]
		out[dirEdge{p0.X, p0.Y, p1.X, p1.Y}]++
	}
	return out
}

func assertGraphEdges(t *testing.T, got *graph2D, wantPoints []math3d.Vec2, wantEdges [][2]int) {
	t.Helper()
	want := edgeMultiset(buildGraph(wantPoints, wantEdges))
	have := edgeMultiset(got)
	for e, n := range want {
		if have[e] != n {
			t.Errorf("edge (%g,%g)->(%g,%g): got %d, want %d", e.x0, e.y0, e.x1, e.y1, have[e], n)
		}
	}
	for e, n := range have {
		if want[e] == 0 {
			t.Errorf("unexpected edge (%g,%g)->(%g,%g) x%d", e.x0, e.y0, e.x1, e.y1, n)
		}
	}
}

// TestIntersectEmptyGraphIsAmbiguous covers the "mesh fully inside (or
// fully outside) the cube" case: an empty boundary graph carries no
// orientation information at all, so the graph-only analysis must
// defer to the context (signed-volume) fallback rather than guess.
func TestIntersectEmptyGraphIsAmbiguous(t *testing.T) {
	g := newGraph2D()
	if ok := intersectCenterUnitSquareOnGraph(g); ok {
		t.Errorf("expected an empty graph to be ambiguous, got a decision with %d edges", len(g.edges))
	}
}

// TestIntersectSquareBoundaryWindingEmitsNothing: a boundary graph
// running entirely along the square's edge in one winding direction
// contributes nothing to the fill.
func TestIntersectSquareBoundaryWindingEmitsNothing(t *testing.T) {
	loop := []math3d.Vec2{
		math3d.V2(-0.5, -0.5), math3d.V2(0.5, -0.5),
		math3d.V2(0.5, 0.5), math3d.V2(-0.5, 0.5),
	}
	g := loopGraph(loop)
	ok := intersectCenterUnitSquareOnGraph(g)
	if !ok {
		t.Fatal("expected the graph alone to decide")
	}
	if len(g.edges) != 0 {
		t.Errorf("edges = %d, want 0 (square contributes nothing)", len(g.edges))
	}
}

// TestIntersectSquareBoundaryOppositeWindingEmitsFullSquare covers the
// other half of that case: the opposite winding direction around the
// same four boundary points fills the whole square.
func TestIntersectSquareBoundaryOppositeWindingEmitsFullSquare(t *testing.T) {
	g := loopGraph(squareCorners())
	ok := intersectCenterUnitSquareOnGraph(g)
	if !ok {
		t.Fatal("expected the graph alone to decide")
	}
	if len(g.edges) != 4 {
		t.Errorf("edges = %d, want 4 (full square boundary)", len(g.edges))
	}
}

// TestIntersectPartialSquareEdgeRunFillsSquare: the run along the top
// edge goes in the filling direction but covers only part of the
// square's perimeter; the rest of the perimeter gets stitched in.
func TestIntersectPartialSquareEdgeRunFillsSquare(t *testing.T) {
	points := []math3d.Vec2{
		math3d.V2(-0.5, 0.5), math3d.V2(0, 0.5), math3d.V2(0.5, 0.5),
	}
	g := buildGraph(points, [][2]int{{0, 1}, {1, 2}})
	if !intersectCenterUnitSquareOnGraph(g) {
		t.Fatal("expected the graph alone to decide")
	}
	assertGraphEdges(t, g,
		[]math3d.Vec2{
			math3d.V2(-0.5, 0.5), math3d.V2(0, 0.5), math3d.V2(0.5, 0.5),
			math3d.V2(0.5, -0.5), math3d.V2(-0.5, -0.5),
		},
		[][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 0}})
}

// TestIntersectPartialSquareEdgeRunOppositeEmitsNothing: the same run
// wound the other way leaves the square empty.
func TestIntersectPartialSquareEdgeRunOppositeEmitsNothing(t *testing.T) {
	points := []math3d.Vec2{
		math3d.V2(-0.5, 0.5), math3d.V2(0, 0.5), math3d.V2(0.5, 0.5),
	}
	g := buildGraph(points, [][2]int{{2, 1}, {1, 0}})
	if !intersectCenterUnitSquareOnGraph(g) {
		t.Fatal("expected the graph alone to decide")
	}
	if len(g.edges) != 0 {
		t.Errorf("edges = %d, want 0", len(g.edges))
	}
}

// TestIntersectChordAcrossBottom: a single chord parallel to the
// bottom edge keeps the strip between itself and the bottom edge.
func TestIntersectChordAcrossBottom(t *testing.T) {
	g := buildGraph(
		[]math3d.Vec2{math3d.V2(-0.5, -0.25), math3d.V2(0.5, -0.25)},
		[][2]int{{0, 1}})
	if !intersectCenterUnitSquareOnGraph(g) {
		t.Fatal("expected the graph alone to decide")
	}
	assertGraphEdges(t, g,
		[]math3d.Vec2{
			math3d.V2(-0.5, -0.5), math3d.V2(0.5, -0.5),
			math3d.V2(-0.5, -0.25), math3d.V2(0.5, -0.25),
		},
		[][2]int{{3, 1}, {1, 0}, {0, 2}, {2, 3}})
}

// TestIntersectMultipleChords: five chords crossing the square close
// into three regions, two of them through stitched-in corners.
func TestIntersectMultipleChords(t *testing.T) {
	points := []math3d.Vec2{
		math3d.V2(-0.5, -0.25), math3d.V2(-0.25, -0.5),
		math3d.V2(0.25, -0.5), math3d.V2(0.5, -0.25),
		math3d.V2(0.5, 0.25), math3d.V2(0.25, 0.5),
		math3d.V2(-0.25, 0.5), math3d.V2(-0.5, 0.25),
		math3d.V2(0, -0.5), math3d.V2(0, 0.5),
	}
	g := buildGraph(points, [][2]int{{0, 1}, {3, 2}, {5, 4}, {6, 7}, {8, 9}})
	if !intersectCenterUnitSquareOnGraph(g) {
		t.Fatal("expected the graph alone to decide")
	}
	assertGraphEdges(t, g,
		append(points, math3d.V2(-0.5, -0.5), math3d.V2(-0.5, 0.5)),
		[][2]int{
			{0, 1}, {1, 10}, {10, 0},
			{6, 7}, {7, 11}, {11, 6},
			{8, 9}, {9, 5}, {5, 4}, {4, 3}, {3, 2}, {2, 8},
		})
}

// TestIntersectChordThroughCorners: a diagonal chord whose endpoints
// are square corners closes through the third corner it separates off.
func TestIntersectChordThroughCorners(t *testing.T) {
	g := buildGraph(
		[]math3d.Vec2{math3d.V2(-0.5, -0.5), math3d.V2(0.5, 0.5)},
		[][2]int{{0, 1}})
	if !intersectCenterUnitSquareOnGraph(g) {
		t.Fatal("expected the graph alone to decide")
	}
	assertGraphEdges(t, g,
		[]math3d.Vec2{math3d.V2(-0.5, -0.5), math3d.V2(0.5, 0.5), math3d.V2(0.5, -0.5)},
		[][2]int{{0, 1}, {1, 2}, {2, 0}})
}

// TestIntersectDegreeThreeBoundaryVertex: three chords meeting in one
// boundary vertex; the closure has to respect the in/out imbalance at
// that vertex rather than treat it as a plain crossing.
func TestIntersectDegreeThreeBoundaryVertex(t *testing.T) {
	points := []math3d.Vec2{
		math3d.V2(-0.5, 0), math3d.V2(0.5, -0.5),
		math3d.V2(0.5, 0), math3d.V2(0.5, 0.5),
	}
	g := buildGraph(points, [][2]int{{0, 1}, {2, 0}, {0, 3}})
	if !intersectCenterUnitSquareOnGraph(g) {
		t.Fatal("expected the graph alone to decide")
	}
	assertGraphEdges(t, g,
		append(points, math3d.V2(-0.5, -0.5)),
		[][2]int{{0, 1}, {1, 4}, {4, 0}, {0, 3}, {3, 2}, {2, 0}})
}

// TestIntersectInnerDiamondAddsOuterBoundary: a diamond whose four
// vertices sit at the midpoint of each square side, wound so the
// square's interior is outside it, must have the perimeter stitched in
// around it rather than being left floating.
func TestIntersectInnerDiamondAddsOuterBoundary(t *testing.T) {
	diamond := []math3d.Vec2{
		math3d.V2(-0.5, 0), math3d.V2(0, -0.5), math3d.V2(0.5, 0), math3d.V2(0, 0.5),
	}
	g := loopGraph(diamond)
	ok := intersectCenterUnitSquareOnGraph(g)
	if !ok {
		t.Fatal("expected the graph alone to decide")
	}
	if len(g.edges) != 12 {
		t.Errorf("edges = %d, want 12 (4 diamond + 8 stitched boundary)", len(g.edges))
	}
}

// TestIntersectInnerDiamondOppositeWindingKeptAlone: the same diamond
// wound the other way is the whole filled region; no outer square.
func TestIntersectInnerDiamondOppositeWindingKeptAlone(t *testing.T) {
	points := []math3d.Vec2{
		math3d.V2(-0.5, 0), math3d.V2(0, -0.5), math3d.V2(0.5, 0), math3d.V2(0, 0.5),
	}
	g := buildGraph(points, [][2]int{{0, 3}, {3, 2}, {2, 1}, {1, 0}})
	if !intersectCenterUnitSquareOnGraph(g) {
		t.Fatal("expected the graph alone to decide")
	}
	assertGraphEdges(t, g, points, [][2]int{{0, 3}, {3, 2}, {2, 1}, {1, 0}})
}

// TestIntersectHoleKeptWhenWindingMatches: a loop strictly inside the
// square wound as a hole stays a bare hole boundary.
func TestIntersectHoleKeptWhenWindingMatches(t *testing.T) {
	points := []math3d.Vec2{
		math3d.V2(-0.25, -0.25), math3d.V2(-0.25, 0.25), math3d.V2(0.25, 0.25),
	}
	g := buildGraph(points, [][2]int{{0, 1}, {1, 2}, {2, 0}})
	if !intersectCenterUnitSquareOnGraph(g) {
		t.Fatal("expected the graph alone to decide")
	}
	assertGraphEdges(t, g, points, [][2]int{{0, 1}, {1, 2}, {2, 0}})
}

// TestIntersectHoleOppositeWindingGainsOuterSquare: the same loop
// wound the other way means the region around it is filled, so the
// full square boundary is added enclosing it.
func TestIntersectHoleOppositeWindingGainsOuterSquare(t *testing.T) {
	points := []math3d.Vec2{
		math3d.V2(-0.25, -0.25), math3d.V2(-0.25, 0.25), math3d.V2(0.25, 0.25),
	}
	g := buildGraph(points, [][2]int{{0, 2}, {2, 1}, {1, 0}})
	if !intersectCenterUnitSquareOnGraph(g) {
		t.Fatal("expected the graph alone to decide")
	}
	assertGraphEdges(t, g,
		append(points,
			math3d.V2(-0.5, -0.5), math3d.V2(0.5, -0.5),
			math3d.V2(0.5, 0.5), math3d.V2(-0.5, 0.5)),
		[][2]int{{0, 2}, {2, 1}, {1, 0}, {3, 6}, {6, 5}, {5, 4}, {4, 3}})
}

func TestCombineEqualVerticesMergesDuplicatesAndDropsSelfLoops(t *testing.T) {
	g := newGraph2D()
	a := g.addNode(math3d.V2(0, 0))
	b := g.addNode(math3d.V2(1, 0))
	c := g.addNode(math3d.V2(0, 0)) // duplicate position of a
	g.addEdge(a, b)
	g.addEdge(c, a) // becomes a self-loop once c merges into a

	merged := combineEqualVertices(g)
	if len(merged.pos) != 2 {
		t.Fatalf("nodes = %d, want 2", len(merged.pos))
	}
	if len(merged.edges) != 1 {
		t.Errorf("edges = %d, want 1 (self-loop dropped)", len(merged.edges))
	}
}

func TestRemoveSlitsDropsOppositePairs(t *testing.T) {
	g := newGraph2D()
	a := g.addNode(math3d.V2(0, 0))
	b := g.addNode(math3d.V2(1, 0))
	c := g.addNode(math3d.V2(2, 0))
	g.addEdge(a, b)
	g.addEdge(b, a) // slit with the edge above
	g.addEdge(b, c) // no opposite, survives

	removeSlits(g)
	if len(g.edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(g.edges))
	}
	if g.edges[0] != [2]int{b, c} {
		t.Errorf("surviving edge = %v, want (b,c)", g.edges[0])
	}
}

// contextTet builds a small tetrahedron below one cube face, in
// coordinates where the cube is centered at the origin. outward
// selects whether faces are wound with normals pointing out of the
// enclosed volume.
func contextTet(t *testing.T, outward bool) *Mesh {
	t.Helper()
	verts := []math3d.Vec3{
		math3d.V3(-0.25, -0.25, -0.25), math3d.V3(0.25, 0.25, -0.25),
		math3d.V3(0.25, -0.25, 0.25), math3d.V3(-0.25, 0.25, 0.25),
	}
	faces := [][3]int{{0, 1, 2}, {2, 3, 0}, {1, 0, 3}, {3, 2, 1}}
	if !outward {
		faces = [][3]int{{0, 2, 1}, {2, 0, 3}, {1, 3, 0}, {3, 1, 2}}
	}
	mesh, err := NewMesh(verts, faces, ones(4))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	return mesh
}

// TestContextFallbackLeavesOutsideFaceEmpty: when the boundary graph
// on a face is empty and the local signed volume says the face lies
// outside the solid, the fallback adds nothing.
func TestContextFallbackLeavesOutsideFaceEmpty(t *testing.T) {
	g := newGraph2D()
	intersectCenterUnitSquareWithContext(contextTet(t, true), math3d.V3(0, 0, 1), g)
	if len(g.edges) != 0 {
		t.Errorf("edges = %d, want 0", len(g.edges))
	}
}

// TestContextFallbackFillsInsideFace: the same tetrahedron with
// reversed winding makes the signed volume negative, so the face gets
// the full square boundary.
func TestContextFallbackFillsInsideFace(t *testing.T) {
	g := newGraph2D()
	intersectCenterUnitSquareWithContext(contextTet(t, false), math3d.V3(0, 0, 1), g)
	if len(g.edges) != 4 {
		t.Errorf("edges = %d, want 4 (full square boundary)", len(g.edges))
	}
}

// openSheet builds a single quad spanning the cube's cross-section at
// height z (cube centered at the origin), wound so its normal points
// +n when up is true and -n otherwise. Its signed projected area does
// not cancel, unlike a closed mesh's, so it exercises the volume
// weighting itself rather than only the orientation sign.
func openSheet(t *testing.T, z float64, up bool) *Mesh {
	t.Helper()
	verts := []math3d.Vec3{
		math3d.V3(-0.4, -0.4, z), math3d.V3(0.4, -0.4, z),
		math3d.V3(0.4, 0.4, z), math3d.V3(-0.4, 0.4, z),
	}
	faces := [][3]int{{0, 1, 2}, {0, 2, 3}}
	if !up {
		faces = [][3]int{{0, 2, 1}, {0, 3, 2}}
	}
	mesh, err := NewMesh(verts, faces, ones(2))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	return mesh
}

// TestContextFallbackOpenSheetBelowFace: an open sheet facing the +z
// face means the solid lies below the sheet, so the face is outside
// and gets nothing.
func TestContextFallbackOpenSheetBelowFace(t *testing.T) {
	g := newGraph2D()
	intersectCenterUnitSquareWithContext(openSheet(t, 0, true), math3d.V3(0, 0, 1), g)
	if len(g.edges) != 0 {
		t.Errorf("edges = %d, want 0", len(g.edges))
	}
}

// TestContextFallbackOpenSheetAboveFace: the same sheet facing away
// from the +z face means the solid lies above it; the face is interior
// and gets the full square.
func TestContextFallbackOpenSheetAboveFace(t *testing.T) {
	g := newGraph2D()
	intersectCenterUnitSquareWithContext(openSheet(t, 0, false), math3d.V3(0, 0, 1), g)
	if len(g.edges) != 4 {
		t.Errorf("edges = %d, want 4 (full square boundary)", len(g.edges))
	}
}

// TestIntersectUnitCubeDiagonalPlaneMakesPrism clips a diagonal quad
// through the unit cube at the origin: the closed result is a right
// triangular prism.
func TestIntersectUnitCubeDiagonalPlaneMakesPrism(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 1, 0), math3d.V3(1, 0, 0), math3d.V3(1, 0, 1), math3d.V3(0, 1, 1),
	}
	mesh, err := NewMesh(verts, [][3]int{{0, 1, 2}, {2, 3, 0}}, ones(2))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	prism := IntersectUnitCube(mesh, math3d.Zero3())
	he := prism.HalfEdge()

	wantVerts := []math3d.Vec3{
		math3d.V3(0, 1, 0), math3d.V3(1, 0, 0), math3d.V3(1, 0, 1),
		math3d.V3(0, 1, 1), math3d.V3(1, 1, 0), math3d.V3(1, 1, 1),
	}
	if got := he.NumVertices(); got != len(wantVerts) {
		t.Errorf("vertices = %d, want %d", got, len(wantVerts))
	}
	for _, want := range wantVerts {
		found := false
		for _, v := range he.Vertices() {
			if math3d.ApproxEqualVec3(he.VertexPosition(v), want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing prism vertex %v", want)
		}
	}
	if got := he.NumEdges(); got != 12 {
		t.Errorf("edges = %d, want 12", got)
	}
	if got := he.NumFaces(); got != 8 {
		t.Errorf("faces = %d, want 8", got)
	}
}

func TestDominantMaterialPicksLargestArea(t *testing.T) {
	verts := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(2, 0, 0), math3d.V3(0, 2, 0), // area 2, material 3
		math3d.V3(5, 0, 0), math3d.V3(6, 0, 0), math3d.V3(5, 1, 0), // area 0.5, material 2
	}
	mesh, err := NewMesh(verts, [][3]int{{0, 1, 2}, {3, 4, 5}}, []int{3, 2})
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	if got := DominantMaterial(mesh); got != 3 {
		t.Errorf("DominantMaterial = %d, want 3", got)
	}
}
