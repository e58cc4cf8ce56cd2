package voxel

import (
	"math"
	"sort"

	"github.com/taigrr/matvox/pkg/math3d"
)

// cubeFace names one of the six faces of the centered unit cube by its
// outward unit normal.
type cubeFace struct {
	normal math3d.Vec3
}

var cubeFaces = []cubeFace{
	{math3d.V3(1, 0, 0)}, {math3d.V3(-1, 0, 0)},
	{math3d.V3(0, 1, 0)}, {math3d.V3(0, -1, 0)},
	{math3d.V3(0, 0, 1)}, {math3d.V3(0, 0, -1)},
}

// tangentBasis returns an orthonormal (tangent, bitangent) pair for
// normal, matching the fixed rotation used throughout this package:
// tangent = (normal.z, normal.x, normal.y), bitangent = normal x tangent.
func tangentBasis(normal math3d.Vec3) (tangent, bitangent math3d.Vec3) {
	tangent = math3d.V3(normal.Z, normal.X, normal.Y)
	bitangent = normal.Cross(tangent)
	return
}

// worldToFace maps a 3D point on the face's plane to its 2D local
// coordinate, with the face centered at the origin of [-0.5,0.5]^2.
func worldToFace(p, normal, tangent, bitangent math3d.Vec3) math3d.Vec2 {
	centered := p.Sub(normal.Scale(0.5))
	return math3d.V2(centered.Dot(tangent), centered.Dot(bitangent))
}

// faceToWorld is the inverse of worldToFace.
func faceToWorld(p math3d.Vec2, normal, tangent, bitangent math3d.Vec3) math3d.Vec3 {
	return tangent.Scale(p.X).Add(bitangent.Scale(p.Y)).Add(normal.Scale(0.5))
}

// boundaryGraph3D returns the mesh's boundary as a graph of 3D
// positions: every boundary vertex is a node, every boundary half-edge
// (oriented origin->destination) is a directed edge. Nodes left
// without an incident edge are dropped.
func boundaryGraph3D(mesh *Mesh) (positions []math3d.Vec3, edges [][2]int) {
	he := mesh.he
	idx := make(map[int]int)
	degree := make(map[int]int)
	for _, h := range he.HalfEdges() {
		if !he.IsEdgeOnBoundary(h) {
			continue
		}
		a, b := he.EdgeVertices(h)
		degree[a]++
		degree[b]++
	}
	for _, v := range he.Vertices() {
		if degree[v] > 0 {
			idx[v] = len(positions)
			positions = append(positions, he.VertexPosition(v))
		}
	}
	for _, h := range he.HalfEdges() {
		if !he.IsEdgeOnBoundary(h) {
			continue
		}
		a, b := he.EdgeVertices(h)
		edges = append(edges, [2]int{idx[a], idx[b]})
	}
	return positions, edges
}

// faceBoundaryGraph filters the 3D boundary graph to the nodes lying
// on one cube face (position.Dot(normal) == 0.5) and maps them into
// that face's 2D local frame.
func faceBoundaryGraph(positions []math3d.Vec3, edges [][2]int, normal, tangent, bitangent math3d.Vec3) *graph2D {
	g := newGraph2D()
	remap := make(map[int]int)
	for i, p := range positions {
		if math3d.ApproxEqual(p.Dot(normal), 0.5) {
			remap[i] = g.addNode(worldToFace(p, normal, tangent, bitangent))
		}
	}
	for _, e := range edges {
		u, ok1 := remap[e[0]]
		v, ok2 := remap[e[1]]
		if ok1 && ok2 {
			g.addEdge(u, v)
		}
	}
	return g
}

// onSquareEdge reports whether the segment p0->p1 lies along one of
// the square's four sides (both endpoints share an axis value of
// exactly +-0.5).
func onSquareEdge(p0, p1 math3d.Vec2) bool {
	const half = 0.5
	xOnEdge := math.Abs(math.Abs(p0.X)-half) < math3d.Epsilon && math3d.ApproxEqual(p0.X, p1.X)
	yOnEdge := math.Abs(math.Abs(p0.Y)-half) < math3d.Epsilon && math3d.ApproxEqual(p0.Y, p1.Y)
	return xOnEdge || yOnEdge
}

// squareBoundarySortKey orders a point on the square's perimeter by
// its clockwise distance from the bottom-left corner, going up the left
// edge, across the top, down the right edge, and along the bottom.
func squareBoundarySortKey(p math3d.Vec2) float64 {
	switch {
	case math3d.ApproxEqual(p.X, -0.5):
		return 0.5 + p.Y
	case math3d.ApproxEqual(p.Y, 0.5):
		return 1.5 + p.X
	case math3d.ApproxEqual(p.X, 0.5):
		return 2.5 - p.Y
	default: // p.Y == -0.5
		return 3.5 - p.X
	}
}

func squareCorners() []math3d.Vec2 {
	return []math3d.Vec2{
		math3d.V2(-0.5, -0.5), math3d.V2(-0.5, 0.5),
		math3d.V2(0.5, 0.5), math3d.V2(0.5, -0.5),
	}
}

// collectSquareBoundaryPoints gathers the four square corners plus
// every live node lying on the square's boundary, sorted clockwise from
// (-0.5,-0.5) and deduplicated by position.
func collectSquareBoundaryPoints(g *graph2D) []math3d.Vec2 {
	points := squareCorners()
	for n, alive := range g.alive {
		if !alive {
			continue
		}
		p := g.pos[n]
		if math3d.ApproxEqual(math.Abs(p.X), 0.5) || math3d.ApproxEqual(math.Abs(p.Y), 0.5) {
			points = append(points, p)
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return squareBoundarySortKey(points[i]) < squareBoundarySortKey(points[j])
	})
	out := points[:0]
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1].ApproxEqual(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// addFullSquareBoundary draws the full square outline into g,
// clockwise (bottom-left, top-left, top-right, bottom-right).
func addFullSquareBoundary(g *graph2D) {
	corners := squareCorners()
	idx := make([]int, len(corners))
	for i, c := range corners {
		idx[i] = g.ensureNode(c)
	}
	for i := range idx {
		g.addEdge(idx[i], idx[(i+1)%len(idx)])
	}
}

// intersectCenterUnitSquareOnGraph runs the per-face boundary-graph
// analysis: it mutates g into the boundary of the square's
// interior region (possibly empty, possibly the full square) and
// reports whether the graph alone carried enough information to
// decide. false means the caller must fall back to the context
// (signed-volume) decision.
func intersectCenterUnitSquareOnGraph(g *graph2D) bool {
	merged := combineEqualVertices(g)
	*g = *merged

	removeSlits(g)

	ignoredCCW := false
	g.filterEdges(func(u, v int) bool {
		p0, p1 := g.pos[u], g.pos[v]
		if onSquareEdge(p0, p1) && p0.Cross(p1) > 0 {
			ignoredCCW = true
			return false
		}
		return true
	})

	g.removeIsolated()

	ignoredCW := false
	g.filterEdges(func(u, v int) bool {
		p0, p1 := g.pos[u], g.pos[v]
		if onSquareEdge(p0, p1) {
			ignoredCW = true
			return false
		}
		return true
	})

	if len(g.edges) == 0 && ignoredCCW && !ignoredCW {
		return true
	}

	points := collectSquareBoundaryPoints(g)

	startIdx := -1
	for i, p := range points {
		if n, ok := g.nodeAt(p); ok && g.outdegree(n) < g.indegree(n) {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		for i, p := range points {
			n, ok := g.nodeAt(p)
			if !ok || g.outdegree(n) != g.indegree(n) {
				continue
			}
			next := points[(i+1)%len(points)]
			diff := next.Sub(p)
			inDot, inOk := minDot(g.edgeVectors(n, true), diff)
			if !inOk {
				inDot = -2.0
			}
			outDot, outOk := minDot(g.edgeVectors(n, false), diff.Scale(-1))
			if !outOk {
				outDot = -1.0
			}
			if inDot < outDot {
				startIdx = i
				break
			}
		}
	}
	if startIdx == -1 && len(g.edges) == 0 && ignoredCW && !ignoredCCW {
		startIdx = 0
	}

	if startIdx != -1 {
		i := startIdx
		inside := true
		for {
			j := (i + 1) % len(points)
			oddDegree := false
			if n, ok := g.nodeAt(points[j]); ok {
				oddDegree = g.degree(n)%2 != 0
			}
			newInside := oddDegree != inside
			if inside {
				ni := g.ensureNode(points[i])
				nj := g.ensureNode(points[j])
				g.addEdge(ni, nj)
			}
			inside = newInside
			i = j
			if i == startIdx {
				break
			}
		}
		return true
	}

	if len(g.edges) == 0 {
		return false
	}

	// Outer-hole detection: the bottom-most (ties: right-most) vertex
	// is guaranteed convex and on the outer boundary of a hole.
	best := -1
	for n, alive := range g.alive {
		if !alive {
			continue
		}
		if best == -1 {
			best = n
			continue
		}
		if g.pos[n].Y < g.pos[best].Y || (math3d.ApproxEqual(g.pos[n].Y, g.pos[best].Y) && g.pos[n].X > g.pos[best].X) {
			best = n
		}
	}
	outDot, outOk := minDot(g.edgeVectors(best, false), math3d.V2(-1, 0))
	inDot, inOk := minDot(g.edgeVectors(best, true), math3d.V2(1, 0))
	// A missing side sorts below any present value, so a vertex with
	// only incoming edges still votes for the square.
	square := false
	switch {
	case !outOk:
		square = inOk
	case !inOk:
		square = false
	default:
		square = outDot < inDot
	}
	if square {
		addFullSquareBoundary(g)
	}
	return true
}

// intersectCenterUnitSquareWithContext decides an ambiguous face from
// a signed volume computed over the clipped mesh's faces (already
// centered so the cube occupies [-0.5,0.5]^3): each face contributes
// its normal-projected area weighted by its height above the plane one
// unit behind the cube's center along the face normal. The weight is
// strictly positive for any geometry inside the cube, so the sign of
// the sum follows the surface's net orientation toward or away from
// the face.
func intersectCenterUnitSquareWithContext(mesh *Mesh, normal math3d.Vec3, g *graph2D) {
	he := mesh.he
	volume := 0.0
	for _, f := range he.Faces() {
		p0, p1, p2 := he.FacePositions(f)
		center := he.FaceCenter(f)
		areaZ := p1.Sub(p0).Cross(p2.Sub(p0)).Dot(normal)
		volume += (center.Dot(normal) + 1.0) * areaZ
	}
	if volume < 0.0 {
		addFullSquareBoundary(g)
	}
}

// triangulateFace resolves g into 2D triangles covering the filled
// region of the square: it reverses winding (the boundary graph's
// "interior to the right" convention needs flipping to align with the
// enclosing 3D orientation), extracts closed loops, classifies them
// as an outer boundary or holes by signed area, and ear-clips each
// outer loop together with the holes assigned to it.
func triangulateFace(g *graph2D) [][3]math3d.Vec2 {
	g.reverse()
	loops := extractLoops(g)
	if len(loops) == 0 {
		return nil
	}

	var outers, holes []polygon2D
	for _, loop := range loops {
		if signedArea(loop) >= 0 {
			outers = append(outers, loop)
		} else {
			holes = append(holes, loop)
		}
	}
	if len(outers) == 0 {
		return nil
	}

	holesFor := make([][]polygon2D, len(outers))
	for _, h := range holes {
		best := 0
		for i := 1; i < len(outers); i++ {
			if pointInPolygon(h[0], outers[i]) {
				best = i
			}
		}
		holesFor[best] = append(holesFor[best], h)
	}

	var tris [][3]math3d.Vec2
	for i, outer := range outers {
		ring := bridgeHoles(outer, holesFor[i])
		tris = append(tris, earClip(ring)...)
	}
	return tris
}

type polygon2D = []math3d.Vec2

// extractLoops decomposes g's edges into disjoint directed cycles of
// positions, processed in index order for reproducibility.
func extractLoops(g *graph2D) []polygon2D {
	n := len(g.pos)
	outQ := make([][]int, n)
	for _, e := range g.edges {
		outQ[e[0]] = append(outQ[e[0]], e[1])
	}
	remaining := len(g.edges)
	var loops []polygon2D
	for remaining > 0 {
		start := -1
		for i := 0; i < n; i++ {
			if len(outQ[i]) > 0 {
				start = i
				break
			}
		}
		if start == -1 {
			break
		}
		var loop polygon2D
		cur := start
		for {
			q := outQ[cur]
			next := q[len(q)-1]
			outQ[cur] = q[:len(q)-1]
			remaining--
			loop = append(loop, g.pos[cur])
			cur = next
			if cur == start {
				break
			}
		}
		loops = append(loops, loop)
	}
	return loops
}

func signedArea(ring polygon2D) float64 {
	sum := 0.0
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i].Cross(ring[j])
	}
	return sum / 2
}

func pointInPolygon(p math3d.Vec2, ring polygon2D) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			x := pj.X + (p.Y-pj.Y)/(pi.Y-pj.Y)*(pi.X-pj.X)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// bridgeHoles splices each hole ring into the outer ring through its
// nearest outer vertex, producing a single simple ring joined by
// zero-width channels so ordinary ear-clipping can triangulate the
// whole polygon-with-holes.
func bridgeHoles(outer polygon2D, holes []polygon2D) polygon2D {
	ring := append(polygon2D{}, outer...)
	for _, hole := range holes {
		hi, oi := nearestBridge(ring, hole)
		var spliced polygon2D
		spliced = append(spliced, ring[:oi+1]...)
		spliced = append(spliced, rotate(hole, hi)...)
		spliced = append(spliced, hole[hi])
		spliced = append(spliced, ring[oi:]...)
		ring = spliced
	}
	return ring
}

func rotate(ring polygon2D, start int) polygon2D {
	out := make(polygon2D, 0, len(ring))
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)
	return out
}

func nearestBridge(outer, hole polygon2D) (holeIdx, outerIdx int) {
	best := math.Inf(1)
	for hi, hp := range hole {
		for oi, op := range outer {
			d := hp.Sub(op).LenSq()
			if d < best {
				best = d
				holeIdx, outerIdx = hi, oi
			}
		}
	}
	return
}

// earClip triangulates a simple (possibly non-convex) CCW polygon by
// repeated ear removal.
func earClip(ring polygon2D) [][3]math3d.Vec2 {
	idx := make([]int, len(ring))
	for i := range idx {
		idx[i] = i
	}
	var tris [][3]math3d.Vec2
	guard := 0
	for len(idx) > 2 && guard < len(ring)*len(ring)+8 {
		guard++
		n := len(idx)
		clipped := false
		for i := 0; i < n; i++ {
			a := ring[idx[(i-1+n)%n]]
			b := ring[idx[i]]
			c := ring[idx[(i+1)%n]]
			if triangleCross(a, b, c) <= 0 {
				continue // reflex or degenerate, not an ear
			}
			isEar := true
			for _, k := range idx {
				p := ring[k]
				if p == a || p == b || p == c {
					continue
				}
				if pointInTriangle(p, a, b, c) {
					isEar = false
					break
				}
			}
			if !isEar {
				continue
			}
			tris = append(tris, [3]math3d.Vec2{a, b, c})
			idx = append(append([]int{}, idx[:i]...), idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			break // degenerate ring (collinear/duplicate points); stop rather than loop forever
		}
	}
	return tris
}

func triangleCross(a, b, c math3d.Vec2) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func pointInTriangle(p, a, b, c math3d.Vec2) bool {
	d1 := triangleCross(a, b, p)
	d2 := triangleCross(b, c, p)
	d3 := triangleCross(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// DominantMaterial picks the material tag that should stand in for a
// mesh carrying more than one material: the one with the greatest
// total (unsigned) face area, ties broken toward the lower MaterialID.
// Cube-face fill triangles use this to pick a single tag when the
// interior they close isn't uniformly one material; callers assembling
// a voxel grid can use it the same way to label a "mostly one
// material" cell.
func DominantMaterial(mesh *Mesh) int {
	he := mesh.he
	byArea := make(map[int]float64)
	for _, f := range he.Faces() {
		p0, p1, p2 := he.FacePositions(f)
		area := p1.Sub(p0).Cross(p2.Sub(p0)).Len()
		byArea[he.FaceTag(f)] += area
	}
	best, bestArea := 1, -1.0
	for mat, area := range byArea {
		if area > bestArea || (area == bestArea && mat < best) {
			best, bestArea = mat, area
		}
	}
	return best
}

// IntersectUnitCube clips mesh against the unit cube whose lower
// corner is cubeMin, closing all six cube faces, and returns the
// resulting manifold mesh in world coordinates. The input mesh's
// boundary is assumed to lie entirely on the cube's surface.
func IntersectUnitCube(mesh *Mesh, cubeMin math3d.Vec3) *Mesh {
	centered := mesh.Translated(cubeMin.Negate().Sub(math3d.V3(0.5, 0.5, 0.5)))
	he := centered.he

	positions3D, edges3D := boundaryGraph3D(centered)

	var soup []math3d.Vec3
	var materials []int
	for _, f := range he.Faces() {
		p0, p1, p2 := he.FacePositions(f)
		soup = append(soup, p0, p1, p2)
		materials = append(materials, he.FaceTag(f))
	}

	fillMaterial := DominantMaterial(centered)

	for _, face := range cubeFaces {
		tangent, bitangent := tangentBasis(face.normal)
		g := faceBoundaryGraph(positions3D, edges3D, face.normal, tangent, bitangent)
		if !intersectCenterUnitSquareOnGraph(g) {
			intersectCenterUnitSquareWithContext(centered, face.normal, g)
		}
		for _, tri := range triangulateFace(g) {
			for _, p2 := range tri {
				soup = append(soup, faceToWorld(p2, face.normal, tangent, bitangent))
			}
			materials = append(materials, fillMaterial)
		}
	}

	result := ManifoldFromTriangleSoup(weldVertices(soup), materials)
	return result.Translated(cubeMin.Add(math3d.V3(0.5, 0.5, 0.5)))
}
