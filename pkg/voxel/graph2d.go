package voxel

import "github.com/taigrr/matvox/pkg/math3d"

// graph2D is a directed multigraph over 2D points: the boundary of a
// clipped mesh restricted to one cube face, expressed in that face's
// local frame. Duplicate and opposite-direction edges are meaningful
// (a zero-width fold in the surface), so this never routes through a
// library graph type that would silently dedup them.
type graph2D struct {
	pos   []math3d.Vec2
	alive []bool
	edges [][2]int // directed edge as (source node, target node)
}

func newGraph2D() *graph2D { return &graph2D{} }

// addNode appends a new node at p and returns its index.
func (g *graph2D) addNode(p math3d.Vec2) int {
	g.pos = append(g.pos, p)
	g.alive = append(g.alive, true)
	return len(g.pos) - 1
}

// addEdge records a directed edge u->v.
func (g *graph2D) addEdge(u, v int) {
	g.edges = append(g.edges, [2]int{u, v})
}

// nodeAt returns the (only) live node positioned at p, if any.
func (g *graph2D) nodeAt(p math3d.Vec2) (int, bool) {
	for n, alive := range g.alive {
		if alive && g.pos[n].ApproxEqual(p) {
			return n, true
		}
	}
	return -1, false
}

// ensureNode returns the live node at p, creating one if none exists.
func (g *graph2D) ensureNode(p math3d.Vec2) int {
	if n, ok := g.nodeAt(p); ok {
		return n
	}
	return g.addNode(p)
}

func (g *graph2D) outdegree(n int) int {
	c := 0
	for _, e := range g.edges {
		if e[0] == n {
			c++
		}
	}
	return c
}

func (g *graph2D) indegree(n int) int {
	c := 0
	for _, e := range g.edges {
		if e[1] == n {
			c++
		}
	}
	return c
}

func (g *graph2D) degree(n int) int { return g.outdegree(n) + g.indegree(n) }

// edgeVectors returns the direction vector (target-source, normalized)
// of every edge incident to n: outgoing (n is the source) when
// incoming is false, incoming (n is the target) when true. The
// direction is always the edge's own stored direction, never flipped
// to point away from n; the start-selection dot tests depend on that.
func (g *graph2D) edgeVectors(n int, incoming bool) []math3d.Vec2 {
	var out []math3d.Vec2
	for _, e := range g.edges {
		if incoming && e[1] == n {
			out = append(out, g.pos[e[1]].Sub(g.pos[e[0]]).Normalize())
		} else if !incoming && e[0] == n {
			out = append(out, g.pos[e[1]].Sub(g.pos[e[0]]).Normalize())
		}
	}
	return out
}

// filterEdges keeps only the edges for which keep returns true.
func (g *graph2D) filterEdges(keep func(u, v int) bool) {
	out := g.edges[:0]
	for _, e := range g.edges {
		if keep(e[0], e[1]) {
			out = append(out, e)
		}
	}
	g.edges = out
}

// removeIsolated marks as dead every live node with no incident edge.
func (g *graph2D) removeIsolated() {
	for n, alive := range g.alive {
		if alive && g.degree(n) == 0 {
			g.alive[n] = false
		}
	}
}

// reverse flips every edge's direction in place.
func (g *graph2D) reverse() {
	for i := range g.edges {
		g.edges[i][0], g.edges[i][1] = g.edges[i][1], g.edges[i][0]
	}
}

// minDot returns the minimum dot product of v with every vector in
// dirs, and whether dirs was non-empty.
func minDot(dirs []math3d.Vec2, v math3d.Vec2) (float64, bool) {
	if len(dirs) == 0 {
		return 0, false
	}
	best := dirs[0].Dot(v)
	for _, d := range dirs[1:] {
		if dot := d.Dot(v); dot < best {
			best = dot
		}
	}
	return best, true
}

// combineEqualVertices merges nodes at identical positions into one
// and drops the self-loops that merge produces.
func combineEqualVertices(g *graph2D) *graph2D {
	res := newGraph2D()
	posIndex := make(map[math3d.Vec2]int)
	remap := make([]int, len(g.pos))
	for n, alive := range g.alive {
		if !alive {
			remap[n] = -1
			continue
		}
		if idx, ok := posIndex[g.pos[n]]; ok {
			remap[n] = idx
		} else {
			idx := res.addNode(g.pos[n])
			posIndex[g.pos[n]] = idx
			remap[n] = idx
		}
	}
	for _, e := range g.edges {
		u, v := remap[e[0]], remap[e[1]]
		if u < 0 || v < 0 || u == v {
			continue
		}
		res.addEdge(u, v)
	}
	return res
}

// removeSlits drops every edge for which the opposite direction also
// exists in the graph: such a pair carries no orientation information
// usable for filling the square, per the snapshot taken before either
// side is removed (so both sides of a slit drop together).
func removeSlits(g *graph2D) {
	present := make(map[[2]int]bool, len(g.edges))
	for _, e := range g.edges {
		present[e] = true
	}
	g.filterEdges(func(u, v int) bool {
		return !present[[2]int{v, u}]
	})
}
