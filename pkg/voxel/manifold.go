package voxel

import (
	"math"
	"sort"

	"github.com/taigrr/matvox/pkg/math3d"
)

// unionFind is path-compression + union-by-rank over a flat parent
// array indexed by triangle-soup position.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent, rank: make([]int, n)}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

type soupEdgeEntry struct {
	index   int
	forward bool
}

// weldVertices snaps every position in a flat triangle soup to the
// first position already seen within math3d.Epsilon of it, so two
// corners meant to coincide (one produced by contouring/decimation,
// the other by an independently triangulated cube-face patch) compare
// exactly equal by the time ManifoldFromTriangleSoup hashes edges by
// position. Without this pass, harmless floating-point drift between
// the two sources would masquerade as a boundary gap.
func weldVertices(positions []math3d.Vec3) []math3d.Vec3 {
	const cell = math3d.Epsilon * 4 // bucket width, coarser than the match tolerance
	type key [3]int64
	keyOf := func(p math3d.Vec3) key {
		return key{
			int64(math.Floor(p.X / cell)),
			int64(math.Floor(p.Y / cell)),
			int64(math.Floor(p.Z / cell)),
		}
	}

	buckets := make(map[key][]math3d.Vec3)
	out := make([]math3d.Vec3, len(positions))
	for i, p := range positions {
		canonical := p
		found := false
		k := keyOf(p)
		for dx := -1; dx <= 1 && !found; dx++ {
			for dy := -1; dy <= 1 && !found; dy++ {
				for dz := -1; dz <= 1 && !found; dz++ {
					neighbor := key{k[0] + int64(dx), k[1] + int64(dy), k[2] + int64(dz)}
					for _, cand := range buckets[neighbor] {
						if math3d.ApproxEqualVec3(cand, p) {
							canonical = cand
							found = true
							break
						}
					}
				}
			}
		}
		out[i] = canonical
		buckets[k] = append(buckets[k], canonical)
	}
	return out
}

// ManifoldFromTriangleSoup converts a flat, CCW-oriented triangle soup
// into a manifold half-edge mesh by pairing half-edges that share a
// geometric edge: at each shared edge, incident half-edges are sorted
// angularly around the edge and paired (inverse, forward) adjacently
// in that rotation, unioning their endpoint indices. Positions are
// identified by exact coincidence (IntersectUnitCube runs weldVertices
// over the soup first, snapping the clipped mesh's interior and the 2D
// cube-face triangulation onto shared coordinates, so no tolerance is
// needed here).
func ManifoldFromTriangleSoup(positions []math3d.Vec3, materials []int) *Mesh {
	n := len(positions)
	uf := newUnionFind(n)

	edgeMap := make(map[[2]math3d.Vec3][]int)
	var keys [][2]math3d.Vec3
	for i, p := range positions {
		tri := i / 3 * 3
		next := tri + (i+1-tri)%3
		key := [2]math3d.Vec3{p, positions[next]}
		if _, ok := edgeMap[key]; !ok {
			keys = append(keys, key)
		}
		edgeMap[key] = append(edgeMap[key], i)
	}

	processed := make(map[[2]math3d.Vec3]bool, len(keys))
	for _, key := range keys {
		if processed[key] {
			continue
		}
		e0, e1 := key[0], key[1]
		processed[key] = true
		revKey := [2]math3d.Vec3{e1, e0}
		processed[revKey] = true

		fwd := edgeMap[key]
		inv := edgeMap[revKey]

		dir := e1.Sub(e0).Normalize()
		var perp math3d.Vec3
		if math.Abs(dir.Dot(math3d.V3(1, 0, 0))) > 0.9 {
			perp = dir.Cross(math3d.V3(0, 1, 0))
		} else {
			perp = dir.Cross(math3d.V3(1, 0, 0))
		}

		entries := make([]soupEdgeEntry, 0, len(fwd)+len(inv))
		for _, i := range fwd {
			entries = append(entries, soupEdgeEntry{i, true})
		}
		for _, i := range inv {
			entries = append(entries, soupEdgeEntry{i, false})
		}

		angle := func(i int) float64 {
			tri := i / 3 * 3
			outIdx := tri + (i+2-tri)%3
			vecOut := positions[outIdx].Sub(e0)
			proj := vecOut.Sub(vecOut.ProjectOn(dir))
			return math.Atan2(perp.Cross(proj).Dot(dir), perp.Dot(proj))
		}

		sort.SliceStable(entries, func(a, b int) bool {
			aa, ab := angle(entries[a].index), angle(entries[b].index)
			if aa != ab {
				return aa < ab
			}
			return entries[a].forward && !entries[b].forward
		})

		for {
			invPos, fwdPos := -1, -1
			for i := 0; i < len(entries) && (invPos == -1 || fwdPos == -1); i++ {
				if !entries[i].forward && invPos == -1 {
					invPos = i
				}
			}
			if invPos == -1 {
				break
			}
			for off := 1; off <= len(entries); off++ {
				i := (invPos + off) % len(entries)
				if entries[i].forward {
					fwdPos = i
					break
				}
			}
			if fwdPos == -1 {
				break
			}

			invI := entries[invPos].index
			fwdI := entries[fwdPos].index
			invJ := invI/3*3 + (invI+1)%3
			fwdJ := fwdI/3*3 + (fwdI+1)%3

			uf.union(invI, fwdJ)
			uf.union(invJ, fwdI)

			if invPos < fwdPos {
				entries = append(entries[:invPos], append(append([]soupEdgeEntry{}, entries[invPos+1:fwdPos]...), entries[fwdPos+1:]...)...)
			} else {
				entries = append(entries[:fwdPos], append(append([]soupEdgeEntry{}, entries[fwdPos+1:invPos]...), entries[invPos+1:]...)...)
			}
		}
	}

	repToIndex := make(map[int]int)
	indexOf := make([]int, n)
	var outPositions []math3d.Vec3
	for i := 0; i < n; i++ {
		rep := uf.find(i)
		idx, ok := repToIndex[rep]
		if !ok {
			idx = len(outPositions)
			repToIndex[rep] = idx
			outPositions = append(outPositions, positions[i])
		}
		indexOf[i] = idx
	}

	faces := make([][3]int, n/3)
	for t := 0; t < n/3; t++ {
		faces[t] = [3]int{indexOf[t*3], indexOf[t*3+1], indexOf[t*3+2]}
	}

	out, err := NewMesh(outPositions, faces, materials)
	if err != nil {
		panic("voxel: manifold reconstruction produced a non-manifold mesh: " + err.Error())
	}
	return out
}
