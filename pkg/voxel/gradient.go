package voxel

import (
	"math"
	"sort"

	"github.com/taigrr/matvox/pkg/math3d"
)

// GradientInterval is one maximal run of overlapping face axis-extents
// together with the net in/out transition crossing it implies.
type GradientInterval struct {
	Min, Max float64
	Gradient int // -1 outside->inside, 0 no net change, +1 inside->outside
}

type faceRange struct {
	min, max float64
	projArea float64
}

// AxisGradients computes, for every maximal run of overlapping face
// axis-extents along axis, the net in/out gradient implied by the
// faces crossing it: -1 if travelling along +axis moves from outside
// to inside, +1 for the reverse, 0 for no net change. crossSectionArea
// is the area of a unit cell's cross-section perpendicular to axis
// (1.0 for an axis-aligned unit grid).
func AxisGradients(mesh *Mesh, axis math3d.Axis, crossSectionArea float64) []GradientInterval {
	he := mesh.he
	axisVec := axis.Unit()

	var ranges []faceRange
	for _, f := range he.Faces() {
		p0, p1, p2 := he.FacePositions(f)
		c0, c1, c2 := axis.Component(p0), axis.Component(p1), axis.Component(p2)
		ranges = append(ranges, faceRange{
			min:      math.Min(c0, math.Min(c1, c2)),
			max:      math.Max(c0, math.Max(c1, c2)),
			projArea: p1.Sub(p0).Cross(p2.Sub(p0)).Dot(axisVec) / 2,
		})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].min < ranges[j].min })

	var intervals []GradientInterval
	var projSum []float64
	for _, r := range ranges {
		if len(intervals) == 0 || r.min > intervals[len(intervals)-1].Max {
			intervals = append(intervals, GradientInterval{Min: r.min, Max: r.max})
			projSum = append(projSum, r.projArea)
			continue
		}
		last := len(intervals) - 1
		if r.max > intervals[last].Max {
			intervals[last].Max = r.max
		}
		projSum[last] += r.projArea
	}

	for i := range intervals {
		intervals[i].Gradient = int(math.Round(projSum[i] / crossSectionArea))
	}
	return intervals
}
