// Package pipeline assembles a voxel grid by walking pkg/voxel's
// per-axis slicing and per-cell intersection primitives over a whole
// mesh. Deciding which cells exist at all and what to do with them is
// the "external collaborator" the core kernel delegates to; this
// package is that collaborator.
package pipeline

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/matvox/pkg/math3d"
	"github.com/taigrr/matvox/pkg/voxel"
)

// CellKind classifies what a grid cell contains.
type CellKind int

const (
	// CellEmpty is a cell with no material at all.
	CellEmpty CellKind = iota
	// CellPure is a cell entirely filled with one material, no
	// cube-face intersection needed.
	CellPure
	// CellComplex is a cell whose boundary crosses it; its Mesh is
	// the result of intersecting the input against the unit cube.
	CellComplex
)

// Cell is one cubeMin..cubeMin+spacing grid cell.
type Cell struct {
	X, Y, Z int
	Kind    CellKind
	// Material is set for CellPure; ignored otherwise.
	Material int
	// Mesh is set for CellComplex; nil otherwise.
	Mesh *voxel.Mesh
}

// Config controls a Voxelize run.
type Config struct {
	Spacing float64
	// Parallel bounds how many X-slabs are processed concurrently.
	// 0 means unbounded (errgroup.SetLimit is not called).
	Parallel int
}

// Voxelize slices mesh into a regular grid of cubes of side Spacing
// and classifies every non-empty cell as pure or complex, running one
// cube-face intersection per complex cell. X-slabs are processed
// concurrently; each slab is independent once extracted, mirroring how
// the three axis sweeps are themselves independent of each other.
func Voxelize(ctx context.Context, mesh *voxel.Mesh, cfg Config) ([]Cell, error) {
	spacing := cfg.Spacing
	xSlabs := voxel.SliceAxis(mesh, math3d.AxisX, spacing)

	results := make([][]Cell, len(xSlabs))
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Parallel > 0 {
		g.SetLimit(cfg.Parallel)
	}
	for i, xs := range xSlabs {
		i, xs := i, xs
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ix := int(math.Round(xs.LowerPlane / spacing))
			results[i] = voxelizeColumn(ix, xs.Mesh, spacing)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var cells []Cell
	for _, r := range results {
		cells = append(cells, r...)
	}
	return cells, nil
}

func voxelizeColumn(ix int, xSlabMesh *voxel.Mesh, spacing float64) []Cell {
	var cells []Cell
	for _, ys := range voxel.SliceAxis(xSlabMesh, math3d.AxisY, spacing) {
		iy := int(math.Round(ys.LowerPlane / spacing))
		cells = append(cells, voxelizeRow(ix, iy, ys.Mesh, spacing)...)
	}
	return cells
}

func voxelizeRow(ix, iy int, columnMesh *voxel.Mesh, spacing float64) []Cell {
	voxel.AlignWithSlicePlanes(columnMesh, math3d.AxisZ, spacing)
	gradients := voxel.AxisGradients(columnMesh, math3d.AxisZ, spacing*spacing)
	fillMaterial := voxel.DominantMaterial(columnMesh)

	// Slab extraction skips face-free slabs, but a face-free cell wedged
	// between two occupied ones is exactly where pure voxels live, so
	// every index in the occupied range gets a cell.
	slabs := voxel.SliceAxis(columnMesh, math3d.AxisZ, spacing)
	if len(slabs) == 0 {
		return nil
	}
	byIndex := make(map[int]voxel.Slab, len(slabs))
	loZ, hiZ := math.MaxInt, math.MinInt
	for _, zs := range slabs {
		iz := int(math.Round(zs.LowerPlane / spacing))
		byIndex[iz] = zs
		if iz < loZ {
			loZ = iz
		}
		if iz > hiZ {
			hiZ = iz
		}
	}

	var cells []Cell
	for iz := loZ; iz <= hiZ; iz++ {
		cell := Cell{X: ix, Y: iy, Z: iz}
		lowerPlane := float64(iz) * spacing

		if zs, ok := byIndex[iz]; ok {
			cubeMin := math3d.V3(float64(ix), float64(iy), float64(iz)).Scale(spacing)
			scaled := zs.Mesh.Transformed(math3d.ScaleUniform(1 / spacing))
			clipped := voxel.IntersectUnitCube(scaled, cubeMin.Scale(1/spacing))
			cell.Kind = CellComplex
			cell.Mesh = clipped.Transformed(math3d.ScaleUniform(spacing))
		} else if insideDepth(gradients, lowerPlane) > 0 {
			cell.Kind = CellPure
			cell.Material = fillMaterial
		} else {
			cell.Kind = CellEmpty
		}
		cells = append(cells, cell)
	}
	return cells
}

// insideDepth accumulates the net in/out gradient of every interval
// lying entirely below z, the running state after crossing each of
// them in turn: -1 (entering) raises it, +1 (leaving) lowers it. A gap
// between intervals is inside the mesh exactly when this is positive.
func insideDepth(gradients []voxel.GradientInterval, z float64) int {
	depth := 0
	for _, g := range gradients {
		if g.Max <= z {
			depth -= g.Gradient
		}
	}
	return depth
}
