package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	lipgloss "charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/taigrr/matvox/internal/pipeline"
	"github.com/taigrr/matvox/pkg/math3d"
	"github.com/taigrr/matvox/pkg/models"
	"github.com/taigrr/matvox/pkg/voxel"
)

var (
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

func newVoxelizeCommand() *cobra.Command {
	var (
		input    string
		output   string
		spacing  float64
		parallel int
		debugDir string
	)

	cmd := &cobra.Command{
		Use:   "voxelize",
		Short: "Carve a mesh into a regular grid of cube-shaped voxels",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			if spacing <= 0 {
				return fmt.Errorf("--spacing must be positive, got %g", spacing)
			}
			return runVoxelize(cmd.Context(), voxelizeOptions{
				input:    input,
				output:   output,
				spacing:  spacing,
				parallel: parallel,
				debugDir: debugDir,
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Path to the source mesh (.obj or .glb/.gltf)")
	cmd.Flags().StringVar(&output, "output", "", "Path to write the voxelized mesh (.obj)")
	cmd.Flags().Float64Var(&spacing, "spacing", 1.0, "Voxel cube side length")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Max concurrent X-slabs (0 = unbounded)")
	cmd.Flags().StringVar(&debugDir, "debug-dir", "", "If set, dump per-stage debug OBJs into this directory")
	return cmd
}

type voxelizeOptions struct {
	input    string
	output   string
	spacing  float64
	parallel int
	debugDir string
}

func runVoxelize(ctx context.Context, opts voxelizeOptions) error {
	src, err := loadModel(opts.input)
	if err != nil {
		return err
	}

	vmesh, err := voxel.FromModelsMesh(src)
	if err != nil {
		return fmt.Errorf("convert to voxel mesh: %w", err)
	}

	if opts.debugDir != "" {
		debugMesh := voxel.ToModelsMesh(vmesh, "source", src.Materials)
		if err := models.WriteDebugOBJ(debugMesh, filepath.Join(opts.debugDir, "00-source.obj")); err != nil {
			return fmt.Errorf("write debug source: %w", err)
		}
	}

	fmt.Println(statusStyle.Render(fmt.Sprintf("Voxelizing %s at spacing %g...", filepath.Base(opts.input), opts.spacing)))
	cells, err := pipeline.Voxelize(ctx, vmesh, pipeline.Config{Spacing: opts.spacing, Parallel: opts.parallel})
	if err != nil {
		return fmt.Errorf("voxelize: %w", err)
	}

	var numEmpty, numPure, numComplex int
	for _, c := range cells {
		switch c.Kind {
		case pipeline.CellEmpty:
			numEmpty++
		case pipeline.CellPure:
			numPure++
		case pipeline.CellComplex:
			numComplex++
		}
	}
	fmt.Println(statusStyle.Render(fmt.Sprintf("Grid: %d cells (%d empty, %d pure, %d complex)", len(cells), numEmpty, numPure, numComplex)))

	result := gridToPreviewMesh(cells, opts.spacing, src.Materials)

	if opts.debugDir != "" {
		if err := models.WriteDebugOBJ(result, filepath.Join(opts.debugDir, "99-voxelized.obj")); err != nil {
			return fmt.Errorf("write debug result: %w", err)
		}
	}

	if err := models.WriteDebugOBJ(result, opts.output); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Println(summaryStyle.Render(fmt.Sprintf("Wrote %s (%d vertices, %d triangles)", opts.output, result.VertexCount(), result.TriangleCount())))
	return nil
}

func loadModel(path string) (*models.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf":
		mesh, err := models.LoadGLB(path)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		return mesh, nil
	case ".obj":
		mesh, err := models.LoadOBJ(path)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		return mesh, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (use .obj or .glb)", path)
	}
}

// gridToPreviewMesh flattens a voxel grid into one models.Mesh: complex
// cells contribute their clipped mesh directly, pure cells contribute a
// synthesized unit cube, and empty cells contribute nothing.
func gridToPreviewMesh(cells []pipeline.Cell, spacing float64, srcMaterials []models.Material) *models.Mesh {
	out := models.NewMesh("voxelized")
	out.Materials = append(out.Materials, srcMaterials...)

	for _, c := range cells {
		switch c.Kind {
		case pipeline.CellComplex:
			appendMesh(out, voxel.ToModelsMesh(c.Mesh, "", srcMaterials))
		case pipeline.CellPure:
			cubeMin := math3d.V3(float64(c.X), float64(c.Y), float64(c.Z)).Scale(spacing)
			appendMesh(out, unitCubeMesh(cubeMin, spacing, materialForPure(c.Material, len(srcMaterials))))
		}
	}

	out.CalculateSmoothNormals()
	out.CalculateBounds()
	return out
}

// materialForPure inverts FromModelsMesh's id shift for a pure cell's
// fill material: id 1 is the unassigned sentinel, everything else maps
// back to a models.Materials index.
func materialForPure(materialID, numMaterials int) int {
	idx := materialID - 2
	if materialID == 1 || idx < 0 || idx >= numMaterials {
		return -1
	}
	return idx
}

func appendMesh(dst, src *models.Mesh) {
	base := len(dst.Vertices)
	dst.Vertices = append(dst.Vertices, src.Vertices...)
	for _, f := range src.Faces {
		dst.Faces = append(dst.Faces, models.Face{
			V:        [3]int{base + f.V[0], base + f.V[1], base + f.V[2]},
			Material: f.Material,
		})
	}
}

// unitCubeMesh builds a closed cube of side length spacing with corner
// min, CCW-wound as viewed from outside, tagged with a single material.
func unitCubeMesh(min math3d.Vec3, spacing float64, material int) *models.Mesh {
	m := models.NewMesh("")
	corner := func(dx, dy, dz float64) math3d.Vec3 {
		return min.Add(math3d.V3(dx, dy, dz).Scale(spacing))
	}
	verts := []math3d.Vec3{
		corner(0, 0, 0), corner(1, 0, 0), corner(1, 1, 0), corner(0, 1, 0),
		corner(0, 0, 1), corner(1, 0, 1), corner(1, 1, 1), corner(0, 1, 1),
	}
	for _, v := range verts {
		m.Vertices = append(m.Vertices, models.MeshVertex{Position: v})
	}
	quads := [][4]int{
		{0, 3, 2, 1}, // -Z
		{4, 5, 6, 7}, // +Z
		{0, 1, 5, 4}, // -Y
		{3, 7, 6, 2}, // +Y
		{0, 4, 7, 3}, // -X
		{1, 2, 6, 5}, // +X
	}
	for _, q := range quads {
		m.Faces = append(m.Faces,
			models.Face{V: [3]int{q[0], q[1], q[2]}, Material: material},
			models.Face{V: [3]int{q[0], q[2], q[3]}, Material: material},
		)
	}
	return m
}
