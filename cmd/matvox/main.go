// matvox - mesh voxelizer and terminal 3D model viewer
//
// matvox slices a triangle mesh into a regular grid of cube-shaped
// voxels, each itself a closed manifold mesh, and can preview either
// the source model or the resulting grid directly in the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "matvox",
		Short:         "Voxelize and preview 3D meshes in your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newVoxelizeCommand())
	root.AddCommand(newPreviewCommand())

	if err := fang.Execute(context.Background(), root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
