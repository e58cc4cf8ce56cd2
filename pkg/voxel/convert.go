package voxel

import (
	"github.com/taigrr/matvox/pkg/math3d"
	"github.com/taigrr/matvox/pkg/models"
)

// unassignedMaterialID is the tag used for faces that carried no
// material in the source asset. It is a normal, renderable material
// slot (id 1), not the half-edge package's reserved "retired face" 0.
const unassignedMaterialID = 1

// FromModelsMesh adapts a loaded models.Mesh into the 1-based,
// 0-reserved material tagging this package's Mesh requires: an
// unassigned face (models.Face.Material == -1) becomes
// unassignedMaterialID, and every assigned material index i becomes
// i+2, past both the reserved 0 and unassignedMaterialID.
func FromModelsMesh(src *models.Mesh) (*Mesh, error) {
	positions := make([]math3d.Vec3, len(src.Vertices))
	for i, v := range src.Vertices {
		positions[i] = v.Position
	}
	faces := make([][3]int, len(src.Faces))
	materials := make([]int, len(src.Faces))
	for i, f := range src.Faces {
		faces[i] = f.V
		if f.Material < 0 {
			materials[i] = unassignedMaterialID
		} else {
			materials[i] = f.Material + 2
		}
	}
	return NewMesh(positions, faces, materials)
}

// ToModelsMesh flattens mesh back to a models.Mesh, carrying forward
// the source asset's material table (for naming and shading) and
// inverting FromModelsMesh's id shift. Materials introduced by cube-face
// fill triangles that happen to collide with unassignedMaterialID are
// left unassigned rather than mislabeled.
func ToModelsMesh(mesh *Mesh, name string, srcMaterials []models.Material) *models.Mesh {
	positions, faces, materialIDs := mesh.Triangles()

	out := models.NewMesh(name)
	out.Materials = append(out.Materials, srcMaterials...)
	out.Vertices = make([]models.MeshVertex, len(positions))
	for i, p := range positions {
		out.Vertices[i] = models.MeshVertex{Position: p}
	}
	out.Faces = make([]models.Face, len(faces))
	for i, f := range faces {
		matIdx := materialIDs[i] - 2
		if materialIDs[i] == unassignedMaterialID || matIdx < 0 || matIdx >= len(srcMaterials) {
			matIdx = -1
		}
		out.Faces[i] = models.Face{V: f, Material: matIdx}
	}
	out.CalculateSmoothNormals()
	out.CalculateBounds()
	return out
}
