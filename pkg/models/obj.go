package models

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/matvox/pkg/math3d"
)

// LoadOBJ loads a Wavefront OBJ file into a Mesh. It supports a subset of
// the spec sufficient for triangulated meshes carrying per-face material
// names via `usemtl`, resolved against a sibling `mtllib` file when
// present:
//
//	v x y z          vertex position
//	vn x y z         vertex normal
//	vt u v           texture coordinate
//	f a/b/c ...      triangulated face (also accepts a//c and bare a)
//	usemtl name      material for following faces
//	mtllib file.mtl  material library to resolve usemtl names against
//
// Faces are triangle-fan split if a polygon with more than 3 vertices is
// encountered, matching how most exporters emit n-gons.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	mesh := NewMesh(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	var positions []math3d.Vec3
	var normals []math3d.Vec3
	var uvs []math3d.Vec2

	materialIndex := map[string]int{}
	currentMaterial := -1

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("parse vertex %q: %w", line, err)
			}
			positions = append(positions, p)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("parse normal %q: %w", line, err)
			}
			normals = append(normals, n)
		case "vt":
			u, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("parse uv %q: %w", line, err)
			}
			v := 0.0
			if len(fields) > 2 {
				v, err = strconv.ParseFloat(fields[2], 64)
				if err != nil {
					return nil, fmt.Errorf("parse uv %q: %w", line, err)
				}
			}
			uvs = append(uvs, math3d.V2(u, 1-v))
		case "mtllib":
			mats, err := loadMTL(filepath.Join(filepath.Dir(path), fields[1]))
			if err != nil {
				// Missing material libraries are non-fatal: faces fall
				// back to unassigned material.
				continue
			}
			for _, mat := range mats {
				materialIndex[mat.Name] = len(mesh.Materials)
				mesh.Materials = append(mesh.Materials, mat)
			}
		case "usemtl":
			if idx, ok := materialIndex[fields[1]]; ok {
				currentMaterial = idx
			} else {
				currentMaterial = -1
			}
		case "f":
			corners := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				vi, _, _, err := parseFaceIndex(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("parse face %q: %w", line, err)
				}
				corners = append(corners, len(mesh.Vertices))
				mesh.Vertices = append(mesh.Vertices, vertexFromTokens(tok, positions, uvs, normals, vi))
			}
			for i := 1; i+1 < len(corners); i++ {
				mesh.Faces = append(mesh.Faces, Face{
					V:        [3]int{corners[0], corners[i], corners[i+1]},
					Material: currentMaterial,
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan obj: %w", err)
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}
	if !hasNormals {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()

	if len(mesh.Vertices) == 0 || len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("obj %q: no geometry found", path)
	}
	return mesh, nil
}

func parseVec3(fields []string) (math3d.Vec3, error) {
	if len(fields) < 3 {
		return math3d.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return math3d.Vec3{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return math3d.Vec3{}, err
	}
	z, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return math3d.Vec3{}, err
	}
	return math3d.V3(x, y, z), nil
}

// parseFaceIndex parses a single OBJ face corner token of the form
// "v", "v/t", "v//n", or "v/t/n" (1-based, negative indices relative to
// the current count are also accepted).
func parseFaceIndex(tok string, numV, numT, numN int) (v, t, n int, err error) {
	parts := strings.Split(tok, "/")
	v, err = resolveIndex(parts[0], numV)
	if err != nil {
		return 0, 0, 0, err
	}
	t, n = -1, -1
	if len(parts) > 1 && parts[1] != "" {
		if t, err = resolveIndex(parts[1], numT); err != nil {
			return 0, 0, 0, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if n, err = resolveIndex(parts[2], numN); err != nil {
			return 0, 0, 0, err
		}
	}
	return v, t, n, nil
}

func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return count + i, nil
	}
	return i - 1, nil
}

func vertexFromTokens(tok string, positions []math3d.Vec3, uvs []math3d.Vec2, normals []math3d.Vec3, vi int) MeshVertex {
	mv := MeshVertex{Position: positions[vi]}
	_, t, n, err := parseFaceIndex(tok, len(positions), len(uvs), len(normals))
	if err != nil {
		return mv
	}
	if t >= 0 && t < len(uvs) {
		mv.UV = uvs[t]
	}
	if n >= 0 && n < len(normals) {
		mv.Normal = normals[n]
	}
	return mv
}

// loadMTL parses a Wavefront MTL material library into Materials.
func loadMTL(path string) ([]Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mtl: %w", err)
	}
	defer f.Close()

	var mats []Material
	var current *Material

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "newmtl":
			mats = append(mats, Material{Name: fields[1], BaseColor: [4]float64{1, 1, 1, 1}, Roughness: 1})
			current = &mats[len(mats)-1]
		case "Kd":
			if current != nil && len(fields) >= 4 {
				r, _ := strconv.ParseFloat(fields[1], 64)
				g, _ := strconv.ParseFloat(fields[2], 64)
				b, _ := strconv.ParseFloat(fields[3], 64)
				current.BaseColor[0], current.BaseColor[1], current.BaseColor[2] = r, g, b
			}
		case "d":
			if current != nil && len(fields) >= 2 {
				a, _ := strconv.ParseFloat(fields[1], 64)
				current.BaseColor[3] = a
			}
		case "Pm":
			if current != nil && len(fields) >= 2 {
				current.Metallic, _ = strconv.ParseFloat(fields[1], 64)
			}
		case "Pr":
			if current != nil && len(fields) >= 2 {
				current.Roughness, _ = strconv.ParseFloat(fields[1], 64)
			}
		case "map_Kd":
			if current != nil {
				current.HasTexture = true
				current.TexturePath = fields[1]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan mtl: %w", err)
	}
	return mats, nil
}

// WriteDebugOBJ writes mesh to path as an OBJ file with a sibling MTL
// library, grouping faces by material with `usemtl`. This is the debug
// inspection hook used by intermediate pipeline stages; it is never
// called from pkg/voxel itself.
func WriteDebugOBJ(mesh *Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create obj: %w", err)
	}
	defer f.Close()

	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"
	if len(mesh.Materials) > 0 {
		if err := writeDebugMTL(mesh, mtlPath); err != nil {
			return err
		}
		fmt.Fprintf(f, "mtllib %s\n", filepath.Base(mtlPath))
	}

	w := bufio.NewWriter(f)
	defer w.Flush()

	for _, v := range mesh.Vertices {
		fmt.Fprintf(w, "v %g %g %g\n", v.Position.X, v.Position.Y, v.Position.Z)
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(w, "vn %g %g %g\n", v.Normal.X, v.Normal.Y, v.Normal.Z)
	}

	lastMaterial := -2
	for _, face := range mesh.Faces {
		if face.Material != lastMaterial {
			name := "none"
			if mat := mesh.GetMaterial(face.Material); mat != nil {
				name = mat.Name
			}
			fmt.Fprintf(w, "usemtl %s\n", name)
			lastMaterial = face.Material
		}
		fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n",
			face.V[0]+1, face.V[0]+1,
			face.V[1]+1, face.V[1]+1,
			face.V[2]+1, face.V[2]+1)
	}
	return nil
}

func writeDebugMTL(mesh *Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mtl: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, mat := range mesh.Materials {
		fmt.Fprintf(w, "newmtl %s\n", mat.Name)
		fmt.Fprintf(w, "Kd %g %g %g\n", mat.BaseColor[0], mat.BaseColor[1], mat.BaseColor[2])
		fmt.Fprintf(w, "d %g\n", mat.BaseColor[3])
		fmt.Fprintf(w, "Pm %g\n", mat.Metallic)
		fmt.Fprintf(w, "Pr %g\n", mat.Roughness)
	}
	return nil
}
