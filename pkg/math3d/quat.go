package math3d

// QuatToMat4 converts a quaternion (x, y, z, w) into a rotation matrix.
func QuatToMat4(x, y, z, w float64) Mat4 {
	m := Identity()

	m.Set(0, 0, 1-2*(y*y+z*z))
	m.Set(0, 1, 2*(x*y-w*z))
	m.Set(0, 2, 2*(x*z+w*y))

	m.Set(1, 0, 2*(x*y+w*z))
	m.Set(1, 1, 1-2*(x*x+z*z))
	m.Set(1, 2, 2*(y*z-w*x))

	m.Set(2, 0, 2*(x*z-w*y))
	m.Set(2, 1, 2*(y*z+w*x))
	m.Set(2, 2, 1-2*(x*x+y*y))

	return m
}

// Mat4FromSlice builds a Mat4 from a 16-element column-major slice.
// Panics if the slice does not have exactly 16 elements.
func Mat4FromSlice(s []float64) Mat4 {
	if len(s) != 16 {
		panic("math3d: Mat4FromSlice requires exactly 16 elements")
	}
	var m Mat4
	copy(m[:], s)
	return m
}
