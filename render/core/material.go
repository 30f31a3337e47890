package core

// Color is a normalized RGBA color.
type Color struct {
	R, G, B, A float32
}

// Material describes how a renderable (particle billboards included) is
// shaded. Instances are shared: the material cache and every system
// referencing the material hold the same pointer.
type Material struct {
	Name string

	BaseColor Color
	Emissive  Color
	Roughness float32
	Metalness float32
}
