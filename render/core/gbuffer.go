package core

// GBufferTextures is the set of targets produced by the base pass and consumed
// by the deferred lighting materials.
type GBufferTextures struct {
	Albedo     *Texture
	Normals    *Texture
	RoughMetal *Texture
	Depth      *Texture
}
