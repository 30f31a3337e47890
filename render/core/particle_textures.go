package core

// ParticleTextures holds one frame's worth of rendered particle attributes.
// Each texel represents a single particle. The set is rebuilt every
// simulate-and-upload cycle and must not be referenced across frames.
type ParticleTextures struct {
	PositionAndRotation *Texture // xyz position, w rotation (radians)
	Color               *Texture
	Size                *Texture
}
