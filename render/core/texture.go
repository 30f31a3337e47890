package core

// PixelFormat enumerates the texture storage formats the renderer deals with.
// Only the subset used by the deferred pipeline is listed.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	FormatRGBA8
	FormatRGBA16F
	FormatRGBA32F
	FormatRG16F
	FormatR32F
	FormatRG11B10F
	FormatDepth32
	FormatBC1
	FormatBC3
	FormatBC7
)

// Compressed reports whether the format is block-compressed. Compute programs
// cannot store into compressed formats.
func (f PixelFormat) Compressed() bool {
	switch f {
	case FormatBC1, FormatBC3, FormatBC7:
		return true
	}
	return false
}

// TextureDesc describes a texture to be allocated by the render API.
type TextureDesc struct {
	Label       string
	Width       uint32
	Height      uint32
	ArraySlices uint32 // 1 for plain 2D textures
	SampleCount uint32 // 1 for non-MSAA
	MipLevels   uint32 // 0 means 1
	Format      PixelFormat
	LoadStore   bool // bound for arbitrary read/write from compute
}

// Texture is a CPU-side handle to a GPU texture. The pointer itself is the
// identity used by the render API to locate the native resource.
type Texture struct {
	Desc TextureDesc
}

func (t *Texture) Width() uint32       { return t.Desc.Width }
func (t *Texture) Height() uint32      { return t.Desc.Height }
func (t *Texture) ArraySlices() uint32 { return t.Desc.ArraySlices }
func (t *Texture) SampleCount() uint32 { return t.Desc.SampleCount }
func (t *Texture) MipLevels() uint32 {
	if t.Desc.MipLevels == 0 {
		return 1
	}
	return t.Desc.MipLevels
}
func (t *Texture) Format() PixelFormat { return t.Desc.Format }

// TextureSurface selects a subset of a texture's mip levels and array slices
// for binding.
type TextureSurface struct {
	MipLevel   uint32
	NumMips    uint32
	FirstSlice uint32
	NumSlices  uint32 // 0 means all remaining slices
}

// CompleteSurface covers every mip and slice of a texture.
var CompleteSurface = TextureSurface{}

// BufferDesc describes a structured GPU buffer.
type BufferDesc struct {
	Label        string
	ElementCount uint32
	ElementSize  uint32
}

// Buffer is a CPU-side handle to a structured GPU buffer.
type Buffer struct {
	Desc BufferDesc
}

func (b *Buffer) ElementCount() uint32 { return b.Desc.ElementCount }
func (b *Buffer) Size() uint64 {
	return uint64(b.Desc.ElementCount) * uint64(b.Desc.ElementSize)
}
