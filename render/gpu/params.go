package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ParamBlockDef describes the layout of one uniform parameter block. Fields
// are laid out in registration order with std140-style 16-byte alignment for
// vector and matrix types. Definitions are built once at startup and shared by
// every buffer created from them.
type ParamBlockDef struct {
	name string
	size uint32
}

// NewParamBlockDef creates an empty parameter block definition.
func NewParamBlockDef(name string) *ParamBlockDef {
	return &ParamBlockDef{name: name}
}

func (d *ParamBlockDef) Name() string { return d.name }

// Size returns the byte size of buffers created from this definition, padded
// to a 16-byte boundary.
func (d *ParamBlockDef) Size() uint32 { return align(d.size, 16) }

// CreateBuffer allocates a zeroed CPU-side buffer matching the definition.
func (d *ParamBlockDef) CreateBuffer() *ParamBlockBuffer {
	return &ParamBlockBuffer{def: d, data: make([]byte, d.Size())}
}

func (d *ParamBlockDef) reserve(size, alignment uint32) uint32 {
	off := align(d.size, alignment)
	d.size = off + size
	return off
}

func align(v, a uint32) uint32 {
	if r := v % a; r != 0 {
		return v + a - r
	}
	return v
}

// AddFloat registers a scalar float field.
func (d *ParamBlockDef) AddFloat() FloatParam { return FloatParam{d.reserve(4, 4)} }

// AddUint registers a scalar uint field.
func (d *ParamBlockDef) AddUint() UintParam { return UintParam{d.reserve(4, 4)} }

// AddVec2I registers a two-component signed integer field.
func (d *ParamBlockDef) AddVec2I() Vec2IParam { return Vec2IParam{d.reserve(8, 8)} }

// AddVec4I registers a four-component signed integer field.
func (d *ParamBlockDef) AddVec4I() Vec4IParam { return Vec4IParam{d.reserve(16, 16)} }

// AddVec4 registers a four-component float field.
func (d *ParamBlockDef) AddVec4() Vec4Param { return Vec4Param{d.reserve(16, 16)} }

// AddMat4 registers a 4x4 float matrix field.
func (d *ParamBlockDef) AddMat4() Mat4Param { return Mat4Param{d.reserve(64, 16)} }

// ParamBlockBuffer is the CPU mirror of a GPU-resident uniform block. Setters
// write into the mirror and mark it dirty; FlushToGPU uploads the whole block
// when dirty. A single buffer is reused across frames, so state written by one
// execute call is overwritten, not merged, by the next.
type ParamBlockBuffer struct {
	def   *ParamBlockDef
	data  []byte
	dirty bool
}

func (b *ParamBlockBuffer) Def() *ParamBlockDef { return b.def }

// Data returns the raw CPU mirror.
func (b *ParamBlockBuffer) Data() []byte { return b.data }

// FlushToGPU uploads the block if any field changed since the last flush.
func (b *ParamBlockBuffer) FlushToGPU(api RenderAPI) {
	if !b.dirty {
		return
	}
	api.WriteParamBlock(b)
	b.dirty = false
}

func (b *ParamBlockBuffer) putU32(off uint32, v uint32) {
	if int(off)+4 > len(b.data) {
		panic(fmt.Sprintf("param block %q: write past end (offset %d, size %d)", b.def.name, off, len(b.data)))
	}
	binary.LittleEndian.PutUint32(b.data[off:], v)
	b.dirty = true
}

// FloatParam is a handle to a scalar float field.
type FloatParam struct{ offset uint32 }

func (p FloatParam) Set(b *ParamBlockBuffer, v float32) {
	b.putU32(p.offset, math.Float32bits(v))
}

// UintParam is a handle to a scalar uint field.
type UintParam struct{ offset uint32 }

func (p UintParam) Set(b *ParamBlockBuffer, v uint32) {
	b.putU32(p.offset, v)
}

// Vec2IParam is a handle to a two-component signed integer field.
type Vec2IParam struct{ offset uint32 }

func (p Vec2IParam) Set(b *ParamBlockBuffer, v [2]int32) {
	b.putU32(p.offset, uint32(v[0]))
	b.putU32(p.offset+4, uint32(v[1]))
}

// Vec4IParam is a handle to a four-component signed integer field.
type Vec4IParam struct{ offset uint32 }

func (p Vec4IParam) Set(b *ParamBlockBuffer, v [4]int32) {
	for i, c := range v {
		b.putU32(p.offset+uint32(i)*4, uint32(c))
	}
}

// Vec4Param is a handle to a four-component float field.
type Vec4Param struct{ offset uint32 }

func (p Vec4Param) Set(b *ParamBlockBuffer, v [4]float32) {
	for i, c := range v {
		b.putU32(p.offset+uint32(i)*4, math.Float32bits(c))
	}
}

// Mat4Param is a handle to a 4x4 matrix field, stored column-major.
type Mat4Param struct{ offset uint32 }

func (p Mat4Param) Set(b *ParamBlockBuffer, m mgl32.Mat4) {
	for i := 0; i < 16; i++ {
		b.putU32(p.offset+uint32(i)*4, math.Float32bits(m[i]))
	}
}
