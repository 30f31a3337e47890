package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LightType enumerates the analytic light kinds the deferred pass resolves.
// The numeric order is also the packing order inside the light buffer.
type LightType int

const (
	LightDirectional LightType = iota
	LightRadial
	LightSpot
	lightTypeCount
)

// Light is a renderer-visible analytic light.
type Light struct {
	Type      LightType
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     Color
	Intensity float32
	Range     float32
	SpotAngle float32 // full cone angle, radians; spot lights only
	Shadowed  bool
}

// lightDataSize is the GPU footprint of one packed light: four vec4s
// (position+range, direction+spot cosine, color+intensity, type+padding).
const lightDataSize = 64

// BufferAllocator creates GPU buffers. Implemented by the render API; declared
// here so scene data can be uploaded without depending on the GPU package.
type BufferAllocator interface {
	CreateBuffer(desc BufferDesc, data []byte) *Buffer
}

// VisibleLightData holds the culled lights relevant for a single view, grouped
// and packed in type order: directional first, then radial, then spot. Within
// each type, unshadowed lights precede shadowed ones so the unshadowed counts
// address a contiguous prefix.
type VisibleLightData struct {
	counts           [lightTypeCount]uint32
	unshadowedCounts [lightTypeCount]uint32

	packed []byte
	buffer *Buffer
}

// NewVisibleLightData groups and packs the given lights.
func NewVisibleLightData(lights []Light) *VisibleLightData {
	d := &VisibleLightData{}

	ordered := make([]Light, 0, len(lights))
	for lt := LightDirectional; lt < lightTypeCount; lt++ {
		for _, l := range lights {
			if l.Type == lt && !l.Shadowed {
				ordered = append(ordered, l)
				d.counts[lt]++
				d.unshadowedCounts[lt]++
			}
		}
		for _, l := range lights {
			if l.Type == lt && l.Shadowed {
				ordered = append(ordered, l)
				d.counts[lt]++
			}
		}
	}

	d.packed = make([]byte, 0, len(ordered)*lightDataSize)
	for _, l := range ordered {
		d.packed = append(d.packed, packLight(&l)...)
	}
	return d
}

// NumLights returns the number of visible lights of the given type.
func (d *VisibleLightData) NumLights(t LightType) uint32 { return d.counts[t] }

// NumUnshadowedLights returns the number of visible lights of the given type
// that do not cast shadows.
func (d *VisibleLightData) NumUnshadowedLights(t LightType) uint32 {
	return d.unshadowedCounts[t]
}

// Upload creates the packed light buffer on the device. Safe to call with zero
// lights; a single dummy element is allocated so binding never fails.
func (d *VisibleLightData) Upload(alloc BufferAllocator) {
	data := d.packed
	count := uint32(len(data) / lightDataSize)
	if count == 0 {
		data = make([]byte, lightDataSize)
		count = 1
	}
	d.buffer = alloc.CreateBuffer(BufferDesc{
		Label:        "Lights",
		ElementCount: count,
		ElementSize:  lightDataSize,
	}, data)
}

// LightBuffer returns the uploaded light buffer, or nil before Upload.
func (d *VisibleLightData) LightBuffer() *Buffer { return d.buffer }

// Packed returns the raw packed light bytes.
func (d *VisibleLightData) Packed() []byte { return d.packed }

func packLight(l *Light) []byte {
	buf := make([]byte, lightDataSize)

	putF32 := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}

	// position + range
	putF32(0, l.Position.X())
	putF32(4, l.Position.Y())
	putF32(8, l.Position.Z())
	putF32(12, l.Range)

	// direction + cos(half spot angle)
	putF32(16, l.Direction.X())
	putF32(20, l.Direction.Y())
	putF32(24, l.Direction.Z())
	putF32(28, float32(math.Cos(float64(l.SpotAngle)*0.5)))

	// color + intensity
	putF32(32, l.Color.R)
	putF32(36, l.Color.G)
	putF32(40, l.Color.B)
	putF32(44, l.Intensity)

	// type + padding
	binary.LittleEndian.PutUint32(buf[48:], uint32(l.Type))
	return buf
}
