package core

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAllocator struct {
	lastDesc BufferDesc
	lastData []byte
}

func (f *fakeAllocator) CreateBuffer(desc BufferDesc, data []byte) *Buffer {
	f.lastDesc = desc
	f.lastData = append([]byte(nil), data...)
	return &Buffer{Desc: desc}
}

func TestVisibleLightDataCounts(t *testing.T) {
	lights := []Light{
		{Type: LightSpot},
		{Type: LightRadial},
		{Type: LightDirectional, Shadowed: true},
		{Type: LightRadial, Shadowed: true},
		{Type: LightDirectional},
		{Type: LightRadial},
	}
	d := NewVisibleLightData(lights)

	assert.Equal(t, uint32(2), d.NumLights(LightDirectional))
	assert.Equal(t, uint32(3), d.NumLights(LightRadial))
	assert.Equal(t, uint32(1), d.NumLights(LightSpot))

	assert.Equal(t, uint32(1), d.NumUnshadowedLights(LightDirectional))
	assert.Equal(t, uint32(2), d.NumUnshadowedLights(LightRadial))
	assert.Equal(t, uint32(1), d.NumUnshadowedLights(LightSpot))

	assert.Len(t, d.Packed(), 6*lightDataSize)
}

func TestVisibleLightDataPackingOrder(t *testing.T) {
	lights := []Light{
		{Type: LightSpot, Intensity: 5},
		{Type: LightDirectional, Shadowed: true, Intensity: 2},
		{Type: LightDirectional, Intensity: 1},
		{Type: LightRadial, Intensity: 3},
	}
	d := NewVisibleLightData(lights)
	packed := d.Packed()
	require.Len(t, packed, 4*lightDataSize)

	typeAt := func(i int) uint32 {
		return binary.LittleEndian.Uint32(packed[i*lightDataSize+48:])
	}
	intensityAt := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(packed[i*lightDataSize+44:]))
	}

	// Directional first, unshadowed before shadowed, then radial, then spot.
	assert.Equal(t, uint32(LightDirectional), typeAt(0))
	assert.Equal(t, float32(1), intensityAt(0))
	assert.Equal(t, uint32(LightDirectional), typeAt(1))
	assert.Equal(t, float32(2), intensityAt(1))
	assert.Equal(t, uint32(LightRadial), typeAt(2))
	assert.Equal(t, uint32(LightSpot), typeAt(3))
}

func TestLightPackingLayout(t *testing.T) {
	l := Light{
		Type:      LightSpot,
		Position:  mgl32.Vec3{1, 2, 3},
		Direction: mgl32.Vec3{0, -1, 0},
		Color:     Color{R: 0.5, G: 0.25, B: 1},
		Intensity: 800,
		Range:     15,
		SpotAngle: float32(math.Pi / 2),
	}
	buf := packLight(&l)
	require.Len(t, buf, lightDataSize)

	f32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, float32(1), f32(0))
	assert.Equal(t, float32(15), f32(12))
	assert.Equal(t, float32(-1), f32(20))
	// Spot cosine is of the half angle.
	assert.InDelta(t, math.Cos(math.Pi/4), f32(28), 1e-5)
	assert.Equal(t, float32(800), f32(44))
	assert.Equal(t, uint32(LightSpot), binary.LittleEndian.Uint32(buf[48:]))
}

func TestVisibleLightDataUploadEmpty(t *testing.T) {
	d := NewVisibleLightData(nil)
	alloc := &fakeAllocator{}
	d.Upload(alloc)

	// A dummy element keeps the binding valid with zero lights.
	require.NotNil(t, d.LightBuffer())
	assert.Equal(t, uint32(1), alloc.lastDesc.ElementCount)
	assert.Len(t, alloc.lastData, lightDataSize)
}

func TestVisibleReflProbePacking(t *testing.T) {
	probes := []ReflectionProbe{
		{Position: mgl32.Vec3{1, 0, 0}, Radius: 5, CubemapSlice: 2},
		{Position: mgl32.Vec3{0, 1, 0}, Extents: mgl32.Vec3{2, 3, 4}, Box: true, CubemapSlice: 7},
	}
	d := NewVisibleReflProbeData(probes)
	assert.Equal(t, uint32(2), d.NumProbes())

	packed := d.Packed()
	require.Len(t, packed, 2*probeDataSize)

	// Sphere probe: shape flag zero, radius in w.
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(packed[28:]))
	assert.Equal(t, float32(5),
		math.Float32frombits(binary.LittleEndian.Uint32(packed[12:])))

	second := packed[probeDataSize:]
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(second[28:]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(second[32:]))
}
