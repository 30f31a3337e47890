package halcyon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
)

// FrameRecord is one frame's worth of simulation and lighting statistics,
// written as a CSV row.
type FrameRecord struct {
	Frame      int64   `csv:"frame"`
	Live       int     `csv:"live"`
	Spawned    int     `csv:"spawned"`
	Retired    int     `csv:"retired"`
	Dispatches int     `csv:"dispatches"`
	TilesX     uint32  `csv:"tiles_x"`
	TilesY     uint32  `csv:"tiles_y"`
	SimMillis  float64 `csv:"sim_ms"`
}

// Telemetry accumulates per-frame counters and streams finished frames to a
// CSV file. A nil receiver is valid everywhere and does nothing, so callers
// need no telemetry-enabled branches.
type Telemetry struct {
	file          *os.File
	headerWritten bool

	frame   int64
	current FrameRecord
}

// NewTelemetry opens frames.csv inside dir. Returns nil with no error when dir
// is empty (telemetry disabled).
func NewTelemetry(dir string) (*Telemetry, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	return &Telemetry{file: f}, nil
}

// CountSpawned adds to the current frame's spawn counter.
func (t *Telemetry) CountSpawned(n int) {
	if t == nil {
		return
	}
	t.current.Spawned += n
}

// CountRetired adds to the current frame's retirement counter.
func (t *Telemetry) CountRetired(n int) {
	if t == nil {
		return
	}
	t.current.Retired += n
}

// CountDispatch records one compute dispatch with its tile grid.
func (t *Telemetry) CountDispatch(tilesX, tilesY uint32) {
	if t == nil {
		return
	}
	t.current.Dispatches++
	t.current.TilesX = tilesX
	t.current.TilesY = tilesY
}

// BeginScope starts a timing scope. The returned func stops it and adds the
// elapsed time to the frame's simulation cost.
func (t *Telemetry) BeginScope() func() {
	if t == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		t.current.SimMillis += float64(time.Since(start)) / float64(time.Millisecond)
	}
}

// EndFrame finalizes the current frame, writes its CSV row and resets the
// counters.
func (t *Telemetry) EndFrame(live int) error {
	if t == nil {
		return nil
	}
	t.current.Frame = t.frame
	t.current.Live = live
	t.frame++

	records := []FrameRecord{t.current}
	t.current = FrameRecord{}

	if !t.headerWritten {
		if err := gocsv.Marshal(records, t.file); err != nil {
			return fmt.Errorf("writing frame record: %w", err)
		}
		t.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, t.file); err != nil {
		return fmt.Errorf("writing frame record: %w", err)
	}
	return nil
}

// Close flushes and closes the output file.
func (t *Telemetry) Close() error {
	if t == nil || t.file == nil {
		return nil
	}
	return t.file.Close()
}
