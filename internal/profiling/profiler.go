// Package profiling records per-invocation stage timings as JSON lines,
// optionally with the process's resident memory after each stage.
package profiling

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Level determines how detailed the profiling is
type Level string

const (
	LevelOff      Level = "off"      // No profiling
	LevelMinimal  Level = "minimal"  // Stage timings only
	LevelDetailed Level = "detailed" // Stage timings plus resident memory
)

// ParseLevel maps a config value to a Level, defaulting to off
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelMinimal, LevelDetailed:
		return Level(s)
	default:
		return LevelOff
	}
}

// StageTiming represents a single timing measurement
type StageTiming struct {
	InvocationID string         `json:"invocation_id"`
	Stage        string         `json:"stage"`
	StartTime    time.Time      `json:"start_time"`
	DurationMs   float64        `json:"duration_ms"`
	RSSBytes     uint64         `json:"rss_bytes,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Profiler writes stage timings
type Profiler struct {
	level   Level
	mu      sync.Mutex
	closer  io.Closer
	encoder *json.Encoder
	proc    *process.Process
}

// New creates a profiler writing to w. A nil writer or LevelOff disables it.
func New(level Level, w io.Writer) *Profiler {
	p := &Profiler{level: level}
	if level == LevelOff || w == nil {
		p.level = LevelOff
		return p
	}
	p.encoder = json.NewEncoder(w)
	if level == LevelDetailed {
		// a failed lookup only drops the memory column
		p.proc, _ = process.NewProcess(int32(os.Getpid()))
	}
	return p
}

// Open creates a profiler appending to the file at path
func Open(level Level, path string) (*Profiler, error) {
	if level == LevelOff || path == "" {
		return New(LevelOff, nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiling log: %w", err)
	}
	p := New(level, f)
	p.closer = f
	return p, nil
}

// Close closes the profiler and its log file
func (p *Profiler) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closer != nil {
		err := p.closer.Close()
		p.closer = nil
		return err
	}
	return nil
}

// Start begins timing a stage and returns a function to call when done
func (p *Profiler) Start(invocationID, stage string) func() {
	return p.StartWithMetadata(invocationID, stage, nil)
}

// StartWithMetadata begins timing a stage with additional metadata
func (p *Profiler) StartWithMetadata(invocationID, stage string, metadata map[string]any) func() {
	if !p.IsEnabled() {
		return func() {}
	}

	start := time.Now()
	return func() {
		p.Record(invocationID, stage, time.Since(start), metadata)
	}
}

// Record records a timing measurement
func (p *Profiler) Record(invocationID, stage string, duration time.Duration, metadata map[string]any) {
	if !p.IsEnabled() {
		return
	}

	timing := StageTiming{
		InvocationID: invocationID,
		Stage:        stage,
		StartTime:    time.Now().Add(-duration),
		DurationMs:   float64(duration.Nanoseconds()) / 1e6,
		Metadata:     metadata,
	}
	if p.proc != nil {
		if mem, err := p.proc.MemoryInfo(); err == nil {
			timing.RSSBytes = mem.RSS
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.encoder.Encode(timing)
}

// IsEnabled returns true if profiling is enabled
func (p *Profiler) IsEnabled() bool {
	return p != nil && p.level != LevelOff
}

// GetLevel returns the current profiling level
func (p *Profiler) GetLevel() Level {
	return p.level
}
