package profiling

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// readTimings decodes all recorded timings from buf.
func readTimings(t *testing.T, data []byte) []StageTiming {
	t.Helper()

	var timings []StageTiming
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var st StageTiming
		if err := dec.Decode(&st); err != nil {
			t.Fatalf("decode timing: %v", err)
		}
		timings = append(timings, st)
	}
	return timings
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"":         LevelOff,
		"off":      LevelOff,
		"minimal":  LevelMinimal,
		"detailed": LevelDetailed,
		"bogus":    LevelOff,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsEnabled(t *testing.T) {
	if New(LevelOff, &bytes.Buffer{}).IsEnabled() {
		t.Error("expected disabled for LevelOff")
	}
	if New(LevelMinimal, nil).IsEnabled() {
		t.Error("expected disabled without writer")
	}
	if !New(LevelMinimal, &bytes.Buffer{}).IsEnabled() {
		t.Error("expected enabled for LevelMinimal")
	}
	var p *Profiler
	if p.IsEnabled() {
		t.Error("nil profiler must be disabled")
	}
}

func TestRecord_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	p := New(LevelMinimal, &buf)

	p.Record("inv-1", "fetch", 42*time.Millisecond, nil)

	timings := readTimings(t, buf.Bytes())
	if len(timings) != 1 {
		t.Fatalf("expected 1 timing, got %d", len(timings))
	}

	got := timings[0]
	if got.InvocationID != "inv-1" {
		t.Errorf("InvocationID = %q, want %q", got.InvocationID, "inv-1")
	}
	if got.Stage != "fetch" {
		t.Errorf("Stage = %q, want %q", got.Stage, "fetch")
	}
	if got.DurationMs < 40 || got.DurationMs > 50 {
		t.Errorf("DurationMs = %.2f, want ~42ms", got.DurationMs)
	}
	if got.RSSBytes != 0 {
		t.Errorf("minimal level should not sample memory, got %d", got.RSSBytes)
	}
}

func TestRecord_DetailedSamplesMemory(t *testing.T) {
	var buf bytes.Buffer
	p := New(LevelDetailed, &buf)

	p.Record("inv-2", "generate", time.Millisecond, map[string]any{"samples": 5})

	timings := readTimings(t, buf.Bytes())
	if len(timings) != 1 {
		t.Fatalf("expected 1 timing, got %d", len(timings))
	}
	if timings[0].RSSBytes == 0 {
		t.Error("expected resident memory to be recorded")
	}
	if timings[0].Metadata["samples"] != float64(5) {
		t.Errorf("Metadata[samples] = %v, want 5", timings[0].Metadata["samples"])
	}
}

func TestRecord_DisabledNoWrite(t *testing.T) {
	var buf bytes.Buffer
	p := New(LevelOff, &buf)
	p.Record("inv-x", "stage", time.Millisecond, nil)

	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %d bytes", buf.Len())
	}
}

func TestStart_ReturnsNoop_WhenDisabled(t *testing.T) {
	p := New(LevelOff, nil)
	stop := p.Start("inv", "stage")
	stop() // must not panic
}

func TestStart_MeasuresDuration(t *testing.T) {
	var buf bytes.Buffer
	p := New(LevelMinimal, &buf)

	stop := p.Start("inv-3", "sleep_stage")
	time.Sleep(10 * time.Millisecond)
	stop()

	timings := readTimings(t, buf.Bytes())
	if len(timings) != 1 {
		t.Fatalf("expected 1 timing, got %d", len(timings))
	}
	if timings[0].DurationMs < 8 {
		t.Errorf("DurationMs = %.2fms, expected >= 8ms", timings[0].DurationMs)
	}
}

func TestOpen_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.jsonl")

	p, err := Open(LevelMinimal, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	p.Record("inv", "a", time.Millisecond, nil)
	p.Record("inv", "b", time.Millisecond, nil)
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(readTimings(t, data)); n != 2 {
		t.Errorf("expected 2 timings, got %d", n)
	}
}

func TestOpen_OffSkipsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.jsonl")
	p, err := Open(LevelOff, path)
	if err != nil {
		t.Fatal(err)
	}
	p.Record("inv", "a", time.Millisecond, nil)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file, stat err = %v", err)
	}
}
