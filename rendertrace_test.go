package duskline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestFnv1a64KnownVector(t *testing.T) {
	// FNV-1a 64-bit of the empty string is the offset basis itself.
	if got := fnv1a64(nil); got != uint64(fnv1a64Offset) {
		t.Errorf("fnv1a64(nil) = %#x, want offset basis %#x", got, uint64(fnv1a64Offset))
	}
}

func TestFnv1a64Deterministic(t *testing.T) {
	a := fnv1a64([]byte("hello world"))
	b := fnv1a64([]byte("hello world"))
	if a != b {
		t.Errorf("fnv1a64 is not deterministic: %#x != %#x", a, b)
	}
	if c := fnv1a64([]byte("hello worlD")); c == a {
		t.Errorf("fnv1a64 collided on a single-byte difference (unlikely but checked)")
	}
}

func TestHex16FixedWidth(t *testing.T) {
	if got := hex16(0); got != "0000000000000000" {
		t.Errorf("hex16(0) = %q, want 16 zero digits", got)
	}
	if got := hex16(0xcbf29ce484222325); len(got) != 16 {
		t.Errorf("hex16 produced %q, want 16 hex digits", got)
	}
}

func TestChecksumBufferStableAcrossEqualGrids(t *testing.T) {
	pool := NewPool()
	g1 := NewGrid(4, 2)
	g1.Set(0, 0, NewCodepointCell('a'))
	g2 := NewGrid(4, 2)
	g2.Set(0, 0, NewCodepointCell('a'))

	if checksumBuffer(g1, pool) != checksumBuffer(g2, pool) {
		t.Errorf("identical grids produced different checksums")
	}
}

func TestChecksumBufferChangesWithContent(t *testing.T) {
	pool := NewPool()
	g1 := NewGrid(4, 2)
	g2 := NewGrid(4, 2)
	g2.Set(0, 0, NewCodepointCell('a'))

	if checksumBuffer(g1, pool) == checksumBuffer(g2, pool) {
		t.Errorf("differing grids produced the same checksum")
	}
}

func TestVerifyChainRoundTrips(t *testing.T) {
	checksums := []uint64{111, 222, 333}
	chain := uint64(fnv1a64Offset)
	for _, c := range checksums {
		chain = fnv1a64Seed(chain, c)
	}
	if !VerifyChain(checksums, chain) {
		t.Errorf("VerifyChain should accept a correctly computed chain")
	}
	if VerifyChain(checksums, chain+1) {
		t.Errorf("VerifyChain should reject a tampered chain checksum")
	}
}

func TestMemoryPayloadStoreDedupes(t *testing.T) {
	store := NewMemoryPayloadStore()
	h1, _ := store.Put(0, PayloadFullBuffer, []byte("abc"))
	h2, _ := store.Put(1, PayloadFullBuffer, []byte("abc"))
	if h1 != h2 {
		t.Errorf("identical payloads got different identifiers: %q != %q", h1, h2)
	}
	got, ok := store.Get(h1)
	if !ok || string(got) != "abc" {
		t.Errorf("Get(%q) = %q, %v, want \"abc\", true", h1, got, ok)
	}
}

func TestRenderTraceRecorderWritesHeaderFrameSummary(t *testing.T) {
	var buf bytes.Buffer
	store := NewMemoryPayloadStore()
	rec := NewRenderTraceRecorder(&buf, store)

	if err := rec.WriteHeader("run-1", Basic(), DiffConfig{}, "rendertrace_test", HeaderOptions{}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	grid := NewGrid(10, 5)
	pool := NewPool()
	stats := PresenterStats{BytesEmitted: 42, CellsChanged: 1, RunCount: 1}
	if err := rec.WriteFullBufferFrame(grid, pool, stats, FrameAnnotation{Mode: "stream"}); err != nil {
		t.Fatalf("WriteFullBufferFrame: %v", err)
	}
	elapsed := uint64(5)
	if err := rec.WriteSummary(&elapsed); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d JSONL lines, want 3 (header, frame, summary)", len(lines))
	}

	var header map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &header); err != nil {
		t.Fatalf("header line is not valid JSON: %v", err)
	}
	if header["event"] != "trace_header" || header["run_id"] != "run-1" {
		t.Errorf("header = %+v, want event=trace_header run_id=run-1", header)
	}
	if header["schema_version"] != renderTraceSchemaVersion {
		t.Errorf("header schema_version = %v, want %v", header["schema_version"], renderTraceSchemaVersion)
	}

	var frame map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &frame); err != nil {
		t.Fatalf("frame line is not valid JSON: %v", err)
	}
	if frame["event"] != "frame" || frame["frame_idx"].(float64) != 0 {
		t.Errorf("frame = %+v, want event=frame frame_idx=0", frame)
	}
	if checksum, _ := frame["checksum"].(string); len(checksum) != 16 {
		t.Errorf("frame checksum = %q, want 16 hex digits", checksum)
	}
	if _, ok := frame["payload_path"]; !ok {
		t.Errorf("frame missing payload_path field")
	}

	var summary map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &summary); err != nil {
		t.Fatalf("summary line is not valid JSON: %v", err)
	}
	if summary["event"] != "trace_summary" || summary["total_frames"].(float64) != 1 {
		t.Errorf("summary = %+v, want event=trace_summary total_frames=1", summary)
	}
	if summary["elapsed_ms"].(float64) != 5 {
		t.Errorf("summary elapsed_ms = %v, want 5", summary["elapsed_ms"])
	}
}

func TestWriteFrameBeforeHeaderFails(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRenderTraceRecorder(&buf, NewMemoryPayloadStore())
	grid := NewGrid(1, 1)
	pool := NewPool()
	if err := rec.WriteFullBufferFrame(grid, pool, PresenterStats{}, FrameAnnotation{}); err == nil {
		t.Errorf("expected an error writing a frame before the header")
	}
}

func TestWriteHeaderTwiceFails(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRenderTraceRecorder(&buf, NewMemoryPayloadStore())
	if err := rec.WriteHeader("r", Basic(), DiffConfig{}, "", HeaderOptions{}); err != nil {
		t.Fatalf("first WriteHeader: %v", err)
	}
	if err := rec.WriteHeader("r", Basic(), DiffConfig{}, "", HeaderOptions{}); err == nil {
		t.Errorf("expected an error writing the header twice")
	}
}

func TestChainChecksumAdvancesPerFrame(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRenderTraceRecorder(&buf, NewMemoryPayloadStore())
	rec.WriteHeader("r", Basic(), DiffConfig{}, "", HeaderOptions{})

	grid := NewGrid(2, 1)
	pool := NewPool()
	rec.WriteFullBufferFrame(grid, pool, PresenterStats{}, FrameAnnotation{})
	firstChain := rec.ChainChecksum()

	grid.Set(0, 0, NewCodepointCell('x'))
	rec.WriteDiffFrame(grid, []ChangeRun{{Y: 0, X0: 0, X1: 0}}, pool, PresenterStats{}, FrameAnnotation{})
	secondChain := rec.ChainChecksum()

	if firstChain == secondChain {
		t.Errorf("chain checksum did not advance between frames")
	}

	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		_ = scanner.Text() // sanity: lines are scannable (well-formed JSONL)
	}
}

func TestFilePayloadStoreNamesMatchCanonicalLayout(t *testing.T) {
	dir := t.TempDir()
	store := NewFilePayloadStore(dir, "run1")
	path, err := store.Put(3, PayloadDiffRuns, []byte("xyz"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.Contains(path, "run1_payloads") || !strings.Contains(path, "frame_000003_diff_runs.bin") {
		t.Errorf("path = %q, want run1_payloads/frame_000003_diff_runs.bin suffix", path)
	}
}
