package telemetry_test

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/tool-agent/internal/telemetry"
)

// observeInto enables emission into a fresh temp dir and restores the previous settings on cleanup.
func observeInto(t *testing.T) string {
	t.Helper()
	prev := telemetry.Current()
	dir := t.TempDir()
	telemetry.Configure(telemetry.Settings{Observe: true, Dir: dir})
	t.Cleanup(func() { telemetry.Configure(prev) })
	return dir
}

func readLines(t *testing.T, dir string) []map[string]any {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, telemetry.EventsFile))
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestEmit_Gating(t *testing.T) {
	prev := telemetry.Current()
	dir := t.TempDir()
	telemetry.Configure(telemetry.Settings{Observe: false, Dir: dir})
	t.Cleanup(func() { telemetry.Configure(prev) })

	telemetry.Emit("test_event", map[string]any{"foo": "bar"})

	if _, err := os.Stat(filepath.Join(dir, telemetry.EventsFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no events file when observe is off, got err=%v", err)
	}
}

func TestEmit_HappyPath(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit("test_event", map[string]any{"foo": "bar", "num": 42})

	lines := readLines(t, dir)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	event := lines[0]
	if event["event"] != "test_event" || event["foo"] != "bar" || event["num"] != float64(42) {
		t.Fatalf("unexpected event: %#v", event)
	}
	ts, ok := event["time"].(string)
	if !ok {
		t.Fatal("expected time field as string")
	}
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		t.Errorf("time field not valid RFC3339Nano: %v", err)
	}
}

func TestEmit_MultipleEmissionsAppend(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit("event1", map[string]any{"id": 1})
	telemetry.Emit("event2", map[string]any{"id": 2})
	telemetry.Emit("event3", map[string]any{"id": 3})

	lines := readLines(t, dir)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"event1", "event2", "event3"} {
		if lines[i]["event"] != want {
			t.Errorf("line %d: expected event=%s, got %v", i+1, want, lines[i]["event"])
		}
	}
}

func TestEmit_MapIsolation(t *testing.T) {
	observeInto(t)

	fields := map[string]any{"key": "value"}
	telemetry.Emit("test", fields)

	if len(fields) != 1 || fields["key"] != "value" {
		t.Fatalf("caller map mutated: %#v", fields)
	}
}

func TestEmit_NilFields(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit("nil_fields", nil)

	lines := readLines(t, dir)
	if len(lines) != 1 || len(lines[0]) != 2 {
		t.Fatalf("expected one event with exactly event+time, got %#v", lines)
	}
}

func TestEmit_MarshalErrorWritesNothing(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit("bad", map[string]any{"x": math.NaN()})

	if _, err := os.Stat(filepath.Join(dir, telemetry.EventsFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no events file on marshal error, got err=%v", err)
	}
}

func TestEmit_DirIsAFileDoesNotPanic(t *testing.T) {
	prev := telemetry.Current()
	t.Cleanup(func() { telemetry.Configure(prev) })
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	telemetry.Configure(telemetry.Settings{Observe: true, Dir: file})

	telemetry.Emit("x", map[string]any{"a": 1})

	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "x" {
		t.Fatalf("file modified: %q", b)
	}
}

func TestCurrent_DefaultDir(t *testing.T) {
	prev := telemetry.Current()
	t.Cleanup(func() { telemetry.Configure(prev) })

	telemetry.Configure(telemetry.Settings{})
	if got := telemetry.Current().Dir; got != ".agent" {
		t.Fatalf("want .agent, got %q", got)
	}
}

func TestRunID_RoundTrip(t *testing.T) {
	ctx := telemetry.WithRunID(context.Background(), "run-123")
	got, ok := telemetry.RunIDFromContext(ctx)
	if !ok || got != "run-123" {
		t.Fatalf("want run-123,true; got %q,%v", got, ok)
	}

	ctx2 := telemetry.WithRunID(ctx, "run-456")
	if got, _ := telemetry.RunIDFromContext(ctx2); got != "run-456" {
		t.Fatalf("last write should win, got %q", got)
	}
}

func TestRunID_MissingOrEmpty(t *testing.T) {
	if got, ok := telemetry.RunIDFromContext(context.Background()); ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
	ctx := telemetry.WithRunID(context.Background(), "")
	if got, ok := telemetry.RunIDFromContext(ctx); ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}

func TestRunID_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	child := telemetry.WithRunID(parent, "r1")
	cancel()

	select {
	case <-child.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("child context did not observe parent cancellation")
	}
}
