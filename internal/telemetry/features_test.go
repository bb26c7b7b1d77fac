package telemetry_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/tool-agent/internal/telemetry"
)

func TestCountFeatures(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want telemetry.Features
	}{
		{"empty", "", telemetry.Features{}},
		{"ascii", "3 + 5", telemetry.Features{Bytes: 5, Runes: 5, Words: 3, Lines: 1}},
		{"multibyte", "こんにちは 世界", telemetry.Features{Bytes: 22, Runes: 8, Words: 2, Lines: 1}},
		{"trailing newline", "a\nb\n", telemetry.Features{Bytes: 4, Runes: 4, Words: 2, Lines: 3}},
		{"unicode space", "Foo\u2003Bar", telemetry.Features{Bytes: 9, Runes: 7, Words: 2, Lines: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := telemetry.CountFeatures(tt.in); got != tt.want {
				t.Fatalf("CountFeatures(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEmitInputFeatures_SchemaAndNoRawText(t *testing.T) {
	dir := observeInto(t)
	ctx := telemetry.WithRunID(context.Background(), "run-features")
	input := "3 + 5 を計算して"

	telemetry.EmitInputFeatures(ctx, "run_started", input)

	raw, err := os.ReadFile(filepath.Join(dir, telemetry.EventsFile))
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if strings.Contains(string(raw), input) {
		t.Fatal("raw input text found in events.jsonl")
	}

	lines := readLines(t, dir)
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %d", len(lines))
	}
	m := lines[0]
	if m["event"] != "run_started" || m["run_id"] != "run-features" || m["features_version"] != "1" {
		t.Fatalf("unexpected envelope: %#v", m)
	}
	in, ok := m["input"].(map[string]any)
	if !ok {
		t.Fatalf("missing input object: %#v", m)
	}
	want := telemetry.CountFeatures(input)
	if in["bytes"] != float64(want.Bytes) || in["runes"] != float64(want.Runes) ||
		in["words"] != float64(want.Words) || in["lines"] != float64(want.Lines) {
		t.Fatalf("features mismatch: %#v want %+v", in, want)
	}
}

func TestEmitInputFeatures_GatedOff(t *testing.T) {
	prev := telemetry.Current()
	dir := t.TempDir()
	telemetry.Configure(telemetry.Settings{Dir: dir})
	t.Cleanup(func() { telemetry.Configure(prev) })

	telemetry.EmitInputFeatures(context.Background(), "run_started", "x")

	if _, err := os.Stat(filepath.Join(dir, telemetry.EventsFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no file, got err=%v", err)
	}
}
