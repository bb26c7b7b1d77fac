package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// EventsFile is the name of the JSONL file inside the artifacts directory.
const EventsFile = "events.jsonl"

// Emit writes a single JSON line to <dir>/events.jsonl when observe is enabled.
// It augments fields with RFC3339Nano time and the event name. Failures are logged and dropped.
func Emit(name string, fields map[string]any) {
	s := Current()
	if !s.Observe {
		return
	}

	// Shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		log.Warn().Err(err).Str("event", name).Msg("telemetry: marshal")
		return
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", s.Dir).Msg("telemetry: mkdir")
		return
	}

	path := filepath.Join(s.Dir, EventsFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("telemetry: open")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("telemetry: write")
	}
}
