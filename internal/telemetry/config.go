package telemetry

import (
	"os"
	"sync"
)

// Settings controls JSONL emission.
type Settings struct {
	// Observe enables writing events.
	Observe bool
	// Dir is the artifacts directory; empty means ".agent".
	Dir string
}

const defaultDir = ".agent"

var (
	mu       sync.RWMutex
	settings Settings
)

func init() {
	// Environment seeds the defaults; cmd/agent overrides them through Configure after
	// reading its configuration.
	settings = Settings{
		Observe: os.Getenv("AGENT_OBSERVE") == "1",
		Dir:     os.Getenv("AGENT_ARTIFACTS_DIR"),
	}
}

// Configure replaces the process-wide telemetry settings.
func Configure(s Settings) {
	mu.Lock()
	defer mu.Unlock()
	settings = s
}

// Current returns the active settings with the directory default applied.
func Current() Settings {
	mu.RLock()
	defer mu.RUnlock()
	s := settings
	if s.Dir == "" {
		s.Dir = defaultDir
	}
	return s
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool { return Current().Observe }
