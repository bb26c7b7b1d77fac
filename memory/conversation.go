package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadTranscript reads turns written by SaveTranscript. A missing file yields nil, nil.
func LoadTranscript(path string) ([]Turn, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var turns []Turn
	if isYAML(path) {
		err = yaml.Unmarshal(b, &turns)
	} else {
		err = json.Unmarshal(b, &turns)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode transcript %s", path)
	}
	return turns, nil
}

// SaveTranscript writes turns as YAML when path ends in .yaml/.yml, JSON otherwise.
func SaveTranscript(path string, turns []Turn) error {
	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(turns)
	} else {
		b, err = json.MarshalIndent(turns, "", " ")
	}
	if err != nil {
		return errors.Wrap(err, "encode transcript")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
