package planner

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/pkg/errors"
)

// DecodeArguments turns the provider's raw argument JSON into a map.
// Empty input is an empty map; malformed JSON is repaired once before giving up.
func DecodeArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}
	args := map[string]any{}
	err := json.Unmarshal([]byte(raw), &args)
	if err == nil {
		return args, nil
	}
	repaired, rerr := jsonrepair.JSONRepair(raw)
	if rerr != nil {
		return nil, errors.Wrapf(err, "decode tool arguments %q", raw)
	}
	args = map[string]any{}
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return nil, errors.Wrapf(err, "decode repaired tool arguments %q", repaired)
	}
	return args, nil
}
