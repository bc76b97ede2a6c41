package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// ParseInitOptions decodes the initializationOptions payload as it
// arrives over the LSP wire (JSON, the wire format itself rather than a
// library choice) and validates it.
func ParseInitOptions(raw json.RawMessage) (*Options, error) {
	var opts Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("config: decode initializationOptions: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// LoadFile reads the same initializationOptions shape from a local file
// for dry-run/local testing outside an editor (validate-config, a
// headless serve invocation). Environment variables of the form $NAME or
// ${NAME} are expanded before parsing. The format is chosen by
// extension: .yaml/.yml via yaml.v3, .json/.json5 via json5 (a superset
// of JSON allowing comments and trailing commas).
func LoadFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))

	var opts Options
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(strings.NewReader(expanded))
		decoder.KnownFields(true)
		if err := decoder.Decode(&opts); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".json", ".json5", "":
		if err := json5.Unmarshal([]byte(expanded), &opts); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: %s: unrecognized extension %q", path, ext)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}
