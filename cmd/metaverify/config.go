package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// Bounds applied to the fetch timeout.
const (
	MinFetchTimeout = 10 * time.Second
	MaxFetchTimeout = 15 * time.Second
)

// ClampTimeout limits d to the supported fetch timeout range.
func ClampTimeout(d time.Duration) time.Duration {
	return min(max(d, MinFetchTimeout), MaxFetchTimeout)
}

// ParseLogLevel converts a level name such as "warn" to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// YAMLLoader reads a YAML configuration file for --config. Keys are flag
// names with hyphens or underscores, e.g.
//
//	timeout: 12s
//	user_agent: MyBot/1.0
//	serve:
//	  addr: ":8080"
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	data, err := json.Marshal(flatten(values))
	if err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return kong.JSON(bytes.NewReader(data))
}

// flatten lifts keys of command sections such as serve.addr to the top level
// and spells every key with underscores, the form kong.JSON looks up.
func flatten(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if nested, ok := v.(map[string]any); ok {
			maps.Copy(out, flatten(nested))
			continue
		}
		out[strings.ReplaceAll(k, "-", "_")] = v
	}
	return out
}
