package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// toJSON turns a YAML or JSON document into JSON suitable for the strict
// decoder. The format is picked from the extension of name; anything other
// than .yaml/.yml is read as JSON. ${VAR} references inside string values are
// expanded from the environment, so secrets such as debug.token can stay out
// of the file.
func toJSON(name string, data []byte) ([]byte, string, error) {
	var (
		doc    any
		format string
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		format = "yaml"
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, format, fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		format = "json"
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, format, fmt.Errorf("json unmarshal: %w", err)
		}
		if dec.More() {
			return nil, format, fmt.Errorf("invalid config: trailing data")
		}
	}

	// An empty YAML file is an empty config.
	if doc == nil {
		doc = map[string]any{}
	}
	out, err := json.Marshal(normalize(doc))
	if err != nil {
		return nil, format, fmt.Errorf("%s->json marshal: %w", format, err)
	}
	return out, format, nil
}

// normalize stringifies map keys and expands environment references in
// string scalars.
func normalize(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalize(v)
		}
		return m
	case map[string]any:
		for k, v := range x {
			x[k] = normalize(v)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case string:
		if strings.Contains(x, "${") {
			return os.Expand(x, os.Getenv)
		}
		return x
	default:
		return in
	}
}
