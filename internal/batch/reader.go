package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rcparams/internal/model"
)

// ReadSpecs reads a batch of [name, spec] pairs from path, or from stdin when
// path is "-". Files ending in .yaml or .yml are decoded as YAML.
func ReadSpecs(path string, stdin io.Reader) ([]model.SpecEntry, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}

	if isYAML(path) {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	}
	return DecodeSpecs(data)
}

// DecodeSpecs decodes a JSON batch input.
func DecodeSpecs(data []byte) ([]model.SpecEntry, error) {
	var entries []model.SpecEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		if _, ok := err.(*json.SyntaxError); ok {
			return nil, fmt.Errorf("%w: parse input: %v", model.ErrMalformedInput, err)
		}
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return nil, fmt.Errorf("%w: input must be an array of [name, spec] pairs: %v", model.ErrMalformedInput, err)
		}
		return nil, err
	}

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate resource %q", model.ErrMalformedInput, entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}
	return entries, nil
}

// ReadParams reads a derived batch output, as written by the generate command.
func ReadParams(path string, stdin io.Reader) ([]model.ParamsEntry, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}

	var entries []model.ParamsEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parse derived parameters: %v", model.ErrMalformedInput, err)
	}
	return entries, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse yaml input: %v", model.ErrMalformedInput, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: convert yaml input: %v", model.ErrMalformedInput, err)
	}
	return out, nil
}
