package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRequest reads a request document. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadRequest(path string) (DataRequest, error) {
	var req DataRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read request: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("failed to parse request YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("failed to parse request JSON: %w", err)
		}
	}

	return req, nil
}

// LoadRows reads a JSON array of objects
func LoadRows(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse rows: %w", err)
	}
	return rows, nil
}
