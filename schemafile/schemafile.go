// Package schemafile loads JSON Schema documents from JSON or YAML
// files.
//
// Property declaration order is significant downstream (strict
// rewriting derives required lists from it), so YAML documents are
// converted to JSON with mapping keys kept in document order rather
// than decoded through Go maps.
package schemafile

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a schema document from a .json, .yaml, or .yml file.
// JSON documents are returned as written; YAML documents are converted
// to JSON.
func Load(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return convert(path, data)
}

// LoadFS is Load reading from fsys instead of the host filesystem.
func LoadFS(fsys fs.FS, path string) (json.RawMessage, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return convert(path, data)
}

func convert(path string, data []byte) (json.RawMessage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if !json.Valid(data) {
			return nil, fmt.Errorf("parsing schema file %s: invalid JSON", path)
		}
		return data, nil
	case ".yaml", ".yml":
		out, err := JSONFromYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing schema file %s: %w", path, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported schema file extension %q (want .json, .yaml, or .yml)", filepath.Ext(path))
	}
}
