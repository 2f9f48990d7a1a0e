package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileSource reads the catalog from a YAML or JSON file. The format is
// chosen by extension; anything other than .json is parsed as YAML.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements Source
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Load implements Source
func (s *FileSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data, filepath.Ext(s.path))
}

// Parse decodes a catalog document. ext selects the format (".json" or YAML).
func Parse(data []byte, ext string) (*Snapshot, error) {
	var snap Snapshot
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("parse catalog json: %w", err)
		}
		return &snap, nil
	}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	return &snap, nil
}
