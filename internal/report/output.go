// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes rendered report content, creating parent directories as
// needed.
func WriteFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return os.WriteFile(path, content, 0o644)
}

// LoadTemplate reads an optional Markdown template. A missing file returns
// an empty template, selecting the default section layout.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading template %s: %w", path, err)
	}
	return string(data), nil
}
