package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"move-quote/core/settings"
)

// FileSource reads a settings document from a JSON file on every fetch
type FileSource struct {
	path string
}

// NewFileSource creates a file source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements settings.Source
func (s *FileSource) Name() string {
	return "file:" + filepath.Base(s.path)
}

// Fetch implements settings.Source
func (s *FileSource) Fetch(ctx context.Context) (settings.Document, error) {
	if err := ctx.Err(); err != nil {
		return settings.Document{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return settings.Document{}, fmt.Errorf("read settings file: %w", err)
	}
	return DecodeDocument(data)
}

// Close implements io.Closer
func (s *FileSource) Close() error {
	return nil
}

// DecodeDocument parses a JSON settings document, rejecting unknown fields
func DecodeDocument(data []byte) (settings.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc settings.Document
	if err := dec.Decode(&doc); err != nil {
		return settings.Document{}, fmt.Errorf("decode settings document: %w", err)
	}
	return doc, nil
}

// WriteDocumentFile writes doc as indented JSON
func WriteDocumentFile(path string, doc settings.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
