package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lherron/levelsweep/internal/domain"
)

// Document is one parsed level file
type Document struct {
	Path string
	Data json.RawMessage // compacted
}

// ListFiles returns the .json files directly inside dir, in lexical order.
// The extension match is case-insensitive; subdirectories are not walked.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read import dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ReadDocument loads and parses one level file. Any JSON value is accepted
// as payload; failures are returned as *domain.ParseError.
func ReadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ParseError{Path: path, Err: err}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, &domain.ParseError{Path: path, Err: fmt.Errorf("%w: empty file", domain.ErrInvalidDocument)}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, &domain.ParseError{Path: path, Err: fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)}
	}
	return &Document{Path: path, Data: json.RawMessage(buf.Bytes())}, nil
}
