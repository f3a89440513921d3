package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/importer"
	"github.com/lherron/levelsweep/internal/sweep"
)

// ImportOptions are the recognized options of an import run
type ImportOptions struct {
	Dir        string `yaml:"dir"`
	DryRun     bool   `yaml:"dryRun"`
	Overwrite  bool   `yaml:"overwrite"`
	AuthorID   string `yaml:"authorId"`
	AuthorName string `yaml:"authorName"`
}

// CleanupOptions are the recognized options of a cleanup run. Every switch
// is independent and off by default.
type CleanupOptions struct {
	RemoveDuplicateLevels bool `yaml:"removeDuplicateLevels"`
	RemoveDuplicateUsers  bool `yaml:"removeDuplicateUsers"`
	RemoveOrphanedLevels  bool `yaml:"removeOrphanedLevels"`
	FixInvalidData        bool `yaml:"fixInvalidData"`
	RemoveTestData        bool `yaml:"removeTestData"`
	DryRun                bool `yaml:"dryRun"`
}

// ReadOptionsFile decodes a YAML options file into target. Unknown keys are
// rejected.
func ReadOptionsFile(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read options file: %v", domain.ErrInvalidOptions, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidOptions, path, err)
	}
	return nil
}

// NewImportOptions validates o and fills unset identity fields from cfg
func NewImportOptions(cfg *Config, o ImportOptions) (*ImportOptions, error) {
	o.Dir = strings.TrimSpace(o.Dir)
	if o.Dir == "" {
		return nil, fmt.Errorf("%w: dir is required", domain.ErrInvalidOptions)
	}
	info, err := os.Stat(o.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: dir: %v", domain.ErrInvalidOptions, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: dir %s is not a directory", domain.ErrInvalidOptions, o.Dir)
	}
	if strings.TrimSpace(o.AuthorID) == "" {
		o.AuthorID = cfg.ImportAuthorID
	}
	if strings.TrimSpace(o.AuthorName) == "" {
		o.AuthorName = cfg.ImportAuthorName
	}
	return &o, nil
}

// Importer converts the options to the importer's type
func (o *ImportOptions) Importer() importer.Options {
	return importer.Options{
		Dir:        o.Dir,
		Overwrite:  o.Overwrite,
		AuthorID:   o.AuthorID,
		AuthorName: o.AuthorName,
	}
}

// NewCleanupOptions validates o. At least one switch must be on.
func NewCleanupOptions(o CleanupOptions) (*CleanupOptions, error) {
	if !o.RemoveDuplicateLevels && !o.RemoveDuplicateUsers && !o.RemoveOrphanedLevels && !o.FixInvalidData && !o.RemoveTestData {
		return nil, fmt.Errorf("%w: no cleanup step selected", domain.ErrInvalidOptions)
	}
	return &o, nil
}

// Detectors maps the switches onto the sweep stages
func (o *CleanupOptions) Detectors(cfg *Config) sweep.Detectors {
	return sweep.Detectors{
		DuplicateLevels: o.RemoveDuplicateLevels,
		DuplicateUsers:  o.RemoveDuplicateUsers,
		OrphanedLevels:  o.RemoveOrphanedLevels,
		FixInvalidData:  o.FixInvalidData,
		TestData:        o.RemoveTestData,
		Markers:         cfg.TestMarkers.Sweep(),
		Orphans:         sweep.OrphanOptions{SystemAuthors: cfg.SystemAuthors()},
	}
}
