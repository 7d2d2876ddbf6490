// Package evidence loads agent evidence files.
//
// Files are read from an optional on-disk directory first, falling back
// to the fixtures embedded in the binary. Missing and malformed files
// both surface as ErrMissing so agents can degrade to empty evidence
// instead of failing.
package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/stagehand/internal/fixtures"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

// ErrMissing marks evidence that is absent or unreadable. Agents treat it
// as "proceed with empty evidence", never as a fatal error.
var ErrMissing = errors.New("evidence missing")

// Well-known evidence files.
const (
	FilePipelineLog = "pipeline.log"
	FileMetrics     = "metrics.json"
	FileManifest    = "manifest.yaml"
	FileAlerts      = "alerts.json"
	FileSnippet     = "snippet.py"
)

const maxEvidenceFileSize = 1024 * 1024 // 1MB

// Store resolves evidence files from a directory with embedded fallbacks.
type Store struct {
	dir    string
	logger *logging.Logger
}

// NewStore creates a store. dir may be empty to use only embedded
// fixtures; a non-empty dir must exist.
func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("evidence dir %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("evidence dir %s is not a directory", dir)
		}
	}
	return &Store{dir: dir, logger: logger.Named("evidence")}, nil
}

// Text returns the raw content of the named evidence file.
func (s *Store) Text(name string) (string, error) {
	raw, err := s.read(name)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// JSON unmarshals the named evidence file into v.
func (s *Store) JSON(name string, v any) error {
	raw, err := s.read(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrMissing, name, err)
	}
	return nil
}

// YAML unmarshals the named evidence file into v.
func (s *Store) YAML(name string, v any) error {
	raw, err := s.read(name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrMissing, name, err)
	}
	return nil
}

// read resolves the file from disk first, then the embedded fixtures.
func (s *Store) read(name string) ([]byte, error) {
	if filepath.Base(name) != name || name == "" {
		return nil, fmt.Errorf("%w: invalid evidence name %q", ErrMissing, name)
	}

	if s.dir != "" {
		path := filepath.Join(s.dir, name)
		if info, err := os.Stat(path); err == nil {
			if info.Size() > maxEvidenceFileSize {
				return nil, fmt.Errorf("%w: %s too large (%d bytes)", ErrMissing, name, info.Size())
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%w: read %s: %v", ErrMissing, name, err)
			}
			return raw, nil
		}
	}

	raw, err := fixtures.Evidence(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, name)
	}
	return raw, nil
}
