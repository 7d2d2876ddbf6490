package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSON writes the report as one indented JSON document.
type JSON struct {
	out io.Writer
}

// NewJSON creates a JSON emitter. A nil writer defaults to stdout.
func NewJSON(out io.Writer) *JSON {
	if out == nil {
		out = os.Stdout
	}
	return &JSON{out: out}
}

func (j *JSON) Emit(_ context.Context, rep *StageReport) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// WriteFile writes the report to path as indented JSON, creating or
// truncating the file.
func WriteFile(path string, rep *StageReport) error {
	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// File writes each report to a fixed path, replacing the previous one.
type File struct {
	path string
}

// NewFile creates a file emitter for path.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Emit(_ context.Context, rep *StageReport) error {
	return WriteFile(f.path, rep)
}

var (
	_ Emitter = (*JSON)(nil)
	_ Emitter = (*File)(nil)
)
