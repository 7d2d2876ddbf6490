// Package fixtures provides canned evidence, tool payloads, and knowledge
// base notes embedded in the stagehand binary. They back the simulated
// gateway and serve as evidence defaults when no evidence directory is
// configured, so a checkout-free install still produces useful runs.
package fixtures

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed all:evidence all:tools all:kb
var FS embed.FS

// Evidence returns the embedded evidence file with the given name.
func Evidence(name string) ([]byte, error) {
	return FS.ReadFile(path.Join("evidence", name))
}

// Tool returns the embedded payload for the given tool name.
func Tool(name string) ([]byte, error) {
	return FS.ReadFile(path.Join("tools", name+".json"))
}

// Tools returns the sorted names of all tools with embedded payloads.
func Tools() ([]string, error) {
	entries, err := fs.ReadDir(FS, "tools")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// KBNotes returns the embedded knowledge base notes keyed by filename.
func KBNotes() (map[string][]byte, error) {
	entries, err := fs.ReadDir(FS, "kb")
	if err != nil {
		return nil, err
	}
	notes := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		content, err := FS.ReadFile(path.Join("kb", e.Name()))
		if err != nil {
			return nil, err
		}
		notes[e.Name()] = content
	}
	return notes, nil
}
