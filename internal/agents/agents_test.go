package agents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/stagehand/internal/evidence"
	"github.com/fyrsmithlabs/stagehand/internal/gateway"
	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
)

// fakeAdapter returns scripted outputs keyed by signature name and
// records every call.
type fakeAdapter struct {
	outputs map[string]map[string]any
	errs    map[string]error
	calls   []string
	inputs  map[string]map[string]any
}

func (f *fakeAdapter) Predict(_ context.Context, sig reasoning.Signature, inputs map[string]any) (map[string]any, error) {
	f.calls = append(f.calls, sig.Name)
	if f.inputs == nil {
		f.inputs = make(map[string]map[string]any)
	}
	f.inputs[sig.Name] = inputs

	if err := f.errs[sig.Name]; err != nil {
		return nil, err
	}
	out, ok := f.outputs[sig.Name]
	if !ok {
		return nil, fmt.Errorf("unscripted predict %s", sig.Name)
	}
	return out, nil
}

// fakeTools hands agents a fixed gateway, or an error when none is
// set.
type fakeTools struct {
	gw  gateway.Gateway
	err error
}

func (f *fakeTools) Gateway(context.Context) (gateway.Gateway, error) {
	return f.gw, f.err
}

// simulatedTools backs agents with the embedded fixture gateway.
func simulatedTools() *fakeTools {
	return &fakeTools{gw: gateway.NewSimulated(nil)}
}

// embeddedEvidence returns a store resolving only embedded fixtures.
func embeddedEvidence(t *testing.T) *evidence.Store {
	t.Helper()
	store, err := evidence.NewStore("", nil)
	require.NoError(t, err)
	return store
}

// evidenceDir returns a store backed by a temp dir holding the given
// files. Names not written still resolve through the embedded
// fixtures.
func evidenceDir(t *testing.T, files map[string]string) *evidence.Store {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	store, err := evidence.NewStore(dir, nil)
	require.NoError(t, err)
	return store
}
