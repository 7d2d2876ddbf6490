package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/report"
)

type recordingRunner struct {
	calls chan string
	err   error
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{calls: make(chan string, 8)}
}

func (r *recordingRunner) Run(_ context.Context, stage string) (*report.StageReport, error) {
	r.calls <- stage
	if r.err != nil {
		return nil, r.err
	}
	return &report.StageReport{RunID: "watchrun", Stage: stage}, nil
}

func startWatcher(t *testing.T, dir string, cfg config.WatchConfig, runner Runner) *Watcher {
	t.Helper()

	w, err := New(cfg, dir, "build", runner, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(w.Stop)
	return w
}

func expectRun(t *testing.T, calls <-chan string, within time.Duration) string {
	t.Helper()
	select {
	case stage := <-calls:
		return stage
	case <-time.After(within):
		t.Fatal("expected a triggered run")
		return ""
	}
}

func expectNoRun(t *testing.T, calls <-chan string, within time.Duration) {
	t.Helper()
	select {
	case <-calls:
		t.Fatal("unexpected triggered run")
	case <-time.After(within):
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(config.WatchConfig{}, "", "build", newRecordingRunner(), nil)
	assert.Error(t, err)

	_, err = New(config.WatchConfig{}, t.TempDir(), "build", nil, nil)
	assert.Error(t, err)
}

func TestTriggersRunOnChange(t *testing.T) {
	dir := t.TempDir()
	runner := newRecordingRunner()
	startWatcher(t, dir, config.WatchConfig{Debounce: config.Duration(50 * time.Millisecond)}, runner)

	err := os.WriteFile(filepath.Join(dir, "pipeline.log"), []byte("ERROR: boom\n"), 0o644)
	require.NoError(t, err)

	stage := expectRun(t, runner.calls, 2*time.Second)
	assert.Equal(t, "build", stage)
}

func TestDebounceCollapsesBurst(t *testing.T) {
	dir := t.TempDir()
	runner := newRecordingRunner()
	startWatcher(t, dir, config.WatchConfig{Debounce: config.Duration(100 * time.Millisecond)}, runner)

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}

	expectRun(t, runner.calls, 2*time.Second)
	expectNoRun(t, runner.calls, 300*time.Millisecond)
}

func TestCooldownSuppressesSecondRun(t *testing.T) {
	dir := t.TempDir()
	runner := newRecordingRunner()
	startWatcher(t, dir, config.WatchConfig{
		Debounce: config.Duration(30 * time.Millisecond),
		Cooldown: config.Duration(10 * time.Minute),
	}, runner)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "metrics.json"), []byte("{}"), 0o644))
	expectRun(t, runner.calls, 2*time.Second)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "metrics.json"), []byte("{}"), 0o644))
	expectNoRun(t, runner.calls, 300*time.Millisecond)
}

func TestRunnerErrorDoesNotStopWatching(t *testing.T) {
	dir := t.TempDir()
	runner := newRecordingRunner()
	runner.err = errors.New("emitting report: broker unreachable")
	startWatcher(t, dir, config.WatchConfig{Debounce: config.Duration(30 * time.Millisecond)}, runner)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "alerts.json"), []byte("[]"), 0o644))
	expectRun(t, runner.calls, 2*time.Second)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "alerts.json"), []byte("[{}]"), 0o644))
	expectRun(t, runner.calls, 2*time.Second)
}

func TestIgnoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	runner := newRecordingRunner()
	startWatcher(t, dir, config.WatchConfig{Debounce: config.Duration(30 * time.Millisecond)}, runner)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".manifest.yaml.swp"), []byte("x"), 0o644))
	expectNoRun(t, runner.calls, 300*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(config.WatchConfig{}, dir, "pr", newRecordingRunner(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}
