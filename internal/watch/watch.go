// Package watch triggers stage runs when evidence files change on
// disk. Bursts of filesystem events are debounced into a single run,
// and a cooldown keeps a noisy directory from re-running the stage in
// a tight loop.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/report"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Runner executes one pipeline stage.
type Runner interface {
	Run(ctx context.Context, stage string) (*report.StageReport, error)
}

// Watcher re-runs a stage whenever files under the evidence directory
// change.
type Watcher struct {
	dir      string
	stage    string
	debounce time.Duration
	cooldown time.Duration
	runner   Runner
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	stop     chan struct{}
	lastRun  time.Time
}

// New creates a watcher over dir that runs stage on changes.
func New(cfg config.WatchConfig, dir, stage string, runner Runner, logger *logging.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("evidence directory is required for watch mode")
	}
	if runner == nil {
		return nil, errors.New("stage runner is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	return &Watcher{
		dir:      dir,
		stage:    stage,
		debounce: time.Duration(cfg.Debounce),
		cooldown: time.Duration(cfg.Cooldown),
		runner:   runner,
		watcher:  fsw,
		logger:   logger.Named("watch"),
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching and processes events in a background
// goroutine until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	w.logger.Info(ctx, "watching evidence directory",
		zap.String("dir", w.dir),
		zap.String("stage", w.stage),
		zap.Duration("debounce", w.debounce),
		zap.Duration("cooldown", w.cooldown))

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		// Already stopped
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug(ctx, "evidence changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))

			// Restart the quiet-period timer on every event so a
			// burst of writes collapses into one run.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-pending:
			timer = nil
			pending = nil
			w.trigger(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "watcher error", zap.Error(err))
		}
	}
}

// relevant filters out event noise: only content changes count, and
// hidden files (editor swap files, .tmp droppings) are ignored.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	return base != "" && !strings.HasPrefix(base, ".")
}

func (w *Watcher) trigger(ctx context.Context) {
	if w.cooldown > 0 && !w.lastRun.IsZero() && time.Since(w.lastRun) < w.cooldown {
		w.logger.Debug(ctx, "run suppressed by cooldown",
			zap.String("stage", w.stage),
			zap.Duration("cooldown", w.cooldown))
		return
	}
	w.lastRun = time.Now()

	rep, err := w.runner.Run(ctx, w.stage)
	if err != nil {
		w.logger.Error(ctx, "triggered run failed", zap.String("stage", w.stage), zap.Error(err))
		return
	}

	ok, failed := rep.Counts()
	w.logger.Info(ctx, "triggered run finished",
		zap.String("run_id", rep.RunID),
		zap.String("stage", rep.Stage),
		zap.Int("ok", ok),
		zap.Int("failed", failed))
}
