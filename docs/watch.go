package docs

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/svc"
)

const DefaultReloadDelay = 250 * time.Millisecond

// Watcher reloads a Registry whenever a template file in its Dir changes.
// A burst of events within Delay triggers a single reload.
type Watcher struct {
	Ctx      context.Context
	cancel   context.CancelFunc
	state    int
	done     chan error
	Registry *Registry
	Delay    time.Duration
	Logger   *zap.Logger
	OnReload func(types int, err error)

	fsw *fsnotify.Watcher
}

// Ensure Watcher implements svc.Service
var _ svc.Service = (*Watcher)(nil)

func NewWatcher(parentCtx context.Context, registry *Registry, logger *zap.Logger) *Watcher {
	ctx, cancel := context.WithCancel(parentCtx)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		Ctx:      ctx,
		cancel:   cancel,
		state:    svc.StateREADY,
		done:     make(chan error, 1),
		Registry: registry,
		Delay:    DefaultReloadDelay,
		Logger:   logger.Named("docs.watch"),
	}
}

func (w *Watcher) Name() string {
	return "TemplateWatcher"
}

func (w *Watcher) Start() error {
	if w.Registry.Dir == "" {
		return fmt.Errorf("template watcher: registry has no directory")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("template watcher: %w", err)
	}
	if err = fsw.Add(w.Registry.Dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("template watcher: watch %s: %w", w.Registry.Dir, err)
	}
	w.fsw = fsw
	w.state = svc.StateRUNNING
	go w.run()
	return nil
}

func (w *Watcher) Stop() {
	w.cancel()
	w.state = svc.StateSTOPPED
}

func (w *Watcher) Done() <-chan error {
	return w.done
}

func (w *Watcher) run() {
	timer := time.NewTimer(w.Delay)
	timer.Stop()
	defer timer.Stop()
	w.Logger.Info("watching templates", zap.String("dir", w.Registry.Dir))
	for {
		select {
		case <-w.Ctx.Done():
			w.done <- w.fsw.Close()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.done <- nil
				return
			}
			if !isTemplateFile(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(w.Delay)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.done <- nil
				return
			}
			w.Logger.Warn("watch error", zap.Error(err))
		case <-timer.C:
			n, err := w.Registry.Reload()
			if err != nil {
				w.Logger.Error("template reload failed, keeping previous set", zap.Error(err))
			}
			if w.OnReload != nil {
				w.OnReload(n, err)
			}
		}
	}
}
