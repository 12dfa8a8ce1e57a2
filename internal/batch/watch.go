package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch runs the batch once, then again each time the input file is written
// or recreated, until ctx is cancelled. The parent directory is watched so
// saves that rename a temp file over the input are seen. Failed runs are
// logged and the previous output is left in place.
func (r *Runner) Watch(ctx context.Context, input string) error {
	if input == "" || input == "-" {
		return fmt.Errorf("watch requires an input file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(input)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch input: %w", err)
	}

	r.runLogged(ctx, input)
	r.logger.Info("watching input", zap.String("input", input))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			r.runLogged(ctx, input)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (r *Runner) runLogged(ctx context.Context, input string) {
	if err := r.Run(ctx, input); err != nil {
		r.logger.Error("batch failed, keeping previous output", zap.String("input", input), zap.Error(err))
	}
}
