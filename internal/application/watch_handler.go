package application

import (
	"context"
	"fmt"
	"path/filepath"
)

// Watch tests the targets once, then again every time the watcher reports a change.
func (s *Service) Watch(ctx context.Context, opts TestOptions, watcher FileWatcher, callback WatchCallback) error {
	for _, target := range opts.Targets {
		abs, err := filepath.Abs(target)
		if err != nil {
			return err
		}
		if err := watcher.WatchDir(abs); err != nil {
			return fmt.Errorf("failed to watch directory: %w", err)
		}
	}

	runNumber := 1
	outcomes, runErr := s.Test(ctx, opts)
	if callback != nil {
		callback(runNumber, outcomes, runErr)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			outcomes, runErr := s.Test(ctx, opts)
			if callback != nil {
				callback(runNumber, outcomes, runErr)
			}
		}
	}
}
