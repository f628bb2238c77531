// watch.go - Watch and schedule modes: repeat the decode job
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// settleDelay is how long a file must stay unchanged before it is decoded
const settleDelay = 500 * time.Millisecond

// watch decodes every file created or written in cfg.Watch until ctx is
// done. Events for the same file are coalesced.
func watch(ctx context.Context, cfg Config, out io.Writer, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir, err := filepath.Abs(cfg.Watch)
	if err != nil {
		return fmt.Errorf("watch %s: %w", cfg.Watch, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching directory", "dir", dir)

	var (
		mu     sync.Mutex // serializes jobs writing to out
		wg     sync.WaitGroup
		timers = make(map[string]*time.Timer)
	)
	defer func() {
		for _, t := range timers {
			if t.Stop() {
				wg.Done()
			}
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path := event.Name
			if !isDataFile(path) {
				continue
			}
			if t, exists := timers[path]; exists && t.Stop() {
				wg.Done()
			}
			wg.Add(1)
			timers[path] = time.AfterFunc(settleDelay, func() {
				defer wg.Done()
				mu.Lock()
				defer mu.Unlock()
				logger.Info("file changed", "path", path)
				if _, err := decode(ctx, cfg, path, out, logger); err != nil {
					logger.Error("decode failed", "path", path, "err", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "err", err)
		}
	}
}

// isDataFile skips hidden and temporary files
func isDataFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// schedule decodes cfg.Data on the cron expression cfg.Schedule until ctx
// is done
func schedule(ctx context.Context, cfg Config, out io.Writer, logger *slog.Logger) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(cfg.Schedule, func() {
		logger.Info("scheduled run", "data", cfg.Data)
		if _, err := decode(ctx, cfg, cfg.Data, out, logger); err != nil {
			logger.Error("decode failed", "data", cfg.Data, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	c.Start()
	logger.Info("schedule started", "expr", cfg.Schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("schedule stopped")
	return nil
}
