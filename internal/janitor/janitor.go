// Package janitor periodically removes upload files left behind by
// requests that never reached their cleanup, such as after a crash.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor wraps robfig/cron and sweeps one directory.
type Janitor struct {
	cron   *cron.Cron
	dir    string
	prefix string
	maxAge time.Duration
	spec   string // cron spec, e.g. "@every 30m"
	now    func() time.Time
	log    *slog.Logger
}

// New returns a janitor removing files named prefix* in dir once they are
// older than maxAge.
func New(dir, prefix string, maxAge time.Duration, spec string) *Janitor {
	return &Janitor{
		cron:   cron.New(),
		dir:    dir,
		prefix: prefix,
		maxAge: maxAge,
		spec:   spec,
		now:    time.Now,
		log:    slog.With("component", "janitor", "dir", dir),
	}
}

// Start registers the sweep and starts the scheduler.
func (j *Janitor) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		if _, err := j.Sweep(); err != nil {
			j.log.Error("sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	j.cron.Start()
	j.log.Info("janitor started", "spec", j.spec, "max_age", j.maxAge)
	return nil
}

// Stop stops the scheduler; the returned context is done once a running
// sweep has finished.
func (j *Janitor) Stop() context.Context {
	ctx := j.cron.Stop()
	j.log.Info("janitor stopped")
	return ctx
}

// Sweep removes stale files and returns how many it removed. A missing
// directory is not an error.
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}
	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), j.prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			j.log.Warn("could not remove stale upload", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		j.log.Info("stale uploads removed", "count", removed)
	}
	return removed, nil
}
