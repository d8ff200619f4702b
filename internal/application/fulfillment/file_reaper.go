package fulfillment

import (
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultFileGracePeriod is how long a local receipt outlives its pipeline run
const DefaultFileGracePeriod = 30 * time.Second

// FileReaper deletes local files after a delay
type FileReaper struct {
	delay  time.Duration
	remove func(string) error
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewFileReaper creates a FileReaper. delay <= 0 uses DefaultFileGracePeriod.
func NewFileReaper(delay time.Duration, logger *zap.Logger) *FileReaper {
	if delay <= 0 {
		delay = DefaultFileGracePeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileReaper{
		delay:   delay,
		remove:  os.Remove,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}
}

// Schedule deletes path once the delay elapses. Rescheduling a pending
// path restarts its delay.
func (r *FileReaper) Schedule(path string) {
	if path == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.pending[path]; ok && t.Stop() {
		r.wg.Done()
	}
	r.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(r.delay, func() {
		defer r.wg.Done()
		r.mu.Lock()
		if r.pending[path] == timer {
			delete(r.pending, path)
		}
		r.mu.Unlock()
		r.delete(path)
	})
	r.pending[path] = timer
}

// Flush deletes every pending file now. Used on shutdown.
func (r *FileReaper) Flush() {
	r.mu.Lock()
	var paths []string
	for path, t := range r.pending {
		if t.Stop() {
			paths = append(paths, path)
			r.wg.Done()
		}
		delete(r.pending, path)
	}
	r.mu.Unlock()

	for _, path := range paths {
		r.delete(path)
	}
	r.wg.Wait()
}

// Pending returns the number of scheduled deletions
func (r *FileReaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *FileReaper) delete(path string) {
	if err := r.remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("Failed to delete temporary file",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	r.logger.Debug("Temporary file deleted", zap.String("path", path))
}
