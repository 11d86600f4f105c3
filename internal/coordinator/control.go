package coordinator

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ControlWatcher monitors the project's .maestro/control directory for
// operator signal files. Creating `pause` suspends scheduling, removing
// it (or creating `resume`) continues, and `drain` stops assignment so
// the run loop can exit once active tasks finish.
type ControlWatcher struct {
	controlDir string

	mu          sync.RWMutex
	pauseSignal bool
	drainSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewControlWatcher creates a watcher over projectPath/.maestro/control.
// If the fsnotify watcher cannot be established, signal checks fall back
// to polling the files directly.
func NewControlWatcher(projectPath string) (*ControlWatcher, error) {
	controlDir := filepath.Join(projectPath, ".maestro", "control")
	if err := os.MkdirAll(controlDir, 0755); err != nil {
		return nil, err
	}

	cw := &ControlWatcher{
		controlDir: controlDir,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - polling fallback covers it.
		return cw, nil
	}
	cw.watcher = watcher

	if err := watcher.Add(controlDir); err != nil {
		watcher.Close()
		cw.watcher = nil
		return cw, nil
	}

	go cw.watchSignals()
	return cw, nil
}

// watchSignals monitors the control directory for signal files.
func (cw *ControlWatcher) watchSignals() {
	for {
		select {
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			base := filepath.Base(event.Name)
			created := event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0

			cw.mu.Lock()
			switch {
			case base == "pause" && created:
				cw.pauseSignal = true
			case base == "pause" && event.Op&fsnotify.Remove != 0:
				cw.pauseSignal = false
			case base == "resume" && created:
				cw.pauseSignal = false
				os.Remove(filepath.Join(cw.controlDir, "pause"))
				os.Remove(filepath.Join(cw.controlDir, "resume"))
			case base == "drain" && created:
				cw.drainSignal = true
			}
			cw.mu.Unlock()
		case <-cw.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// ShouldPause returns true if a pause signal is active.
func (cw *ControlWatcher) ShouldPause() bool {
	// Also check the file directly in case the watcher missed it.
	if _, err := os.Stat(filepath.Join(cw.controlDir, "pause")); err == nil {
		cw.mu.Lock()
		cw.pauseSignal = true
		cw.mu.Unlock()
	}

	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.pauseSignal
}

// ShouldDrain returns true if a drain signal has been received.
func (cw *ControlWatcher) ShouldDrain() bool {
	if _, err := os.Stat(filepath.Join(cw.controlDir, "drain")); err == nil {
		cw.mu.Lock()
		cw.drainSignal = true
		cw.mu.Unlock()
	}

	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.drainSignal
}

// ClearSignals removes all signal files and resets signal state.
func (cw *ControlWatcher) ClearSignals() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.pauseSignal = false
	cw.drainSignal = false

	os.Remove(filepath.Join(cw.controlDir, "pause"))
	os.Remove(filepath.Join(cw.controlDir, "resume"))
	os.Remove(filepath.Join(cw.controlDir, "drain"))
}

// ControlDir returns the watched directory path.
func (cw *ControlWatcher) ControlDir() string {
	return cw.controlDir
}

// Close shuts down the watcher.
func (cw *ControlWatcher) Close() {
	close(cw.done)
	if cw.watcher != nil {
		cw.watcher.Close()
	}
}
