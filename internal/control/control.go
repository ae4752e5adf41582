// Package control handles operator signal files for in-flight workflows.
// An operator can halt a run between task batches by creating a signal file,
// and can steer agents by editing a guidance file that is folded into task
// context when a workflow is assembled.
package control

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// DirName is the control directory created under the working directory.
	DirName = ".troupe"

	signalsDir   = "signals"
	haltFile     = "halt"
	guidanceFile = "guidance.md"
)

// Signals watches the control directory for operator signals.
type Signals struct {
	root string

	mu     sync.RWMutex
	halted bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Open prepares the control directory under dir and starts watching for
// signals. The watcher is best-effort; ShouldHalt also checks the signal
// file directly, so a failed watcher only adds latency, never misses.
func Open(dir string) (*Signals, error) {
	root := filepath.Join(dir, DirName)
	if err := os.MkdirAll(filepath.Join(root, signalsDir), 0755); err != nil {
		return nil, err
	}

	s := &Signals{
		root: root,
		done: make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return s, nil
	}
	if err := watcher.Add(filepath.Join(root, signalsDir)); err != nil {
		watcher.Close()
		return s, nil
	}
	s.watcher = watcher
	go s.watch()

	return s, nil
}

// watch flips the halt flag as soon as the signal file appears.
func (s *Signals) watch() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == haltFile &&
				(event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				s.mu.Lock()
				s.halted = true
				s.mu.Unlock()
			}
		case <-s.watcher.Errors:
			// Keep watching.
		}
	}
}

// ShouldHalt returns true once a halt signal has been received. It also
// stats the signal file directly in case the watcher missed the event.
func (s *Signals) ShouldHalt() bool {
	if _, err := os.Stat(filepath.Join(s.root, signalsDir, haltFile)); err == nil {
		s.mu.Lock()
		s.halted = true
		s.mu.Unlock()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.halted
}

// Halt creates the halt signal file.
func (s *Signals) Halt() error {
	path := filepath.Join(s.root, signalsDir, haltFile)
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes signal files and resets the halt state.
func (s *Signals) Clear() {
	s.mu.Lock()
	s.halted = false
	s.mu.Unlock()

	os.Remove(filepath.Join(s.root, signalsDir, haltFile))
}

// Guidance returns the operator guidance text, or empty when none exists.
func (s *Signals) Guidance() string {
	content, err := os.ReadFile(filepath.Join(s.root, guidanceFile))
	if err != nil {
		return ""
	}
	return string(content)
}

// SetGuidance writes the operator guidance file. Empty text removes it.
func (s *Signals) SetGuidance(text string) error {
	path := filepath.Join(s.root, guidanceFile)
	if strings.TrimSpace(text) == "" {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}

// Dir returns the control directory path.
func (s *Signals) Dir() string {
	return s.root
}

// Close stops the watcher.
func (s *Signals) Close() {
	close(s.done)
	if s.watcher != nil {
		s.watcher.Close()
	}
}
