package watcher

import (
	"context"
	"os"
	"sync"
	"time"
)

// PollingWatcher detects changes to a fixed set of files by comparing
// size and modification time on every tick.
type PollingWatcher struct {
	interval time.Duration
	paths    []string

	mu      sync.Mutex
	state   map[string]fileSnapshot
	events  chan FileEvent
	stopCh  chan struct{}
	stopped bool
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	exists  bool
}

// NewPollingWatcher creates a polling watcher over paths.
func NewPollingWatcher(paths []string, interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval: interval,
		paths:    append([]string(nil), paths...),
		state:    make(map[string]fileSnapshot, len(paths)),
		events:   make(chan FileEvent, 16),
		stopCh:   make(chan struct{}),
	}
}

// Start records a baseline and polls until ctx is done or Stop is called.
func (p *PollingWatcher) Start(ctx context.Context) error {
	p.mu.Lock()
	for _, path := range p.paths {
		p.state[path] = statFile(path)
	}
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.poll()
		}
	}
}

// Stop stops polling and closes the event channel. Safe to call multiple
// times.
func (p *PollingWatcher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

func (p *PollingWatcher) poll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	for _, path := range p.paths {
		prev := p.state[path]
		cur := statFile(path)
		p.state[path] = cur

		var op Operation
		switch {
		case !prev.exists && cur.exists:
			op = OpCreate
		case prev.exists && !cur.exists:
			op = OpDelete
		case cur.exists && (prev.size != cur.size || !prev.modTime.Equal(cur.modTime)):
			op = OpModify
		default:
			continue
		}

		select {
		case p.events <- FileEvent{Path: path, Operation: op, Timestamp: time.Now()}:
		default:
		}
	}
}

func statFile(path string) fileSnapshot {
	info, err := os.Stat(path)
	if err != nil {
		return fileSnapshot{}
	}
	return fileSnapshot{modTime: info.ModTime(), size: info.Size(), exists: true}
}
