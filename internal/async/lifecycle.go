// Package async tracks the knowledge base load lifecycle and runs reloads
// in the background.
package async

import (
	"sync"
	"time"
)

// State is the knowledge base lifecycle state.
type State string

const (
	// StateUnloaded means no load has been attempted.
	StateUnloaded State = "unloaded"
	// StateLoading means a build is in progress.
	StateLoading State = "loading"
	// StateReady means a snapshot is published and servable.
	StateReady State = "ready"
	// StateFailed means the initial load failed; only an explicit reload
	// leaves this state.
	StateFailed State = "failed"
)

// Stage is the current step of a build.
type Stage string

const (
	StageReading    Stage = "reading"
	StageIndexing   Stage = "indexing"
	StageCataloging Stage = "cataloging"
)

// LifecycleSnapshot is an immutable copy of the lifecycle state.
type LifecycleSnapshot struct {
	State       State     `json:"state"`
	Stage       Stage     `json:"stage,omitempty"`
	Servable    bool      `json:"servable"`
	Generation  uint64    `json:"generation"`
	Documents   int       `json:"documents"`
	Loads       int       `json:"loads"`
	Failures    int       `json:"failures"`
	LastError   string    `json:"last_error,omitempty"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
	LastBuildMs int64     `json:"last_build_ms"`
}

// Lifecycle is the thread-safe load state machine:
//
//	unloaded -> loading -> ready | failed
//	ready    -> loading -> ready            (a failed reload keeps the old snapshot)
//	failed   -> loading -> ready | failed
//
// Cancelled builds return to the state they started from.
type Lifecycle struct {
	mu sync.RWMutex

	state      State
	prev       State
	stage      Stage
	servable   bool
	generation uint64
	documents  int
	loads      int
	failures   int
	lastErr    string
	loadedAt   time.Time
	started    time.Time
	lastBuild  time.Duration
}

// NewLifecycle creates a lifecycle in the unloaded state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateUnloaded}
}

// BeginLoad enters the loading state.
func (l *Lifecycle) BeginLoad() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateLoading {
		l.prev = l.state
	}
	l.state = StateLoading
	l.stage = StageReading
	l.started = time.Now()
}

// SetStage records the current build step.
func (l *Lifecycle) SetStage(stage Stage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stage = stage
}

// Ready records a published snapshot.
func (l *Lifecycle) Ready(generation uint64, documents int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = StateReady
	l.stage = ""
	l.servable = true
	l.generation = generation
	l.documents = documents
	l.loads++
	l.lastErr = ""
	l.loadedAt = time.Now()
	l.lastBuild = time.Since(l.started)
}

// Fail records a failed build. With a servable snapshot the state returns
// to ready; otherwise it becomes failed.
func (l *Lifecycle) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures++
	if err != nil {
		l.lastErr = err.Error()
	}
	l.stage = ""
	l.lastBuild = time.Since(l.started)
	if l.servable {
		l.state = StateReady
		return
	}
	l.state = StateFailed
}

// Abort records a cancelled build, restoring the state it started from.
func (l *Lifecycle) Abort() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stage = ""
	if l.state == StateLoading {
		l.state = l.prev
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsServable reports whether a snapshot has ever been published.
func (l *Lifecycle) IsServable() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.servable
}

// Snapshot returns an immutable copy of the current state.
func (l *Lifecycle) Snapshot() LifecycleSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return LifecycleSnapshot{
		State:       l.state,
		Stage:       l.stage,
		Servable:    l.servable,
		Generation:  l.generation,
		Documents:   l.documents,
		Loads:       l.loads,
		Failures:    l.failures,
		LastError:   l.lastErr,
		LoadedAt:    l.loadedAt,
		LastBuildMs: l.lastBuild.Milliseconds(),
	}
}
