package reload

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/celestiaorg/reloader/internal/durable"
	"github.com/celestiaorg/reloader/internal/logger"
)

// Registry owns the in-memory jobs of one tracker generation. Every mutation
// is written to the durable store before the lock is released. A closed
// registry no longer writes, so a discarded generation cannot overwrite the
// state reconciled by its successor.
type Registry struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	active []string
	closed bool
	store  durable.Store
	keys   durable.Keys
}

// NewRegistry creates an empty registry persisting through store
func NewRegistry(store durable.Store, keys durable.Keys) *Registry {
	return &Registry{
		jobs:  make(map[string]*Job),
		store: store,
		keys:  keys,
	}
}

// Admit adds a new running job and records it in the active list
func (r *Registry) Admit(ctx context.Context, j *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.jobs[j.ID] = j
	r.saveLocked(ctx, j)
	r.addActiveLocked(j.ID)
	r.saveActiveLocked(ctx)
	return nil
}

// Close stops all further writes and releases the jobs held in memory
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.jobs = make(map[string]*Job)
	r.active = nil
}

// Readmit puts a job recovered from the durable store back under tracking
func (r *Registry) Readmit(ctx context.Context, j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if _, ok := r.jobs[j.ID]; ok {
		return
	}
	r.jobs[j.ID] = j
	if !j.Status.Terminal() && r.addActiveLocked(j.ID) {
		r.saveActiveLocked(ctx)
	}
}

// Get returns a copy of the job with the given id
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	return j.clone(), true
}

// Drop removes a job from memory. Its snapshot stays in the durable store.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Len returns the number of jobs held in memory
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Update applies fn to one job and snapshots it when fn reports a change
func (r *Registry) Update(ctx context.Context, id string, fn func(j *Job) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	j, ok := r.jobs[id]
	if !ok {
		return false
	}
	wasRunning := !j.Status.Terminal()
	if !fn(j) {
		return true
	}
	r.saveLocked(ctx, j)
	if wasRunning && j.Status.Terminal() {
		r.removeActiveLocked(j.ID)
		r.saveActiveLocked(ctx)
	}
	return true
}

// EachRunning applies fn to every running job. Jobs fn reports as changed are
// snapshotted, and jobs it finished leave the active list.
func (r *Registry) EachRunning(ctx context.Context, fn func(j *Job) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	activeChanged := false
	for _, j := range r.jobs {
		if j.Status.Terminal() {
			continue
		}
		if !fn(j) {
			continue
		}
		r.saveLocked(ctx, j)
		if j.Status.Terminal() {
			r.removeActiveLocked(j.ID)
			activeChanged = true
		}
	}
	if activeChanged {
		r.saveActiveLocked(ctx)
	}
}

// Active returns the ids believed to be running
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.active...)
}

// restore replaces the active list. Only used by reconciliation before the
// registry is shared.
func (r *Registry) restore(ctx context.Context, jobs []*Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.active = r.active[:0]
	for _, j := range jobs {
		r.jobs[j.ID] = j
		r.addActiveLocked(j.ID)
	}
	r.saveActiveLocked(ctx)
}

func (r *Registry) addActiveLocked(id string) bool {
	for _, a := range r.active {
		if a == id {
			return false
		}
	}
	r.active = append(r.active, id)
	return true
}

func (r *Registry) removeActiveLocked(id string) {
	for i, a := range r.active {
		if a == id {
			r.active = append(r.active[:i:i], r.active[i+1:]...)
			return
		}
	}
}

func (r *Registry) saveLocked(ctx context.Context, j *Job) {
	if err := saveJob(ctx, r.store, r.keys, j); err != nil {
		logger.Errorf("reload: failed to snapshot job %s: %v", j.ID, err)
	}
}

func (r *Registry) saveActiveLocked(ctx context.Context) {
	if err := saveActive(ctx, r.store, r.keys, r.active); err != nil {
		logger.Errorf("reload: failed to persist active jobs: %v", err)
	}
}

func saveJob(ctx context.Context, store durable.Store, keys durable.Keys, j *Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return store.Set(ctx, keys.Job(j.ID), string(data))
}

// loadJob reads a job snapshot. A missing key returns nil with no error.
func loadJob(ctx context.Context, store durable.Store, keys durable.Keys, id string) (*Job, error) {
	raw, ok, err := store.Get(ctx, keys.Job(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	var j Job
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return &j, nil
}

func saveActive(ctx context.Context, store durable.Store, keys durable.Keys, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode active jobs: %w", err)
	}
	return store.Set(ctx, keys.ActiveJobs(), string(data))
}

func loadActive(ctx context.Context, store durable.Store, keys durable.Keys) ([]string, error) {
	raw, ok, err := store.Get(ctx, keys.ActiveJobs())
	if err != nil {
		return nil, fmt.Errorf("failed to read active jobs: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode active jobs: %w", err)
	}
	return ids, nil
}
