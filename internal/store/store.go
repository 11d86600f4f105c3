// Package store owns task records and their status transitions.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maestro-sh/maestro/internal/graph"
	"github.com/maestro-sh/maestro/pkg/models"
)

var (
	// ErrUnknownTask indicates an operation on a task ID that does not exist.
	ErrUnknownTask = errors.New("unknown task")
	// ErrInvalidTransition indicates a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid task status transition")
	// ErrTaskNotPending indicates a synchronous cancel of a task that has
	// already been assigned.
	ErrTaskNotPending = errors.New("task is not pending")
)

// CreateParams are the caller-supplied fields of a new task.
type CreateParams struct {
	Title                string
	Description          string
	Priority             models.TaskPriority
	Dependencies         []string
	RequiredCapabilities []string
}

// Store provides thread-safe storage of task records. All accessors return
// clones so callers cannot mutate internal state.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
	// seq is the insertion counter used for FIFO tie-break; it orders
	// tasks created in the same wall-clock instant.
	seq uint64
	// attemptAt tracks when the current execution attempt began, keyed by
	// task ID. Unlike Task.StartedAt it resets on retry, so the timeout
	// sweep measures the attempt, not the task's lifetime.
	attemptAt map[string]time.Time
	now       func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		tasks:     make(map[string]*models.Task),
		attemptAt: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetClock replaces the store's clock. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create generates a task record and stores it pending.
func (s *Store) Create(p CreateParams) (*models.Task, error) {
	if p.Title == "" {
		return nil, fmt.Errorf("create task: empty title")
	}
	if !p.Priority.Valid() {
		return nil, fmt.Errorf("create task: invalid priority %d", p.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	task := &models.Task{
		ID:                   uuid.New().String(),
		Title:                p.Title,
		Description:          p.Description,
		Priority:             p.Priority,
		Status:               models.TaskStatusPending,
		Dependencies:         append([]string(nil), p.Dependencies...),
		RequiredCapabilities: append([]string(nil), p.RequiredCapabilities...),
		CreatedAt:            s.now(),
		Seq:                  s.seq,
	}
	s.tasks[task.ID] = task
	return task.Clone(), nil
}

// Get retrieves a task by ID.
func (s *Store) Get(taskID string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	return t.Clone(), nil
}

// Ready returns the pending tasks whose dependencies are all completed,
// ordered by priority descending, creation sequence ascending. A pending
// task with a missing or uncompleted dependency is simply not ready; it is
// never dropped.
func (s *Store) Ready() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ready []*models.Task
	for _, t := range s.tasks {
		if t.Status != models.TaskStatusPending {
			continue
		}
		if !s.depsCompletedLocked(t) {
			continue
		}
		ready = append(ready, t.Clone())
	}

	sort.Slice(ready, func(i, j int) bool { return models.Less(ready[i], ready[j]) })
	return ready
}

func (s *Store) depsCompletedLocked(t *models.Task) bool {
	for _, depID := range t.Dependencies {
		dep, ok := s.tasks[depID]
		if !ok || dep.Status != models.TaskStatusCompleted {
			return false
		}
	}
	return true
}

// Assign moves a pending task to assigned and binds it to an agent.
// StartedAt is set on the first assignment only; the per-attempt clock
// resets every time.
func (s *Store) Assign(taskID, agentID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	if !t.Status.CanTransition(models.TaskStatusAssigned) {
		return nil, fmt.Errorf("task %s: %s -> assigned: %w", taskID, t.Status, ErrInvalidTransition)
	}

	now := s.now()
	t.Status = models.TaskStatusAssigned
	t.AssignedAgent = agentID
	if t.StartedAt == nil {
		started := now
		t.StartedAt = &started
	}
	s.attemptAt[taskID] = now
	return t.Clone(), nil
}

// Start moves an assigned task to in_progress, reflecting the worker's
// first progress report.
func (s *Store) Start(taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	if t.Status != models.TaskStatusAssigned {
		return nil, fmt.Errorf("task %s: %s -> in_progress: %w", taskID, t.Status, ErrInvalidTransition)
	}

	t.Status = models.TaskStatusInProgress
	return t.Clone(), nil
}

// Complete moves an assigned or in-progress task to completed with its
// result payload and releases the agent binding.
func (s *Store) Complete(taskID, result string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	if !t.Status.CanTransition(models.TaskStatusCompleted) {
		return nil, fmt.Errorf("task %s: %s -> completed: %w", taskID, t.Status, ErrInvalidTransition)
	}

	completed := s.now()
	t.Status = models.TaskStatusCompleted
	t.CompletedAt = &completed
	t.Result = result
	t.Error = ""
	t.AssignedAgent = ""
	t.CancelRequested = false
	delete(s.attemptAt, taskID)
	return t.Clone(), nil
}

// Unassign reverts an assigned task to pending without counting an
// execution attempt. Used when the agent binding could not be completed.
func (s *Store) Unassign(taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	if t.Status != models.TaskStatusAssigned {
		return nil, fmt.Errorf("task %s: %s -> pending: %w", taskID, t.Status, ErrInvalidTransition)
	}

	t.Status = models.TaskStatusPending
	t.AssignedAgent = ""
	delete(s.attemptAt, taskID)
	return t.Clone(), nil
}

// Fail records a failed execution attempt. Only tasks that are actually
// executing (assigned or in_progress) can report a failure; a pending task
// has no attempt to count, and cancellation of pending tasks goes through
// CancelPending. The retry count is incremented; below maxRetries the task
// is reset to pending and re-enters the scheduling pool, otherwise it
// becomes terminally failed with the error payload. Returns the updated
// task and whether it was requeued.
func (s *Store) Fail(taskID, errMsg string, maxRetries int) (*models.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, false, fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	if t.Status != models.TaskStatusAssigned && t.Status != models.TaskStatusInProgress {
		return nil, false, fmt.Errorf("task %s: %s -> failed: %w", taskID, t.Status, ErrInvalidTransition)
	}

	t.RetryCount++
	t.AssignedAgent = ""
	delete(s.attemptAt, taskID)

	if t.RetryCount < maxRetries && !t.CancelRequested {
		t.Status = models.TaskStatusPending
		return t.Clone(), true, nil
	}

	completed := s.now()
	t.Status = models.TaskStatusFailed
	t.CompletedAt = &completed
	t.Error = errMsg
	t.Result = ""
	return t.Clone(), false, nil
}

// CancelPending synchronously cancels a task that has not been assigned
// yet. The task becomes terminally failed with a cancellation payload and
// never re-enters the pool.
func (s *Store) CancelPending(taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	if t.Status != models.TaskStatusPending {
		return nil, fmt.Errorf("task %s (%s): %w", taskID, t.Status, ErrTaskNotPending)
	}

	completed := s.now()
	t.Status = models.TaskStatusFailed
	t.CompletedAt = &completed
	t.Error = "task cancelled"
	return t.Clone(), nil
}

// RequestCancel marks an assigned or in-progress task for cooperative
// cancellation. The worker's completion/failure report, or the timeout
// sweep, closes the loop.
func (s *Store) RequestCancel(taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	if t.Status != models.TaskStatusAssigned && t.Status != models.TaskStatusInProgress {
		return nil, fmt.Errorf("task %s (%s): cancel requires an active task: %w", taskID, t.Status, ErrInvalidTransition)
	}

	t.CancelRequested = true
	return t.Clone(), nil
}

// Overdue returns tasks that have been assigned or in progress for longer
// than timeout, measured from the start of the current attempt.
func (s *Store) Overdue(timeout time.Duration) []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var overdue []*models.Task
	for id, t := range s.tasks {
		if t.Status != models.TaskStatusAssigned && t.Status != models.TaskStatusInProgress {
			continue
		}
		attempt, ok := s.attemptAt[id]
		if !ok {
			continue
		}
		if now.Sub(attempt) >= timeout {
			overdue = append(overdue, t.Clone())
		}
	}

	sort.Slice(overdue, func(i, j int) bool { return overdue[i].Seq < overdue[j].Seq })
	return overdue
}

// Unsatisfiable returns the pending tasks that can never become ready,
// mapped to the dependency IDs blocking them forever: missing IDs,
// cycle members, and dependencies that failed terminally.
func (s *Store) Unsatisfiable() map[string][]string {
	s.mu.RLock()
	tasks := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t.Clone())
	}
	s.mu.RUnlock()

	g := graph.New()
	g.Build(tasks)
	stuck := g.Unsatisfiable()

	// Structural analysis cannot see statuses: a dependency that exists
	// and is acyclic but failed terminally also never completes.
	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	for _, t := range tasks {
		if t.Status != models.TaskStatusPending {
			continue
		}
		for _, depID := range t.Dependencies {
			dep, ok := byID[depID]
			if ok && dep.Status == models.TaskStatusFailed {
				stuck[t.ID] = append(stuck[t.ID], depID)
			}
		}
	}

	for id := range stuck {
		if t, ok := byID[id]; !ok || t.Status != models.TaskStatusPending {
			delete(stuck, id)
		}
	}
	return stuck
}

// ActiveTaskForAgent returns the assigned or in-progress task bound to
// the given agent, or nil if there is none.
func (s *Store) ActiveTaskForAgent(agentID string) *models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.AssignedAgent != agentID {
			continue
		}
		if t.Status == models.TaskStatusAssigned || t.Status == models.TaskStatusInProgress {
			return t.Clone()
		}
	}
	return nil
}

// All returns a clone of every task, ordered by creation sequence.
func (s *Store) All() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t.Clone())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Seq < tasks[j].Seq })
	return tasks
}

// QueueDepth returns the number of pending tasks.
func (s *Store) QueueDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	depth := 0
	for _, t := range s.tasks {
		if t.Status == models.TaskStatusPending {
			depth++
		}
	}
	return depth
}

// Count returns the total number of tasks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
