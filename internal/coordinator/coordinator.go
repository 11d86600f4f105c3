package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maestro-sh/maestro/internal/bus"
	"github.com/maestro-sh/maestro/internal/notify"
	"github.com/maestro-sh/maestro/internal/registry"
	"github.com/maestro-sh/maestro/internal/store"
	"github.com/maestro-sh/maestro/pkg/models"
)

// ErrAgentLimit indicates the configured agent pool is full.
var ErrAgentLimit = errors.New("agent limit reached")

// Config contains the coordinator's scheduling parameters.
type Config struct {
	// MaxAgents caps the number of registered agents. Zero means no cap.
	MaxAgents int
	// MaxTaskRetries is the number of execution attempts before a task
	// fails permanently.
	MaxTaskRetries int
	// TaskTimeout is how long a task may stay assigned or in progress
	// before the attempt is treated as a failure.
	TaskTimeout time.Duration
	// TickInterval is the idle interval between automatic scheduling
	// ticks.
	TickInterval time.Duration
	// HealthCheckInterval is how often the timeout sweep runs.
	HealthCheckInterval time.Duration
	// AutoAssign toggles the automatic scheduling loop. When false,
	// ticks happen only when ScheduleTick is called.
	AutoAssign bool
	// MessageRetention is how long bus messages are kept.
	MessageRetention time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets the lifecycle event sink.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithEventBuffer sets the emitter buffer size.
func WithEventBuffer(size int) Option {
	return func(c *Coordinator) { c.emitter = NewEmitter(size) }
}

// WithControl attaches an operator signal watcher to the run loop.
func WithControl(cw *ControlWatcher) Option {
	return func(c *Coordinator) { c.control = cw }
}

// Coordinator matches ready tasks to idle, capable agents and tracks the
// lifecycle of both. All mutating operations are serialized by a single
// mutex, so a combined task+agent transition is observed atomically;
// notification happens strictly outside that critical section.
type Coordinator struct {
	cfg Config

	// mu serializes every mutating operation across the task store and
	// agent registry.
	mu       sync.Mutex
	tasks    *store.Store
	agents   *registry.Registry
	messages *bus.Bus

	emitter  *Emitter
	notifier notify.Notifier
	logger   *DebugLogger

	// wake nudges the scheduling loop after a mutation. Buffer of one:
	// concurrent wakes coalesce into a single tick.
	wake chan struct{}

	control *ControlWatcher

	runMu   sync.Mutex
	running bool
}

// New creates a Coordinator with empty state.
func New(cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		tasks:    store.New(),
		agents:   registry.New(),
		messages: bus.New(cfg.MessageRetention),
		emitter:  NewEmitter(256),
		notifier: notify.Nop{},
		logger:   NopLogger(),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tasks exposes the task store for read-only inspection.
func (c *Coordinator) Tasks() *store.Store { return c.tasks }

// Agents exposes the agent registry for read-only inspection.
func (c *Coordinator) Agents() *registry.Registry { return c.agents }

// Events returns the lifecycle event channel for subscribers.
func (c *Coordinator) Events() <-chan Event {
	return c.emitter.Events()
}

// RegisterAgent adds an agent to the pool and emits agent_registered.
func (c *Coordinator) RegisterAgent(a *models.Agent) error {
	c.mu.Lock()
	if c.cfg.MaxAgents > 0 && c.agents.Count() >= c.cfg.MaxAgents {
		c.mu.Unlock()
		return fmt.Errorf("register agent %s: %w", a.ID, ErrAgentLimit)
	}
	err := c.agents.Register(a)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.logger.Log("[coordinator] registered agent %s (%s)", a.ID, a.Role)
	c.emit(EventAgentRegistered, notify.Payload{
		"agent_id":     a.ID,
		"agent_name":   a.Name,
		"role":         a.Role,
		"capabilities": a.Capabilities,
	})
	c.wakeScheduler()
	return nil
}

// CreateTask validates, stores, and enqueues a task, and emits
// task_created.
func (c *Coordinator) CreateTask(p store.CreateParams) (*models.Task, error) {
	c.mu.Lock()
	task, err := c.tasks.Create(p)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.logger.Log("[coordinator] created task %s %q (priority: %s)", task.ID, task.Title, task.Priority)
	c.emit(EventTaskCreated, notify.Payload{
		"task_id":      task.ID,
		"title":        task.Title,
		"description":  task.Description,
		"priority":     int(task.Priority),
		"status":       string(task.Status),
		"dependencies": task.Dependencies,
	})
	c.wakeScheduler()
	return task, nil
}

// ScheduleTick runs one pass of the matching algorithm: ready tasks in
// priority order, each offered to the longest-idle capable agent.
// Returns the number of assignments made.
func (c *Coordinator) ScheduleTick() int {
	c.mu.Lock()

	var assigned []*models.Task
	for _, task := range c.tasks.Ready() {
		candidates := c.agents.FindIdleWithCapabilities(task.RequiredCapabilities)
		if len(candidates) == 0 {
			// Not an error: the task stays pending and is retried on
			// the next tick.
			continue
		}
		agent := candidates[0]

		t, err := c.tasks.Assign(task.ID, agent.ID)
		if err != nil {
			c.logger.Log("[coordinator] assign %s: %v", task.ID, err)
			continue
		}
		if err := c.agents.Transition(agent.ID, models.AgentStatusWorking, task.ID); err != nil {
			// Roll the task back so no state observes a half match.
			c.logger.Log("[coordinator] agent %s transition failed, rolling back task %s: %v", agent.ID, task.ID, err)
			if _, rbErr := c.tasks.Unassign(task.ID); rbErr != nil {
				c.logger.Log("[coordinator] rollback of task %s failed: %v", task.ID, rbErr)
			}
			continue
		}
		assigned = append(assigned, t)
	}
	c.mu.Unlock()

	for _, t := range assigned {
		c.logger.Log("[coordinator] assigned task %s to agent %s", t.ID, t.AssignedAgent)
		c.emit(EventTaskAssigned, notify.Payload{
			"task_id":  t.ID,
			"title":    t.Title,
			"agent_id": t.AssignedAgent,
		})
	}
	return len(assigned)
}

// MarkTaskInProgress records the worker's first progress report, moving
// the task from assigned to in_progress.
func (c *Coordinator) MarkTaskInProgress(taskID string) error {
	c.mu.Lock()
	task, err := c.tasks.Start(taskID)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.emit(EventTaskStarted, notify.Payload{
		"task_id":  task.ID,
		"agent_id": task.AssignedAgent,
	})
	return nil
}

// CompleteTask records a successful execution: the task becomes
// completed with its result payload and the agent cycles back to idle.
func (c *Coordinator) CompleteTask(taskID, result string) error {
	c.mu.Lock()
	before, err := c.tasks.Get(taskID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	agentID := before.AssignedAgent

	task, err := c.tasks.Complete(taskID, result)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.releaseAgentLocked(agentID, models.AgentStatusCompleted)
	c.mu.Unlock()

	c.logger.Log("[coordinator] task %s completed by agent %s", taskID, agentID)
	c.emit(EventTaskCompleted, notify.Payload{
		"task_id":  task.ID,
		"agent_id": agentID,
		"result":   task.Result,
	})
	c.wakeScheduler()
	return nil
}

// FailTask records a failed execution attempt. Below the retry budget
// the task re-enters the scheduling pool; otherwise it fails permanently.
// Either way the agent cycles back to idle.
func (c *Coordinator) FailTask(taskID, errMsg string) error {
	c.mu.Lock()
	before, err := c.tasks.Get(taskID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	agentID := before.AssignedAgent

	task, requeued, err := c.tasks.Fail(taskID, errMsg, c.cfg.MaxTaskRetries)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.releaseAgentLocked(agentID, models.AgentStatusError)
	c.mu.Unlock()

	c.logger.Log("[coordinator] task %s failed (attempt %d, requeued: %t): %s", taskID, task.RetryCount, requeued, errMsg)
	c.emit(EventTaskFailed, notify.Payload{
		"task_id":     task.ID,
		"agent_id":    agentID,
		"error":       errMsg,
		"retry_count": task.RetryCount,
		"requeued":    requeued,
	})
	c.wakeScheduler()
	return nil
}

// releaseAgentLocked cycles an agent out of working through the given
// intermediate status back to idle. Callers hold c.mu.
func (c *Coordinator) releaseAgentLocked(agentID string, via models.AgentStatus) {
	if agentID == "" {
		return
	}
	if err := c.agents.Transition(agentID, via, ""); err != nil {
		c.logger.Log("[coordinator] release agent %s via %s: %v", agentID, via, err)
		return
	}
	if err := c.agents.Transition(agentID, models.AgentStatusIdle, ""); err != nil {
		c.logger.Log("[coordinator] release agent %s to idle: %v", agentID, err)
	}
}

// CancelTask cancels a task. A pending task is removed from the pool
// synchronously; an assigned or in-progress task is only marked, and the
// worker's report or the timeout sweep closes the loop.
func (c *Coordinator) CancelTask(taskID string) error {
	c.mu.Lock()
	before, err := c.tasks.Get(taskID)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if before.Status == models.TaskStatusPending {
		task, err := c.tasks.CancelPending(taskID)
		c.mu.Unlock()
		if err != nil {
			return err
		}
		c.emit(EventTaskCancelled, notify.Payload{"task_id": task.ID})
		return nil
	}

	task, err := c.tasks.RequestCancel(taskID)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.emit(EventTaskCancelRequested, notify.Payload{
		"task_id":  task.ID,
		"agent_id": task.AssignedAgent,
	})
	return nil
}

// BlockAgent records that an agent is blocked on external input.
func (c *Coordinator) BlockAgent(agentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agents.Transition(agentID, models.AgentStatusWaiting, "")
}

// ResumeAgent unblocks a waiting agent, rebinding it to its active task.
func (c *Coordinator) ResumeAgent(agentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	task := c.tasks.ActiveTaskForAgent(agentID)
	if task == nil {
		return fmt.Errorf("resume agent %s: no active task: %w", agentID, store.ErrUnknownTask)
	}
	return c.agents.Transition(agentID, models.AgentStatusWorking, task.ID)
}

// PostMessage appends a message to the inter-agent log.
func (c *Coordinator) PostMessage(fromAgent, toAgent, messageType, content, taskID string) models.Message {
	return c.messages.Post(fromAgent, toAgent, messageType, content, taskID)
}

// MessagesSince returns the messages addressed to an agent since the
// given time, in append order.
func (c *Coordinator) MessagesSince(agentID string, since time.Time) []models.Message {
	return c.messages.Since(agentID, since)
}

// Snapshot is a read-only view of the coordinator's state.
type Snapshot struct {
	// Agents is every registered agent.
	Agents []*models.Agent `json:"agents"`
	// Tasks is every task, in creation order.
	Tasks []*models.Task `json:"tasks"`
	// QueueDepth is the number of pending tasks.
	QueueDepth int `json:"queue_depth"`
	// MessageCount is the number of retained bus messages.
	MessageCount int `json:"message_count"`
	// Running reports whether the scheduling loop is active.
	Running bool `json:"running"`
}

// Status returns a snapshot of all agents, tasks, queue depth, and
// message count. It never mutates state or triggers a tick. The
// collection happens under the coordinator lock so the agent and task
// views are mutually consistent: a task the snapshot shows as assigned
// always has its agent shown as working on it.
func (c *Coordinator) Status() Snapshot {
	c.runMu.Lock()
	running := c.running
	c.runMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Agents:       c.agents.All(),
		Tasks:        c.tasks.All(),
		QueueDepth:   c.tasks.QueueDepth(),
		MessageCount: c.messages.Count(),
		Running:      running,
	}
}

// UnsatisfiableTasks returns pending tasks that can never become ready,
// mapped to the dependency IDs blocking them, for external alerting.
func (c *Coordinator) UnsatisfiableTasks() map[string][]string {
	return c.tasks.Unsatisfiable()
}

// emit publishes a lifecycle event to subscribers. Never called while
// holding c.mu.
func (c *Coordinator) emit(eventType EventType, payload notify.Payload) {
	c.emitter.Emit(Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

// wakeScheduler nudges the scheduling loop. Non-blocking: a pending wake
// already covers this mutation.
func (c *Coordinator) wakeScheduler() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
