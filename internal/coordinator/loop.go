package coordinator

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maestro-sh/maestro/pkg/models"
)

// Run drives the coordinator until the context is cancelled or a drain
// signal lands and the last active task finishes. Three goroutines: the
// scheduling tick loop, the timeout sweep, and the event pump feeding
// the notifier.
func (c *Coordinator) Run(ctx context.Context) error {
	c.runMu.Lock()
	c.running = true
	c.runMu.Unlock()
	defer func() {
		c.runMu.Lock()
		c.running = false
		c.runMu.Unlock()
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.tickLoop(ctx) })
	g.Go(func() error { return c.sweepLoop(ctx) })
	g.Go(func() error { return c.pumpEvents(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, errDrained) {
		return nil
	}
	return err
}

// errDrained signals a clean drain shutdown through the errgroup.
var errDrained = drainError{}

type drainError struct{}

func (drainError) Error() string { return "coordinator drained" }

// tickLoop runs scheduling passes on a timer and on wake nudges.
func (c *Coordinator) tickLoop(ctx context.Context) error {
	interval := c.cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
		case <-ticker.C:
		}

		if c.control != nil {
			if c.control.ShouldDrain() && c.activeTaskCount() == 0 {
				c.logger.Log("[coordinator] drain complete, stopping")
				return errDrained
			}
			if c.control.ShouldPause() || c.control.ShouldDrain() {
				continue
			}
		}
		if !c.cfg.AutoAssign {
			continue
		}
		if n := c.ScheduleTick(); n > 0 {
			c.logger.Log("[coordinator] tick assigned %d task(s)", n)
		}
	}
}

// sweepLoop periodically fails tasks whose current attempt exceeded the
// configured timeout. A timed-out task goes through the normal failure
// path, so it retries until the retry budget is spent.
func (c *Coordinator) sweepLoop(ctx context.Context) error {
	if c.cfg.TaskTimeout <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	interval := c.cfg.HealthCheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.sweepTimeouts()
		}
	}
}

// sweepTimeouts fails every overdue task once.
func (c *Coordinator) sweepTimeouts() {
	for _, t := range c.tasks.Overdue(c.cfg.TaskTimeout) {
		c.logger.Log("[coordinator] task %s timed out on agent %s", t.ID, t.AssignedAgent)
		if err := c.FailTask(t.ID, "task timed out"); err != nil {
			c.logger.Log("[coordinator] timeout fail for %s: %v", t.ID, err)
		}
	}
}

// pumpEvents forwards lifecycle events to the notifier. Notification is
// best-effort and happens here, never inside a coordinator lock.
func (c *Coordinator) pumpEvents(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c.emitter.Events():
			if !ok {
				return nil
			}
			c.notifier.Notify(ctx, string(ev.Type), ev.Payload)
		}
	}
}

func (c *Coordinator) activeTaskCount() int {
	n := 0
	for _, t := range c.tasks.All() {
		if t.Status == models.TaskStatusAssigned || t.Status == models.TaskStatusInProgress {
			n++
		}
	}
	return n
}
