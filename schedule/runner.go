package schedule

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Func is the handler of an action.
type Func func(ctx context.Context) error

// Runner executes due tasks.
type Runner struct {
	tasks Tasks

	mu       sync.Mutex
	handlers map[string]Func
}

// NewRunner returns a Runner over the task table.
func NewRunner(tasks Tasks) *Runner {
	return &Runner{tasks: tasks, handlers: make(map[string]Func)}
}

// Handle registers fn as the handler of the named action.
func (r *Runner) Handle(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// RunDue runs every task due at now and returns how many handlers ran.
// A task is removed or moved to its next slot before its handler runs, so a
// failing handler is not retried until its next scheduled time. Handler
// errors are logged.
func (r *Runner) RunDue(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	due, err := r.tasks.DueTasks(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("RunDue: %w", err)
	}
	var ran int
	seen := make(map[string]bool)
	for _, t := range due {
		if t.Recurring() {
			err = r.tasks.RescheduleTask(ctx, t.ID, nextRun(t, now))
		} else {
			err = r.tasks.DeleteTask(ctx, t.ID)
		}
		if err != nil {
			return ran, fmt.Errorf("RunDue: %w", err)
		}
		// Several overdue runs of one action collapse into a single call.
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		fn, ok := r.handlers[t.Name]
		if !ok {
			log.Printf("RunDue: no handler for %q", t.Name)
			continue
		}
		if err := fn(ctx); err != nil {
			log.Printf("RunDue: %s: %s", t.Name, err)
		}
		ran++
	}
	return ran, nil
}

// Run polls for due tasks every interval until ctx is done.
func (r *Runner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.RunDue(ctx, time.Now()); err != nil {
			log.Printf("Run: %s", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
