/*
Package schedule runs named background actions from the task table.

A Scheduler records when an action should run, either once or every day.
A Runner polls the table, runs the handler registered for each due task and
then removes one-shot tasks and moves recurring ones to their next slot.
*/
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/xwp/sitemap-html/store"
)

// Actions that rebuild the date index.
const (
	ActionUpdate      = "sitemap_html_update"
	ActionUpdateDaily = "sitemap_html_update_daily"
)

// Window is how close two one-shot runs of the same action may be; a
// one-shot closer than this to an existing one is dropped.
const Window = 10 * time.Minute

// Tasks is the task table.
type Tasks interface {
	AddTask(ctx context.Context, t *store.Task) error
	TasksNamed(ctx context.Context, name string) ([]store.Task, error)
	Tasks(ctx context.Context) ([]store.Task, error)
	DueTasks(ctx context.Context, now time.Time) ([]store.Task, error)
	RescheduleTask(ctx context.Context, id int64, at time.Time) error
	DeleteTask(ctx context.Context, id int64) error
	DeleteTasksNamed(ctx context.Context, name string) (int64, error)
}

// Scheduler records future runs of actions.
type Scheduler struct {
	tasks Tasks
}

// New returns a Scheduler over the task table.
func New(tasks Tasks) *Scheduler {
	return &Scheduler{tasks: tasks}
}

// Next returns the soonest run of name. ok is false when nothing is scheduled.
func (s *Scheduler) Next(ctx context.Context, name string) (at time.Time, ok bool, err error) {
	tasks, err := s.tasks.TasksNamed(ctx, name)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("Next: %w", err)
	}
	if len(tasks) == 0 {
		return time.Time{}, false, nil
	}
	return tasks[0].RunAt, true, nil
}

// ScheduleDaily runs name every day starting at first.
func (s *Scheduler) ScheduleDaily(ctx context.Context, first time.Time, name string) error {
	t := store.Task{Name: name, RunAt: first.UTC(), Recurrence: store.RecurDaily}
	if err := s.tasks.AddTask(ctx, &t); err != nil {
		return fmt.Errorf("ScheduleDaily: %w", err)
	}
	return nil
}

// ScheduleOnce runs name once at at. It reports false, and schedules nothing,
// when another one-shot run of name is already within Window of at.
func (s *Scheduler) ScheduleOnce(ctx context.Context, at time.Time, name string) (bool, error) {
	tasks, err := s.tasks.TasksNamed(ctx, name)
	if err != nil {
		return false, fmt.Errorf("ScheduleOnce: %w", err)
	}
	for _, t := range tasks {
		if t.Recurring() {
			continue
		}
		if d := t.RunAt.Sub(at); d > -Window && d < Window {
			return false, nil
		}
	}
	t := store.Task{Name: name, RunAt: at.UTC()}
	if err := s.tasks.AddTask(ctx, &t); err != nil {
		return false, fmt.Errorf("ScheduleOnce: %w", err)
	}
	return true, nil
}

// Unschedule removes every run of name and returns how many were removed.
func (s *Scheduler) Unschedule(ctx context.Context, name string) (int64, error) {
	n, err := s.tasks.DeleteTasksNamed(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("Unschedule: %w", err)
	}
	return n, nil
}

// Pending lists every scheduled run, soonest first.
func (s *Scheduler) Pending(ctx context.Context) ([]store.Task, error) {
	tasks, err := s.tasks.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("Pending: %w", err)
	}
	return tasks, nil
}

// ScheduleUpdate makes sure the daily rebuild exists and asks for one more
// rebuild at the next quarter hour.
func (s *Scheduler) ScheduleUpdate(ctx context.Context, now time.Time) error {
	_, ok, err := s.Next(ctx, ActionUpdateDaily)
	if err != nil {
		return fmt.Errorf("ScheduleUpdate: %w", err)
	}
	if !ok {
		if err := s.ScheduleDaily(ctx, TopOfHour(now), ActionUpdateDaily); err != nil {
			return fmt.Errorf("ScheduleUpdate: %w", err)
		}
	}
	if _, err := s.ScheduleOnce(ctx, QuarterHour(now), ActionUpdate); err != nil {
		return fmt.Errorf("ScheduleUpdate: %w", err)
	}
	return nil
}

// UnscheduleUpdate removes the daily rebuild.
func (s *Scheduler) UnscheduleUpdate(ctx context.Context) error {
	if _, err := s.Unschedule(ctx, ActionUpdateDaily); err != nil {
		return fmt.Errorf("UnscheduleUpdate: %w", err)
	}
	return nil
}

// TopOfHour returns the start of the UTC hour containing t.
func TopOfHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// QuarterHour returns the first quarter hour strictly after t.
func QuarterHour(t time.Time) time.Time {
	return t.UTC().Truncate(15 * time.Minute).Add(15 * time.Minute)
}

// nextRun returns the first run of a recurring task after now, keeping the
// task on its original time of day.
func nextRun(t store.Task, now time.Time) time.Time {
	interval := t.Interval()
	if interval <= 0 {
		return time.Time{}
	}
	if t.RunAt.After(now) {
		return t.RunAt
	}
	missed := now.Sub(t.RunAt)/interval + 1
	return t.RunAt.Add(missed * interval)
}
