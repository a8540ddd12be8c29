package store

import (
	"context"
	"fmt"
	"time"
)

// AddTask records a scheduled task and fills in its ID.
func (s *Store) AddTask(ctx context.Context, t *Task) error {
	const insert = `INSERT INTO tasks (name, run_at, recurrence) VALUES (?, ?, ?)`
	args := []any{t.Name, t.RunAt.Unix(), t.Recurrence}
	if s.dialect.numbered {
		if err := s.queryRow(ctx, insert+" RETURNING id", args...).Scan(&t.ID); err != nil {
			return fmt.Errorf("AddTask: %w", err)
		}
		return nil
	}
	res, err := s.exec(ctx, insert, args...)
	if err != nil {
		return fmt.Errorf("AddTask: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("AddTask: %w", err)
	}
	return nil
}

// TasksNamed returns the tasks with the given name, soonest first.
func (s *Store) TasksNamed(ctx context.Context, name string) ([]Task, error) {
	tasks, err := s.tasks(ctx, `SELECT id, name, run_at, recurrence FROM tasks
		WHERE name = ? ORDER BY run_at, id`, name)
	if err != nil {
		return nil, fmt.Errorf("TasksNamed: %w", err)
	}
	return tasks, nil
}

// Tasks returns every scheduled task, soonest first.
func (s *Store) Tasks(ctx context.Context) ([]Task, error) {
	tasks, err := s.tasks(ctx, `SELECT id, name, run_at, recurrence FROM tasks ORDER BY run_at, id`)
	if err != nil {
		return nil, fmt.Errorf("Tasks: %w", err)
	}
	return tasks, nil
}

// DueTasks returns the tasks whose run time is at or before now.
func (s *Store) DueTasks(ctx context.Context, now time.Time) ([]Task, error) {
	tasks, err := s.tasks(ctx, `SELECT id, name, run_at, recurrence FROM tasks
		WHERE run_at <= ? ORDER BY run_at, id`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("DueTasks: %w", err)
	}
	return tasks, nil
}

// RescheduleTask moves a task to a new run time.
func (s *Store) RescheduleTask(ctx context.Context, id int64, at time.Time) error {
	if _, err := s.exec(ctx, `UPDATE tasks SET run_at = ? WHERE id = ?`, at.Unix(), id); err != nil {
		return fmt.Errorf("RescheduleTask: %w", err)
	}
	return nil
}

// DeleteTask removes one task.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("DeleteTask: %w", err)
	}
	return nil
}

// DeleteTasksNamed removes every task with the given name and returns how many were removed.
func (s *Store) DeleteTasksNamed(ctx context.Context, name string) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM tasks WHERE name = ?`, name)
	if err != nil {
		return 0, fmt.Errorf("DeleteTasksNamed: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) tasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tasks []Task
	for rows.Next() {
		var (
			t     Task
			runAt int64
		)
		if err := rows.Scan(&t.ID, &t.Name, &runAt, &t.Recurrence); err != nil {
			return nil, err
		}
		t.RunAt = time.Unix(runAt, 0).UTC()
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
