package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/ayush/todolist/backend/internal/models"
)

// CreateTask inserts a task owned by userID.
func (s *SQLStore) CreateTask(ctx context.Context, userID int64, in models.NewTask, mode CacheMode) (*models.Task, error) {
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	id, err := s.insert(ctx,
		`INSERT INTO tasks (user_id, title, description, status) VALUES (?, ?, ?, ?)`,
		userID, in.Title, in.Description, string(in.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.afterWrite(ctx, userID, mode)

	return &models.Task{
		ID:          id,
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	}, nil
}

// ListTasks returns the user's tasks ordered by id.
func (s *SQLStore) ListTasks(ctx context.Context, userID int64, mode CacheMode) ([]models.Task, error) {
	key := TaskListKey(userID)
	if mode == CacheUse {
		tasks, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Printf("cache get %s: %v", key, err)
		} else if ok {
			if tasks == nil {
				tasks = []models.Task{}
			}
			return tasks, nil
		}
	}

	tasks, err := s.queryTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if mode != CacheSkip {
		if err := s.cache.Set(ctx, key, tasks, CacheTTL); err != nil {
			log.Printf("cache set %s: %v", key, err)
		}
	}
	return tasks, nil
}

func (s *SQLStore) queryTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, user_id, title, description, status FROM tasks WHERE user_id = ? ORDER BY id`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status); err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns nil, nil unless the task exists and belongs to userID.
func (s *SQLStore) GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	var t models.Task
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, user_id, title, description, status FROM tasks WHERE id = ? AND user_id = ?`),
		taskID, userID,
	).Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// UpdateTask changes only the supplied columns of a task owned by userID.
func (s *SQLStore) UpdateTask(ctx context.Context, userID, taskID int64, upd models.TaskUpdate, mode CacheMode) error {
	if upd.Empty() {
		return ErrNoFields
	}
	var set setClause
	if upd.Title != nil {
		set.add("title", *upd.Title)
	}
	if upd.Description != nil {
		set.add("description", *upd.Description)
	}
	if upd.Status != nil {
		set.add("status", string(*upd.Status))
	}

	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE tasks SET `+set.String()+` WHERE id = ? AND user_id = ?`),
		append(set.args, taskID, userID)...,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		t, err := s.GetTask(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrNotFound
		}
	}
	s.afterWrite(ctx, userID, mode)
	return nil
}

// DeleteTask removes a task owned by userID.
func (s *SQLStore) DeleteTask(ctx context.Context, userID, taskID int64, mode CacheMode) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`),
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.afterWrite(ctx, userID, mode)
	return nil
}
