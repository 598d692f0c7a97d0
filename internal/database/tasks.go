package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jlaster/fund-monitor/internal/models"
)

// CreateTask allocates a new task row in the starting state and returns its ID.
// Exactly one row is created per extraction attempt.
func (db *DB) CreateTask(taskType string) (int, error) {
	query := `
		INSERT INTO tasks (type, status, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int
	err := db.conn.QueryRow(query, taskType, models.TaskStatusStarting, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create task: %w", err)
	}
	return id, nil
}

// RecordRawOutput transitions a task to pending and stores the agent's raw output
func (db *DB) RecordRawOutput(id int, raw json.RawMessage) error {
	query := `UPDATE tasks SET status = $2, raw = $3 WHERE id = $1`
	result, err := db.conn.Exec(query, id, models.TaskStatusPending, []byte(raw))
	if err != nil {
		return fmt.Errorf("failed to record raw output: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

// RecordSuccess transitions a task to successful, stores the parsed snapshot
// and clears any prior error
func (db *DB) RecordSuccess(id int, snapshot *models.FundSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `UPDATE tasks SET status = $2, data = $3, error = NULL WHERE id = $1`
	result, err := db.conn.Exec(query, id, models.TaskStatusSuccessful, data)
	if err != nil {
		return fmt.Errorf("failed to record success: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

// RecordFailure transitions a task to failed, stores the error message and
// optionally the raw payload, and clears any parsed data
func (db *DB) RecordFailure(id int, errMsg string, raw json.RawMessage) error {
	var result sql.Result
	var err error

	if raw != nil {
		query := `UPDATE tasks SET status = $2, error = $3, raw = $4, data = NULL WHERE id = $1`
		result, err = db.conn.Exec(query, id, models.TaskStatusFailed, errMsg, []byte(raw))
	} else {
		query := `UPDATE tasks SET status = $2, error = $3, data = NULL WHERE id = $1`
		result, err = db.conn.Exec(query, id, models.TaskStatusFailed, errMsg)
	}
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

// GetTaskByID retrieves a task by ID
func (db *DB) GetTaskByID(id int) (*models.Task, error) {
	query := `
		SELECT id, created_at, type, status, raw, data, error
		FROM tasks
		WHERE id = $1
	`
	t, err := db.scanTask(db.conn.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// GetRecentTasks retrieves the most recent tasks of a given type
func (db *DB) GetRecentTasks(taskType string, limit int) ([]*models.Task, error) {
	query := `
		SELECT id, created_at, type, status, raw, data, error
		FROM tasks
		WHERE type = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, taskType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := db.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var raw, data []byte
	var errMsg sql.NullString

	err := row.Scan(&t.ID, &t.CreatedAt, &t.Type, &t.Status, &raw, &data, &errMsg)
	if err != nil {
		return nil, err
	}

	if raw != nil {
		t.Raw = json.RawMessage(raw)
	}
	if data != nil {
		var snapshot models.FundSnapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task data: %w", err)
		}
		t.Data = &snapshot
	}
	if errMsg.Valid {
		t.Error = errMsg.String
	}

	return &t, nil
}
