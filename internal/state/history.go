package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/troupelabs/troupe/pkg/models"
)

// WorkflowKind identifies which workflow produced a history row.
type WorkflowKind string

const (
	KindNews WorkflowKind = "news"
	KindRepo WorkflowKind = "repo"
)

// WorkflowRecord is one workflow invocation as stored in history.
type WorkflowRecord struct {
	ID             string       `json:"id"`
	Kind           WorkflowKind `json:"kind"`
	Subject        string       `json:"subject"`
	Source         string       `json:"source"`
	Success        bool         `json:"success"`
	PullRequestURL string       `json:"pull_request_url,omitempty"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     *time.Time   `json:"finished_at"`
}

// EventRecord is one stored progress event.
type EventRecord struct {
	WorkflowID string    `json:"workflow_id"`
	StepID     string    `json:"step_id"`
	AgentID    string    `json:"agent_id,omitempty"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}

// RecordNews stores a finished news workflow invocation.
func (db *DB) RecordNews(res *models.NewsResult, startedAt, finishedAt time.Time) error {
	return db.insertWorkflow(WorkflowRecord{
		ID:         res.WorkflowID,
		Kind:       KindNews,
		Subject:    res.Topic,
		Source:     string(res.Source),
		Success:    res.Translated != "",
		StartedAt:  startedAt,
		FinishedAt: &finishedAt,
	})
}

// RecordRepo stores a finished repository workflow invocation.
func (db *DB) RecordRepo(res *models.RepoResult, startedAt, finishedAt time.Time) error {
	return db.insertWorkflow(WorkflowRecord{
		ID:             res.WorkflowID,
		Kind:           KindRepo,
		Subject:        res.Requirements,
		Source:         string(res.Source),
		Success:        res.Success,
		PullRequestURL: res.PullRequestURL,
		StartedAt:      startedAt,
		FinishedAt:     &finishedAt,
	})
}

func (db *DB) insertWorkflow(rec WorkflowRecord) error {
	var finishedAt any
	if rec.FinishedAt != nil {
		finishedAt = formatTime(*rec.FinishedAt)
	}

	_, err := db.Exec(`
		INSERT INTO workflows (id, kind, subject, source, success, pull_request_url, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Kind), rec.Subject, rec.Source, rec.Success, rec.PullRequestURL, formatTime(rec.StartedAt), finishedAt)
	if err != nil {
		return fmt.Errorf("record workflow: %w", err)
	}
	return nil
}

// GetWorkflow retrieves one workflow by ID. Returns nil if not found.
func (db *DB) GetWorkflow(id string) (*WorkflowRecord, error) {
	row := db.QueryRow(`
		SELECT id, kind, subject, source, success, pull_request_url, started_at, finished_at
		FROM workflows WHERE id = ?
	`, id)

	rec, err := scanWorkflow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	return rec, nil
}

// ListRecent lists the most recent workflow invocations, newest first.
func (db *DB) ListRecent(limit int) ([]WorkflowRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, kind, subject, source, success, pull_request_url, started_at, finished_at
		FROM workflows ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var records []WorkflowRecord
	for rows.Next() {
		rec, err := scanWorkflow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanWorkflow(scan func(...any) error) (*WorkflowRecord, error) {
	var rec WorkflowRecord
	var kind, startedAt string
	var prURL, finishedAt sql.NullString

	err := scan(&rec.ID, &kind, &rec.Subject, &rec.Source, &rec.Success, &prURL, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	rec.Kind = WorkflowKind(kind)
	rec.PullRequestURL = prURL.String
	rec.StartedAt, _ = parseTime(startedAt)
	rec.FinishedAt = parseNullableTime(finishedAt)
	return &rec, nil
}

// AppendEvent stores one progress event for a workflow.
func (db *DB) AppendEvent(ev models.WorkflowProgress, at time.Time) error {
	_, err := db.Exec(`
		INSERT INTO progress_events (workflow_id, step_id, agent_id, status, progress, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.WorkflowID, ev.StepID, ev.AgentID, string(ev.Status), ev.Progress, ev.Message, formatTime(at))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Events lists the stored progress events for one workflow in emission order.
func (db *DB) Events(workflowID string) ([]EventRecord, error) {
	rows, err := db.Query(`
		SELECT workflow_id, step_id, agent_id, status, progress, message, created_at
		FROM progress_events WHERE workflow_id = ? ORDER BY id ASC
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var ev EventRecord
		var agentID, message sql.NullString
		var createdAt string

		err := rows.Scan(&ev.WorkflowID, &ev.StepID, &agentID, &ev.Status, &ev.Progress, &message, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		ev.AgentID = agentID.String
		ev.Message = message.String
		ev.At, _ = parseTime(createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Prune removes workflows started before the cutoff along with their events.
// Returns the number of workflows removed.
func (db *DB) Prune(before time.Time) (int, error) {
	var removed int
	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			DELETE FROM progress_events WHERE workflow_id IN (
				SELECT id FROM workflows WHERE started_at < ?
			)
		`, formatTime(before))
		if err != nil {
			return fmt.Errorf("prune events: %w", err)
		}

		result, err := tx.Exec("DELETE FROM workflows WHERE started_at < ?", formatTime(before))
		if err != nil {
			return fmt.Errorf("prune workflows: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("count pruned workflows: %w", err)
		}
		removed = int(n)
		return nil
	})
	return removed, err
}
