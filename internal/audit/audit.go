// Package audit records who changed what through the console API.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResourceType represents the kind of entity a request touched
type ResourceType string

const (
	ResourceCategory      ResourceType = "category"
	ResourceProject       ResourceType = "project"
	ResourceSubProject    ResourceType = "sub_project"
	ResourceContentType   ResourceType = "content_type"
	ResourceContent       ResourceType = "content"
	ResourceTextCommand   ResourceType = "text_command"
	ResourceDocumentation ResourceType = "documentation"
	ResourceImage         ResourceType = "image"
	ResourceSession       ResourceType = "session"
)

// Action represents the action being performed
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionBulkDelete Action = "bulk_delete"
	ActionReorder    Action = "reorder"
	ActionGenerate   Action = "generate"
	ActionUpload     Action = "upload"
	ActionLogin      Action = "login"
)

// Status represents the outcome of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

const defaultQueryLimit = 100

// Event is one recorded API mutation.
type Event struct {
	ID           uuid.UUID      `json:"id"`
	Operator     string         `json:"operator,omitempty"`
	ResourceType ResourceType   `json:"resourceType"`
	ResourceID   *int64         `json:"resourceId,omitempty"`
	Action       Action         `json:"action"`
	Status       Status         `json:"status"`
	HTTPStatus   int            `json:"httpStatus"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	RequestID    string         `json:"requestId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// QueryFilter narrows Query results. Zero fields match everything.
type QueryFilter struct {
	Operator     string
	ResourceType ResourceType
	Action       Action
	Status       Status
	Since        *time.Time
	Limit        int
}

func (f QueryFilter) limit() int {
	if f.Limit <= 0 {
		return defaultQueryLimit
	}
	return f.Limit
}

func (f QueryFilter) matches(e *Event) bool {
	switch {
	case f.Operator != "" && e.Operator != f.Operator:
		return false
	case f.ResourceType != "" && e.ResourceType != f.ResourceType:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.Status != "" && e.Status != f.Status:
		return false
	case f.Since != nil && e.CreatedAt.Before(*f.Since):
		return false
	}
	return true
}

// Recorder stores audit events and reads them back newest first.
type Recorder interface {
	Record(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]*Event, error)
}

func prepare(event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
}

// PostgresRecorder writes events to the audit_events table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a recorder writing to the audit_events table.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

func (r *PostgresRecorder) Record(ctx context.Context, event *Event) error {
	prepare(event)

	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_events (
			id, operator, resource_type, resource_id, action, status, http_status,
			ip_address, user_agent, request_id, metadata, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Operator,
		event.ResourceType,
		event.ResourceID,
		event.Action,
		event.Status,
		event.HTTPStatus,
		event.IPAddress,
		event.UserAgent,
		event.RequestID,
		metadataJSON,
		event.ErrorMessage,
		event.CreatedAt,
	)
	return err
}

func (r *PostgresRecorder) Query(ctx context.Context, filter QueryFilter) ([]*Event, error) {
	query := `
		SELECT id, operator, resource_type, resource_id, action, status, http_status,
		       ip_address, user_agent, request_id, metadata, error_message, created_at
		FROM audit_events
		WHERE 1=1
	`
	args := []any{}
	argCount := 1

	if filter.Operator != "" {
		query += fmt.Sprintf(" AND operator = $%d", argCount)
		args = append(args, filter.Operator)
		argCount++
	}
	if filter.ResourceType != "" {
		query += fmt.Sprintf(" AND resource_type = $%d", argCount)
		args = append(args, filter.ResourceType)
		argCount++
	}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argCount)
		args = append(args, filter.Action)
		argCount++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filter.Since)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argCount)
	args = append(args, filter.limit())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		event := &Event{}
		var metadataJSON []byte
		err := rows.Scan(
			&event.ID,
			&event.Operator,
			&event.ResourceType,
			&event.ResourceID,
			&event.Action,
			&event.Status,
			&event.HTTPStatus,
			&event.IPAddress,
			&event.UserAgent,
			&event.RequestID,
			&metadataJSON,
			&event.ErrorMessage,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
				return nil, err
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// MemoryRecorder keeps the most recent events in memory for the demo
// backend. Events arrive in time order.
type MemoryRecorder struct {
	mu       sync.RWMutex
	events   []*Event
	capacity int
}

// NewMemoryRecorder keeps the last capacity events in memory.
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = defaultQueryLimit
	}
	return &MemoryRecorder{capacity: capacity}
}

func (r *MemoryRecorder) Record(_ context.Context, event *Event) error {
	prepare(event)
	stored := *event

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, &stored)
	if over := len(r.events) - r.capacity; over > 0 {
		r.events = r.events[over:]
	}
	return nil
}

func (r *MemoryRecorder) Query(_ context.Context, filter QueryFilter) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Event, 0, len(r.events))
	for i := len(r.events) - 1; i >= 0 && len(matched) < filter.limit(); i-- {
		if e := r.events[i]; filter.matches(e) {
			copied := *e
			matched = append(matched, &copied)
		}
	}
	return matched, nil
}
