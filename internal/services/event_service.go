package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/mediinsight-be/internal/database"
	"github.com/isdelr/mediinsight-be/internal/models"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, username *string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// EventService records audit events.
type EventService struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, username *string) error {
	event := models.Event{
		ID:       uuid.New().String(),
		Type:     eventType,
		Level:    level,
		Message:  message,
		Username: username,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, username, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.Username, database.FormatTime(s.now()))
	if err != nil {
		return storageErr("create event", err)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, username, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			event     models.Event
			username  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &username, &createdAt); err != nil {
			return nil, storageErr("scan event", err)
		}
		if username.Valid {
			event.Username = &username.String
		}
		if event.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, storageErr("parse event time", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list events", err)
	}
	return events, nil
}
