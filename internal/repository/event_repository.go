package repository

import (
	"context"

	"gorm.io/gorm"

	"whiteboard-service/internal/domain"
)

// EventRepository is the append-only drawing log. Writers never read it
// back; there is no coordination beyond the atomic insert.
type EventRepository interface {
	Append(ctx context.Context, event *domain.DrawingEvent) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, event *domain.DrawingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
