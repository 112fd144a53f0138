package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Board represents a shared drawing surface. The board ID is a slug
// derived from the display name, so two users creating a board with the
// same name land on the same board.
type Board struct {
	BoardID         string    `gorm:"type:varchar(255);primaryKey" json:"boardId"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	CanvasData      string    `gorm:"type:text" json:"canvasData,omitempty"`
	SnapshotHistory []string  `gorm:"serializer:json;type:text" json:"snapshotHistory,omitempty"`
	CreatedBy       string    `gorm:"type:varchar(100);not null" json:"createdBy"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Board) TableName() string {
	return "boards"
}

// Participant is a board-scoped identity. Rows are keyed by
// (username, board) so a rejoin refreshes instead of duplicating.
type Participant struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Username   string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_participant_board_user" json:"username"`
	BoardID    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_participant_board_user;index" json:"boardId"`
	Role       Role      `gorm:"type:varchar(20);default:'editor';not null" json:"role"`
	Color      string    `gorm:"type:varchar(20);not null" json:"color"`
	SocketID   string    `gorm:"type:varchar(100)" json:"-"`
	LastActive time.Time `gorm:"index" json:"lastActive"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Participant) TableName() string {
	return "participants"
}

func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DrawingEvent is one append-only row of the drawing log. The log is an
// audit trail; it is never replayed into the snapshot store.
type DrawingEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID   string         `gorm:"type:varchar(255);not null;index" json:"boardId"`
	Username  string         `gorm:"type:varchar(100);not null" json:"username"`
	Action    string         `gorm:"type:varchar(50);not null" json:"action"`
	Payload   map[string]any `gorm:"serializer:json;type:text" json:"payload"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

func (DrawingEvent) TableName() string {
	return "drawing_events"
}

func (e *DrawingEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Cursor is a transient position tuple, one per live connection. Never
// persisted; dropped the moment its owner leaves.
type Cursor struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Username string  `json:"username"`
	Color    string  `json:"color"`
	SocketID string  `json:"socketId"`
}

// Slugify normalizes a display name into a board ID: lowercase with
// whitespace runs collapsed to single dashes. "Sprint Planning" and
// "sprint   planning" both resolve to "sprint-planning".
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}
