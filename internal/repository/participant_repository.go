package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"whiteboard-service/internal/domain"
)

type ParticipantRepository interface {
	// Upsert inserts or refreshes a participant keyed by (username, board).
	Upsert(ctx context.Context, participant *domain.Participant) error
	Touch(ctx context.Context, boardID, username string, at time.Time) error
	UpdateRole(ctx context.Context, boardID, username string, role domain.Role) error
	// ActiveSince lists participants whose last activity is at or after
	// the cutoff, oldest join first.
	ActiveSince(ctx context.Context, boardID string, cutoff time.Time) ([]domain.Participant, error)
	// ClearSocket detaches the connection handle on disconnect without
	// deleting the row; the sweep reclaims it later.
	ClearSocket(ctx context.Context, boardID, username string, at time.Time) error
	// DeleteStale removes rows silent since before the cutoff, across all
	// boards. Returns the number of rows removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type participantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Upsert(ctx context.Context, participant *domain.Participant) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}, {Name: "board_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "color", "socket_id", "last_active"}),
	}).Create(participant).Error
}

func (r *participantRepository) Touch(ctx context.Context, boardID, username string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("board_id = ? AND username = ?", boardID, username).
		Update("last_active", at).Error
}

func (r *participantRepository) UpdateRole(ctx context.Context, boardID, username string, role domain.Role) error {
	return r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("board_id = ? AND username = ?", boardID, username).
		Update("role", role).Error
}

func (r *participantRepository) ActiveSince(ctx context.Context, boardID string, cutoff time.Time) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND last_active >= ?", boardID, cutoff).
		Order("created_at ASC").
		Find(&participants).Error
	return participants, err
}

func (r *participantRepository) ClearSocket(ctx context.Context, boardID, username string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("board_id = ? AND username = ?", boardID, username).
		Updates(map[string]interface{}{
			"socket_id":   "",
			"last_active": at,
		}).Error
}

func (r *participantRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("last_active < ?", cutoff).
		Delete(&domain.Participant{})
	return res.RowsAffected, res.Error
}
