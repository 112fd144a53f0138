package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"whiteboard-service/internal/domain"
)

type BoardRepository interface {
	GetByID(ctx context.Context, boardID string) (*domain.Board, error)
	// GetOrCreate resolves a board by ID, creating it when missing. The
	// second return is true when this call created the board.
	GetOrCreate(ctx context.Context, board *domain.Board) (*domain.Board, bool, error)
	UpdateSnapshot(ctx context.Context, boardID, canvasData string, history []string) error
	ClearSnapshot(ctx context.Context, boardID string) error
}

type boardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) GetByID(ctx context.Context, boardID string) (*domain.Board, error) {
	var board domain.Board
	err := r.db.WithContext(ctx).First(&board, "board_id = ?", boardID).Error
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) GetOrCreate(ctx context.Context, board *domain.Board) (*domain.Board, bool, error) {
	existing, err := r.GetByID(ctx, board.BoardID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	// DoNothing keeps concurrent create-or-join calls idempotent: the
	// loser of the race falls through to the re-read.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "board_id"}},
		DoNothing: true,
	}).Create(board)
	if res.Error != nil {
		return nil, false, res.Error
	}

	latest, err := r.GetByID(ctx, board.BoardID)
	if err != nil {
		return nil, false, err
	}
	return latest, res.RowsAffected > 0, nil
}

func (r *boardRepository) UpdateSnapshot(ctx context.Context, boardID, canvasData string, history []string) error {
	// Select forces the write even when the new values are zero, and keeps
	// the json serializer in play for the history column.
	return r.db.WithContext(ctx).Model(&domain.Board{BoardID: boardID}).
		Select("canvas_data", "snapshot_history", "updated_at").
		Updates(&domain.Board{
			CanvasData:      canvasData,
			SnapshotHistory: history,
			UpdatedAt:       time.Now().UTC(),
		}).Error
}

func (r *boardRepository) ClearSnapshot(ctx context.Context, boardID string) error {
	return r.UpdateSnapshot(ctx, boardID, "", []string{})
}
