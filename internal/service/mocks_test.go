package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"whiteboard-service/internal/domain"
)

// MockBoardRepository is a function-field mock; unset fields fall back to
// not-found or no-op behavior.
type MockBoardRepository struct {
	GetByIDFunc        func(ctx context.Context, boardID string) (*domain.Board, error)
	GetOrCreateFunc    func(ctx context.Context, board *domain.Board) (*domain.Board, bool, error)
	UpdateSnapshotFunc func(ctx context.Context, boardID, canvasData string, history []string) error
	ClearSnapshotFunc  func(ctx context.Context, boardID string) error
}

func (m *MockBoardRepository) GetByID(ctx context.Context, boardID string) (*domain.Board, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, boardID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockBoardRepository) GetOrCreate(ctx context.Context, board *domain.Board) (*domain.Board, bool, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, board)
	}
	return board, true, nil
}

func (m *MockBoardRepository) UpdateSnapshot(ctx context.Context, boardID, canvasData string, history []string) error {
	if m.UpdateSnapshotFunc != nil {
		return m.UpdateSnapshotFunc(ctx, boardID, canvasData, history)
	}
	return nil
}

func (m *MockBoardRepository) ClearSnapshot(ctx context.Context, boardID string) error {
	if m.ClearSnapshotFunc != nil {
		return m.ClearSnapshotFunc(ctx, boardID)
	}
	return nil
}

// MockParticipantRepository is a function-field mock for the participant
// store.
type MockParticipantRepository struct {
	UpsertFunc      func(ctx context.Context, participant *domain.Participant) error
	TouchFunc       func(ctx context.Context, boardID, username string, at time.Time) error
	UpdateRoleFunc  func(ctx context.Context, boardID, username string, role domain.Role) error
	ActiveSinceFunc func(ctx context.Context, boardID string, cutoff time.Time) ([]domain.Participant, error)
	ClearSocketFunc func(ctx context.Context, boardID, username string, at time.Time) error
	DeleteStaleFunc func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *MockParticipantRepository) Upsert(ctx context.Context, participant *domain.Participant) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, participant)
	}
	return nil
}

func (m *MockParticipantRepository) Touch(ctx context.Context, boardID, username string, at time.Time) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, boardID, username, at)
	}
	return nil
}

func (m *MockParticipantRepository) UpdateRole(ctx context.Context, boardID, username string, role domain.Role) error {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, boardID, username, role)
	}
	return nil
}

func (m *MockParticipantRepository) ActiveSince(ctx context.Context, boardID string, cutoff time.Time) ([]domain.Participant, error) {
	if m.ActiveSinceFunc != nil {
		return m.ActiveSinceFunc(ctx, boardID, cutoff)
	}
	return nil, nil
}

func (m *MockParticipantRepository) ClearSocket(ctx context.Context, boardID, username string, at time.Time) error {
	if m.ClearSocketFunc != nil {
		return m.ClearSocketFunc(ctx, boardID, username, at)
	}
	return nil
}

func (m *MockParticipantRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteStaleFunc != nil {
		return m.DeleteStaleFunc(ctx, cutoff)
	}
	return 0, nil
}
