package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"whiteboard-service/internal/domain"
)

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Upsert(ctx context.Context, participant *domain.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) Touch(ctx context.Context, boardID, username string, at time.Time) error {
	args := m.Called(ctx, boardID, username, at)
	return args.Error(0)
}

func (m *MockParticipantRepository) UpdateRole(ctx context.Context, boardID, username string, role domain.Role) error {
	args := m.Called(ctx, boardID, username, role)
	return args.Error(0)
}

func (m *MockParticipantRepository) ActiveSince(ctx context.Context, boardID string, cutoff time.Time) ([]domain.Participant, error) {
	args := m.Called(ctx, boardID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Participant), args.Error(1)
}

func (m *MockParticipantRepository) ClearSocket(ctx context.Context, boardID, username string, at time.Time) error {
	args := m.Called(ctx, boardID, username, at)
	return args.Error(0)
}

func (m *MockParticipantRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestSweepJobDeletesStaleRows(t *testing.T) {
	repo := new(MockParticipantRepository)
	repo.On("DeleteStale", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		// Retention of 30s puts the cutoff roughly 30s in the past.
		return time.Since(cutoff) > 29*time.Second && time.Since(cutoff) < 31*time.Second
	})).Return(int64(3), nil)

	job := NewSweepJob(repo, 30*time.Second, zap.NewNop())
	job.Run()

	repo.AssertExpectations(t)
}

func TestSweepJobSurvivesRepositoryError(t *testing.T) {
	repo := new(MockParticipantRepository)
	repo.On("DeleteStale", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	job := NewSweepJob(repo, 30*time.Second, zap.NewNop())

	assert.NotPanics(t, func() { job.Run() })
	repo.AssertExpectations(t)
}
