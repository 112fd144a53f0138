package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"whiteboard-service/internal/domain"
	"whiteboard-service/internal/repository"
)

var (
	// ErrBoardNotFound is returned on direct lookup of an unknown board.
	ErrBoardNotFound = errors.New("board not found")
	// ErrInvalidBoardName is returned when a display name normalizes to an
	// empty slug.
	ErrInvalidBoardName = errors.New("board name is required")
)

type BoardService interface {
	// CreateOrJoin resolves a board by its normalized slug, creating it on
	// first use, and assigns the joining user a color. Idempotent: two
	// users "creating" the same display name land on the same board.
	CreateOrJoin(ctx context.Context, boardName, username string, role domain.Role) (*domain.Board, *domain.Participant, error)
	GetBoard(ctx context.Context, boardID string) (*domain.Board, error)
	// ActiveUsers lists participants active within the liveness window.
	ActiveUsers(ctx context.Context, boardID string) ([]domain.Participant, error)
}

type boardService struct {
	boards          repository.BoardRepository
	participants    repository.ParticipantRepository
	colors          *ColorGenerator
	livenessTimeout time.Duration
	logger          *zap.Logger
}

func NewBoardService(
	boards repository.BoardRepository,
	participants repository.ParticipantRepository,
	colors *ColorGenerator,
	livenessTimeout time.Duration,
	logger *zap.Logger,
) BoardService {
	return &boardService{
		boards:          boards,
		participants:    participants,
		colors:          colors,
		livenessTimeout: livenessTimeout,
		logger:          logger,
	}
}

func (s *boardService) CreateOrJoin(ctx context.Context, boardName, username string, role domain.Role) (*domain.Board, *domain.Participant, error) {
	boardID := domain.Slugify(boardName)
	if boardID == "" {
		return nil, nil, ErrInvalidBoardName
	}

	if !role.Valid() {
		role = domain.RoleEditor
	}

	board, created, err := s.boards.GetOrCreate(ctx, &domain.Board{
		BoardID:         boardID,
		Name:            boardName,
		SnapshotHistory: []string{},
		CreatedBy:       username,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("resolve board %q: %w", boardID, err)
	}
	if created {
		s.logger.Info("board created",
			zap.String("board_id", boardID),
			zap.String("created_by", username))
	}

	user := &domain.Participant{
		Username:   username,
		BoardID:    boardID,
		Role:       role,
		Color:      s.colors.Next(),
		LastActive: time.Now().UTC(),
	}
	return board, user, nil
}

func (s *boardService) GetBoard(ctx context.Context, boardID string) (*domain.Board, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, err
	}
	return board, nil
}

func (s *boardService) ActiveUsers(ctx context.Context, boardID string) ([]domain.Participant, error) {
	cutoff := time.Now().UTC().Add(-s.livenessTimeout)
	return s.participants.ActiveSince(ctx, boardID, cutoff)
}
