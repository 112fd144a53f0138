package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"whiteboard-service/internal/repository"
)

// ErrEmptySnapshot is returned when a save carries no canvas data.
var ErrEmptySnapshot = errors.New("canvas snapshot is empty")

// CanvasService holds, per board, the latest committed snapshot and a
// bounded history of prior ones. Commits are synchronous and in-memory;
// durable writes are debounced per board and fire-and-forget, so rapid
// checkpoint saves coalesce into a single persisted update and a write
// failure never rolls back what clients already saw.
type CanvasService struct {
	boards       repository.BoardRepository
	historyLimit int
	debounce     time.Duration
	logger       *zap.Logger

	// onPersistError is invoked after a failed durable write; wiring for a
	// metrics counter.
	onPersistError func()

	mu     sync.Mutex
	states map[string]*canvasState
}

type canvasState struct {
	loaded       bool
	latest       string
	history      []string
	persistTimer *time.Timer
}

func NewCanvasService(
	boards repository.BoardRepository,
	historyLimit int,
	debounce time.Duration,
	logger *zap.Logger,
) *CanvasService {
	return &CanvasService{
		boards:       boards,
		historyLimit: historyLimit,
		debounce:     debounce,
		logger:       logger,
		states:       make(map[string]*canvasState),
	}
}

// SetPersistErrorHook registers a callback fired on durable write failure.
func (s *CanvasService) SetPersistErrorHook(fn func()) {
	s.onPersistError = fn
}

// Snapshot returns the latest committed snapshot for a board, empty when
// the board has none.
func (s *CanvasService) Snapshot(ctx context.Context, boardID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(ctx, boardID).latest
}

// History returns a copy of the board's bounded snapshot history.
func (s *CanvasService) History(ctx context.Context, boardID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateLocked(ctx, boardID)
	out := make([]string, len(st.history))
	copy(out, st.history)
	return out
}

// Save commits a snapshot as the board's latest state and appends it to
// the bounded history, evicting the oldest entry past the cap. The commit
// is synchronous; persistence is scheduled on a per-board debounce window.
// A returned error means nothing was committed and no broadcast should
// follow; that gate applies to the in-memory commit only, since the
// debounced durable write happens later and reports through the persist
// error hook.
func (s *CanvasService) Save(ctx context.Context, boardID, canvasData string) error {
	if canvasData == "" {
		return ErrEmptySnapshot
	}

	s.mu.Lock()
	st := s.stateLocked(ctx, boardID)
	st.latest = canvasData
	st.history = append(st.history, canvasData)
	if overflow := len(st.history) - s.historyLimit; overflow > 0 {
		st.history = st.history[overflow:]
	}
	s.schedulePersistLocked(boardID, st)
	s.mu.Unlock()

	return nil
}

// Clear wipes the board's snapshot and truncates its history, in memory
// and durably. Destructive and unconditional; a persistence failure is
// logged but does not undo the in-memory reset.
func (s *CanvasService) Clear(ctx context.Context, boardID string) {
	s.mu.Lock()
	st := s.stateLocked(ctx, boardID)
	st.latest = ""
	st.history = nil
	if st.persistTimer != nil {
		st.persistTimer.Stop()
		st.persistTimer = nil
	}
	s.mu.Unlock()

	if err := s.boards.ClearSnapshot(context.WithoutCancel(ctx), boardID); err != nil {
		s.reportPersistError(boardID, "clear", err)
	}
}

// stateLocked returns the board's state, loading it from the repository on
// first touch. Callers hold s.mu.
func (s *CanvasService) stateLocked(ctx context.Context, boardID string) *canvasState {
	st, ok := s.states[boardID]
	if !ok {
		st = &canvasState{}
		s.states[boardID] = st
	}
	if !st.loaded {
		st.loaded = true
		board, err := s.boards.GetByID(ctx, boardID)
		switch {
		case err == nil:
			st.latest = board.CanvasData
			st.history = board.SnapshotHistory
			if overflow := len(st.history) - s.historyLimit; overflow > 0 {
				st.history = st.history[overflow:]
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Unknown board starts empty.
		default:
			s.logger.Warn("failed to load canvas state",
				zap.String("board_id", boardID),
				zap.Error(err))
		}
	}
	return st
}

// schedulePersistLocked arms the debounce timer unless one is already
// pending; the pending write picks up whatever is committed when it fires.
// Callers hold s.mu.
func (s *CanvasService) schedulePersistLocked(boardID string, st *canvasState) {
	if s.debounce <= 0 {
		go s.persist(boardID)
		return
	}
	if st.persistTimer != nil {
		return
	}
	st.persistTimer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		if cur, ok := s.states[boardID]; ok {
			cur.persistTimer = nil
		}
		s.mu.Unlock()
		s.persist(boardID)
	})
}

func (s *CanvasService) persist(boardID string) {
	s.mu.Lock()
	st, ok := s.states[boardID]
	if !ok {
		s.mu.Unlock()
		return
	}
	latest := st.latest
	history := make([]string, len(st.history))
	copy(history, st.history)
	s.mu.Unlock()

	if err := s.boards.UpdateSnapshot(context.Background(), boardID, latest, history); err != nil {
		s.reportPersistError(boardID, "save", err)
	}
}

func (s *CanvasService) reportPersistError(boardID, op string, err error) {
	s.logger.Error("canvas persistence failed",
		zap.String("board_id", boardID),
		zap.String("op", op),
		zap.Error(err))
	if s.onPersistError != nil {
		s.onPersistError()
	}
}
