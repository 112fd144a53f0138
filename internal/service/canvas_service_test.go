package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"whiteboard-service/internal/domain"
)

// snapshotRecorder counts durable writes behind a mutex so tests can
// assert on debounce coalescing.
type snapshotRecorder struct {
	mu      sync.Mutex
	saves   int
	latest  string
	history []string
	fail    error
}

func (r *snapshotRecorder) record(canvasData string, history []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.saves++
	r.latest = canvasData
	r.history = history
	return nil
}

func (r *snapshotRecorder) snapshot() (int, string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves, r.latest, r.history
}

func newRecordedCanvasService(t *testing.T, historyLimit int, debounce time.Duration) (*CanvasService, *snapshotRecorder) {
	t.Helper()
	rec := &snapshotRecorder{}
	boards := &MockBoardRepository{
		UpdateSnapshotFunc: func(ctx context.Context, boardID, canvasData string, history []string) error {
			return rec.record(canvasData, history)
		},
		ClearSnapshotFunc: func(ctx context.Context, boardID string) error {
			return rec.record("", []string{})
		},
	}
	return NewCanvasService(boards, historyLimit, debounce, zap.NewNop()), rec
}

func TestCanvasSaveRejectsEmptySnapshot(t *testing.T) {
	svc, _ := newRecordedCanvasService(t, 5, 0)

	err := svc.Save(context.Background(), "board", "")
	assert.ErrorIs(t, err, ErrEmptySnapshot)
	assert.Empty(t, svc.Snapshot(context.Background(), "board"))
}

func TestCanvasSaveCommitsSynchronously(t *testing.T) {
	svc, _ := newRecordedCanvasService(t, 5, time.Hour)

	require.NoError(t, svc.Save(context.Background(), "board", "v1"))

	// Visible immediately, even though the durable write is still pending.
	assert.Equal(t, "v1", svc.Snapshot(context.Background(), "board"))
	assert.Equal(t, []string{"v1"}, svc.History(context.Background(), "board"))
}

func TestCanvasHistoryEvictsOldestPastCap(t *testing.T) {
	svc, _ := newRecordedCanvasService(t, 3, 0)

	for i := 1; i <= 5; i++ {
		require.NoError(t, svc.Save(context.Background(), "board", fmt.Sprintf("v%d", i)))
	}

	assert.Equal(t, "v5", svc.Snapshot(context.Background(), "board"))
	assert.Equal(t, []string{"v3", "v4", "v5"}, svc.History(context.Background(), "board"))
}

func TestCanvasSaveDebounceCoalesces(t *testing.T) {
	svc, rec := newRecordedCanvasService(t, 10, 30*time.Millisecond)

	for i := 1; i <= 5; i++ {
		require.NoError(t, svc.Save(context.Background(), "board", fmt.Sprintf("v%d", i)))
	}

	require.Eventually(t, func() bool {
		saves, _, _ := rec.snapshot()
		return saves > 0
	}, time.Second, 5*time.Millisecond)

	saves, latest, history := rec.snapshot()
	assert.Equal(t, 1, saves, "rapid saves should coalesce into one durable write")
	assert.Equal(t, "v5", latest)
	assert.Len(t, history, 5)
}

func TestCanvasClearWipesStateAndHistory(t *testing.T) {
	svc, rec := newRecordedCanvasService(t, 5, 0)

	require.NoError(t, svc.Save(context.Background(), "board", "v1"))
	svc.Clear(context.Background(), "board")

	assert.Empty(t, svc.Snapshot(context.Background(), "board"))
	assert.Empty(t, svc.History(context.Background(), "board"))

	_, latest, history := rec.snapshot()
	assert.Empty(t, latest)
	assert.Empty(t, history)
}

func TestCanvasClearFailureKeepsInMemoryReset(t *testing.T) {
	rec := &snapshotRecorder{fail: errors.New("db down")}
	boards := &MockBoardRepository{
		ClearSnapshotFunc: func(ctx context.Context, boardID string) error {
			return rec.record("", nil)
		},
	}
	svc := NewCanvasService(boards, 5, 0, zap.NewNop())

	var hookCalls int
	svc.SetPersistErrorHook(func() { hookCalls++ })

	require.NoError(t, svc.Save(context.Background(), "board", "v1"))
	svc.Clear(context.Background(), "board")

	assert.Empty(t, svc.Snapshot(context.Background(), "board"))
	assert.Equal(t, 1, hookCalls)
}

func TestCanvasLoadsPersistedStateOnFirstTouch(t *testing.T) {
	boards := &MockBoardRepository{
		GetByIDFunc: func(ctx context.Context, boardID string) (*domain.Board, error) {
			return &domain.Board{
				BoardID:         boardID,
				CanvasData:      "persisted",
				SnapshotHistory: []string{"old", "persisted"},
			}, nil
		},
	}
	svc := NewCanvasService(boards, 5, 0, zap.NewNop())

	assert.Equal(t, "persisted", svc.Snapshot(context.Background(), "board"))
	assert.Equal(t, []string{"old", "persisted"}, svc.History(context.Background(), "board"))
}
