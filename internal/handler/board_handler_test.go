package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-service/internal/domain"
	"whiteboard-service/internal/service"
)

// MockBoardService is a function-field mock of service.BoardService.
type MockBoardService struct {
	CreateOrJoinFunc func(ctx context.Context, boardName, username string, role domain.Role) (*domain.Board, *domain.Participant, error)
	GetBoardFunc     func(ctx context.Context, boardID string) (*domain.Board, error)
	ActiveUsersFunc  func(ctx context.Context, boardID string) ([]domain.Participant, error)
}

func (m *MockBoardService) CreateOrJoin(ctx context.Context, boardName, username string, role domain.Role) (*domain.Board, *domain.Participant, error) {
	return m.CreateOrJoinFunc(ctx, boardName, username, role)
}

func (m *MockBoardService) GetBoard(ctx context.Context, boardID string) (*domain.Board, error) {
	return m.GetBoardFunc(ctx, boardID)
}

func (m *MockBoardService) ActiveUsers(ctx context.Context, boardID string) ([]domain.Participant, error) {
	return m.ActiveUsersFunc(ctx, boardID)
}

func setupRouter(svc service.BoardService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBoardHandler(svc)

	r := gin.New()
	r.POST("/join", h.JoinBoard)
	r.GET("/:boardId", h.GetBoard)
	r.GET("/:boardId/users", h.GetActiveUsers)
	return r
}

func TestJoinBoardSuccess(t *testing.T) {
	svc := &MockBoardService{
		CreateOrJoinFunc: func(ctx context.Context, boardName, username string, role domain.Role) (*domain.Board, *domain.Participant, error) {
			assert.Equal(t, "Sprint Planning", boardName)
			assert.Equal(t, "alice", username)
			assert.Equal(t, domain.RoleAdmin, role)
			return &domain.Board{BoardID: "sprint-planning", Name: boardName},
				&domain.Participant{Username: username, BoardID: "sprint-planning", Role: role, Color: "#aabbcc"},
				nil
		},
	}

	w := httptest.NewRecorder()
	body := `{"boardName": "Sprint Planning", "username": "alice", "role": "admin"}`
	req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp JoinBoardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sprint-planning", resp.Board.BoardID)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "admin", resp.User.Role)
	assert.Equal(t, "#aabbcc", resp.User.Color)
}

func TestJoinBoardMissingFields(t *testing.T) {
	svc := &MockBoardService{
		CreateOrJoinFunc: func(ctx context.Context, boardName, username string, role domain.Role) (*domain.Board, *domain.Participant, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, nil, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(`{"boardName": "X"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinBoardBlankNameRejected(t *testing.T) {
	svc := &MockBoardService{
		CreateOrJoinFunc: func(ctx context.Context, boardName, username string, role domain.Role) (*domain.Board, *domain.Participant, error) {
			return nil, nil, service.ErrInvalidBoardName
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(`{"boardName": "   ", "username": "alice"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBoardSuccess(t *testing.T) {
	svc := &MockBoardService{
		GetBoardFunc: func(ctx context.Context, boardID string) (*domain.Board, error) {
			assert.Equal(t, "sprint-planning", boardID)
			return &domain.Board{BoardID: boardID, Name: "Sprint Planning", CanvasData: "snapshot"}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sprint-planning", nil)
	setupRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp BoardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "snapshot", resp.CanvasData)
}

func TestGetBoardNotFound(t *testing.T) {
	svc := &MockBoardService{
		GetBoardFunc: func(ctx context.Context, boardID string) (*domain.Board, error) {
			return nil, service.ErrBoardNotFound
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetActiveUsers(t *testing.T) {
	now := time.Now().UTC()
	svc := &MockBoardService{
		ActiveUsersFunc: func(ctx context.Context, boardID string) ([]domain.Participant, error) {
			return []domain.Participant{
				{Username: "alice", Role: domain.RoleAdmin, Color: "#111111", LastActive: now},
				{Username: "bob", Role: domain.RoleEditor, Color: "#222222", LastActive: now},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sprint-planning/users", nil)
	setupRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []ParticipantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "alice", resp[0].Username)
	assert.Equal(t, "admin", resp[0].Role)
}

func TestGetActiveUsersServiceError(t *testing.T) {
	svc := &MockBoardService{
		ActiveUsersFunc: func(ctx context.Context, boardID string) ([]domain.Participant, error) {
			return nil, errors.New("db down")
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sprint-planning/users", nil)
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
