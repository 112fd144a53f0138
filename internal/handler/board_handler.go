// internal/handler/board_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"whiteboard-service/internal/domain"
	"whiteboard-service/internal/service"
)

type BoardHandler struct {
	boardService service.BoardService
}

func NewBoardHandler(boardService service.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// JoinBoard godoc
// @Summary      Create or join a board
// @Description  Resolves the board by its normalized name, creating it on first use, and registers the caller as a participant
// @Tags         board
// @Accept       json
// @Produce      json
// @Param        request body JoinBoardRequest true "Join request"
// @Success      200 {object} JoinBoardResponse
// @Failure      400 {object} map[string]string
// @Failure      500 {object} map[string]string
// @Router       /join [post]
func (h *BoardHandler) JoinBoard(c *gin.Context) {
	var req JoinBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, user, err := h.boardService.CreateOrJoin(c.Request.Context(), req.BoardName, req.Username, domain.Role(req.Role))
	if err != nil {
		if errors.Is(err, service.ErrInvalidBoardName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, JoinBoardResponse{
		Board: ToBoardResponse(board),
		User:  ToParticipantResponse(user),
	})
}

// GetBoard godoc
// @Summary      Get a board
// @Description  Returns a board with its latest persisted canvas snapshot
// @Tags         board
// @Produce      json
// @Param        boardId path string true "Board ID" example:"sprint-planning"
// @Success      200 {object} BoardResponse
// @Failure      404 {object} map[string]string
// @Failure      500 {object} map[string]string
// @Router       /{boardId} [get]
func (h *BoardHandler) GetBoard(c *gin.Context) {
	boardID := c.Param("boardId")

	board, err := h.boardService.GetBoard(c.Request.Context(), boardID)
	if err != nil {
		if errors.Is(err, service.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ToBoardResponse(board))
}

// GetActiveUsers godoc
// @Summary      List active participants
// @Description  Returns participants whose last activity falls within the liveness window
// @Tags         board
// @Produce      json
// @Param        boardId path string true "Board ID" example:"sprint-planning"
// @Success      200 {array} ParticipantResponse
// @Failure      500 {object} map[string]string
// @Router       /{boardId}/users [get]
func (h *BoardHandler) GetActiveUsers(c *gin.Context) {
	boardID := c.Param("boardId")

	users, err := h.boardService.ActiveUsers(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ToParticipantResponses(users))
}
