// internal/handler/dto.go
package handler

import (
	"time"

	"whiteboard-service/internal/domain"
)

// JoinBoardRequest creates or joins a board by display name.
type JoinBoardRequest struct {
	BoardName string `json:"boardName" binding:"required" example:"Sprint Planning"`
	Username  string `json:"username" binding:"required" example:"alice"`
	Role      string `json:"role" example:"editor" enums:"admin,editor,viewer"`
} // @name JoinBoardRequest

// BoardResponse is the board API response DTO.
type BoardResponse struct {
	BoardID    string    `json:"boardId" example:"sprint-planning"`
	Name       string    `json:"name" example:"Sprint Planning"`
	CanvasData string    `json:"canvasData,omitempty"`
	CreatedBy  string    `json:"createdBy,omitempty" example:"alice"`
	CreatedAt  time.Time `json:"createdAt" example:"2025-11-20T12:00:00Z"`
	UpdatedAt  time.Time `json:"updatedAt" example:"2025-11-20T12:00:00Z"`
} // @name BoardResponse

// ParticipantResponse is the participant API response DTO.
type ParticipantResponse struct {
	Username   string    `json:"username" example:"alice"`
	Role       string    `json:"role" example:"editor" enums:"admin,editor,viewer"`
	Color      string    `json:"color" example:"#e04f6e"`
	LastActive time.Time `json:"lastActive" example:"2025-11-20T12:00:00Z"`
} // @name ParticipantResponse

// JoinBoardResponse bundles the resolved board with the caller's assigned
// identity.
type JoinBoardResponse struct {
	Board BoardResponse       `json:"board"`
	User  ParticipantResponse `json:"user"`
} // @name JoinBoardResponse

// ToBoardResponse converts domain.Board to BoardResponse.
func ToBoardResponse(board *domain.Board) BoardResponse {
	return BoardResponse{
		BoardID:    board.BoardID,
		Name:       board.Name,
		CanvasData: board.CanvasData,
		CreatedBy:  board.CreatedBy,
		CreatedAt:  board.CreatedAt,
		UpdatedAt:  board.UpdatedAt,
	}
}

// ToParticipantResponse converts domain.Participant to ParticipantResponse.
func ToParticipantResponse(p *domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		Username:   p.Username,
		Role:       string(p.Role),
		Color:      p.Color,
		LastActive: p.LastActive,
	}
}

// ToParticipantResponses converts []domain.Participant to
// []ParticipantResponse.
func ToParticipantResponses(participants []domain.Participant) []ParticipantResponse {
	responses := make([]ParticipantResponse, len(participants))
	for i := range participants {
		responses[i] = ToParticipantResponse(&participants[i])
	}
	return responses
}
