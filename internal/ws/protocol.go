package ws

import (
	"encoding/json"
	"time"

	"whiteboard-service/internal/domain"
)

// Inbound event types. One JSON object per message, discriminated by
// "type"; draw payloads are passed through opaquely.
const (
	EventJoinBoard  = "join-board"
	EventDraw       = "draw"
	EventSaveCanvas = "save-canvas"
	EventClearBoard = "clear-board"
	EventCursorMove = "cursor-move"
	EventChangeRole = "change-role"
	EventHeartbeat  = "heartbeat"
	EventUndo       = "undo"
	EventRedo       = "redo"

	// eventLeave is synthesized by the transport on disconnect; it is
	// never parsed off the wire.
	eventLeave = "leave"
)

// Outbound event types.
const (
	EventJoinedBoard     = "joined-board"
	EventUserJoined      = "user-joined"
	EventUsersUpdate     = "users-update"
	EventCanvasUpdated   = "canvas-updated"
	EventBoardCleared    = "board-cleared"
	EventCursorUpdate    = "cursor-update"
	EventRoleChanged     = "role-changed"
	EventUserLeft        = "user-left"
	EventHistorySnapshot = "history-snapshot"
	EventError           = "error"
)

// UserInfo is the public view of a participant carried in broadcasts.
type UserInfo struct {
	Username   string      `json:"username"`
	Role       domain.Role `json:"role"`
	Color      string      `json:"color"`
	LastActive time.Time   `json:"lastActive"`
}

func marshal(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func joinedBoardMsg(canvasData string, user UserInfo) []byte {
	return marshal(map[string]any{
		"type":       EventJoinedBoard,
		"success":    true,
		"canvasData": canvasData,
		"user":       user,
	})
}

func userJoinedMsg(user UserInfo) []byte {
	return marshal(map[string]any{
		"type":     EventUserJoined,
		"username": user.Username,
		"color":    user.Color,
		"role":     user.Role,
	})
}

func usersUpdateMsg(users []UserInfo) []byte {
	return marshal(map[string]any{
		"type":  EventUsersUpdate,
		"users": users,
	})
}

func canvasUpdatedMsg(canvasData string) []byte {
	return marshal(map[string]any{
		"type":       EventCanvasUpdated,
		"canvasData": canvasData,
	})
}

func boardClearedMsg(username string) []byte {
	return marshal(map[string]any{
		"type":     EventBoardCleared,
		"username": username,
	})
}

func cursorUpdateMsg(cursor domain.Cursor) []byte {
	return marshal(map[string]any{
		"type":     EventCursorUpdate,
		"x":        cursor.X,
		"y":        cursor.Y,
		"username": cursor.Username,
		"color":    cursor.Color,
		"socketId": cursor.SocketID,
	})
}

func roleChangedMsg(username string, newRole domain.Role, changedBy string) []byte {
	return marshal(map[string]any{
		"type":      EventRoleChanged,
		"username":  username,
		"newRole":   newRole,
		"changedBy": changedBy,
	})
}

func userLeftMsg(username string) []byte {
	return marshal(map[string]any{
		"type":     EventUserLeft,
		"username": username,
	})
}

func historySnapshotMsg(canvasData string, position int) []byte {
	return marshal(map[string]any{
		"type":       EventHistorySnapshot,
		"canvasData": canvasData,
		"position":   position,
	})
}

func errorMsg(message string) []byte {
	return marshal(map[string]any{
		"type":    EventError,
		"message": message,
	})
}

// relayEnvelope wraps a broadcast for the cross-instance Redis channel so
// the publishing instance can skip its own copy.
type relayEnvelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func str(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func num(data map[string]any, key string) float64 {
	n, _ := data[key].(float64)
	return n
}
