package domain

// Role defines a participant's capability level on a board.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Action is a board operation subject to authorization.
type Action string

const (
	ActionDraw       Action = "draw"
	ActionSaveCanvas Action = "save-canvas"
	ActionClearBoard Action = "clear-board"
	ActionChangeRole Action = "change-role"
	ActionCursorMove Action = "cursor-move"
	ActionHeartbeat  Action = "heartbeat"
	ActionJoin       Action = "join"
	ActionLeave      Action = "leave"
)

// capabilities is the single authorization table. Everything not listed
// here is denied.
var capabilities = map[Action]map[Role]bool{
	ActionDraw:       {RoleAdmin: true, RoleEditor: true},
	ActionSaveCanvas: {RoleAdmin: true, RoleEditor: true},
	ActionClearBoard: {RoleAdmin: true, RoleEditor: true},
	ActionChangeRole: {RoleAdmin: true},
	ActionCursorMove: {RoleAdmin: true, RoleEditor: true, RoleViewer: true},
	ActionHeartbeat:  {RoleAdmin: true, RoleEditor: true, RoleViewer: true},
	ActionJoin:       {RoleAdmin: true, RoleEditor: true, RoleViewer: true},
	ActionLeave:      {RoleAdmin: true, RoleEditor: true, RoleViewer: true},
}

// Permit reports whether role may perform action.
func Permit(role Role, action Action) bool {
	return capabilities[action][role]
}
