package domain

// HistoryCursor is one connection's position inside a board's snapshot
// history. Each participant steps independently; positions are never
// synchronized across clients, only the broadcast snapshot converges.
type HistoryCursor struct {
	pos int
}

// NewHistoryCursor starts at the newest entry of a history of the given
// length.
func NewHistoryCursor(length int) HistoryCursor {
	if length < 1 {
		return HistoryCursor{pos: 0}
	}
	return HistoryCursor{pos: length - 1}
}

// Pos returns the current index.
func (c HistoryCursor) Pos() int {
	return c.pos
}

// Step moves the cursor by delta over a history of the given length,
// clamped to [0, length-1]. Moving past either end is a no-op; the second
// return reports whether the cursor actually moved.
func (c HistoryCursor) Step(delta, length int) (HistoryCursor, bool) {
	if length < 1 {
		return HistoryCursor{pos: 0}, false
	}
	next := c.pos + delta
	if next < 0 || next > length-1 {
		// Clamp the stored position in case the history shrank underneath
		// us, but report no movement for an out-of-range step.
		if c.pos > length-1 {
			return HistoryCursor{pos: length - 1}, false
		}
		return c, false
	}
	return HistoryCursor{pos: next}, next != c.pos
}

// Reset moves the cursor back to an initial position (used after the board
// is cleared and its history truncated).
func (c HistoryCursor) Reset() HistoryCursor {
	return HistoryCursor{pos: 0}
}
