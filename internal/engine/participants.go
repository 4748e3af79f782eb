package engine

import (
	"strconv"
	"time"

	"cowrite/engine/internal/rbac"
	"cowrite/engine/internal/util"
)

// Participant is a user's membership record within one room.
type Participant struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Role           rbac.Role `json:"role"`
	CursorPosition int       `json:"cursorPosition"`
	SelectionStart int       `json:"selectionStart"`
	SelectionEnd   int       `json:"selectionEnd"`
	Color          string    `json:"color"`
	IsActive       bool      `json:"isActive"`
	JoinedAt       time.Time `json:"joinedAt"`
	LastActive     time.Time `json:"lastActive"`
}

// palette is the fixed set of participant colors. A user always hashes to
// the same entry, so colors survive reconnects without being persisted.
var palette = [...]string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#808000",
}

func colorFor(userID string) string {
	n, err := strconv.ParseUint(util.ShortHash(userID)[:8], 16, 64)
	if err != nil {
		return palette[0]
	}
	return palette[n%uint64(len(palette))]
}
