// Package ot implements the operation model and operational transformation
// rules for concurrent edits against a shared text buffer.
package ot

import (
	"errors"
	"fmt"
	"time"
)

type Type string

const (
	OpInsert Type = "insert"
	OpDelete Type = "delete"
	OpUpdate Type = "update"
)

// ErrOutOfBounds is returned when an operation's position or length does not
// fit the content it is applied to. Out-of-bounds operations are rejected,
// never clamped.
var ErrOutOfBounds = errors.New("operation out of bounds")

// Operation is a single edit against a room's content. Once committed to a
// room's history it is immutable.
type Operation struct {
	ID          string            `json:"id"`
	Type        Type              `json:"type"`
	UserID      string            `json:"userId"`
	Position    int               `json:"position"`
	Content     string            `json:"content,omitempty"`
	Length      int               `json:"length,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	ClientID    string            `json:"clientId,omitempty"`
	RoomID      string            `json:"roomId,omitempty"`
	BaseVersion int               `json:"baseVersion"`
	// Sequence is assigned at commit time and increases strictly per room.
	// Transformation is ordered by sequence, not by wall-clock timestamps.
	Sequence int               `json:"sequence,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Apply applies op to content and returns the new content. Bounds are
// checked against the content as it is now; the caller is expected to have
// transformed op first.
func Apply(content string, op Operation) (string, error) {
	switch op.Type {
	case OpInsert:
		if op.Position < 0 || op.Position > len(content) {
			return "", fmt.Errorf("%w: insert at %d, content length %d", ErrOutOfBounds, op.Position, len(content))
		}
		return content[:op.Position] + op.Content + content[op.Position:], nil
	case OpDelete:
		if op.Position < 0 || op.Length < 0 || op.Position+op.Length > len(content) {
			return "", fmt.Errorf("%w: delete [%d,%d), content length %d", ErrOutOfBounds, op.Position, op.Position+op.Length, len(content))
		}
		return content[:op.Position] + content[op.Position+op.Length:], nil
	case OpUpdate:
		if op.Position < 0 || op.Length < 0 || op.Position+op.Length > len(content) {
			return "", fmt.Errorf("%w: update [%d,%d), content length %d", ErrOutOfBounds, op.Position, op.Position+op.Length, len(content))
		}
		return content[:op.Position] + op.Content + content[op.Position+op.Length:], nil
	default:
		return "", fmt.Errorf("unknown operation type: %s", op.Type)
	}
}
