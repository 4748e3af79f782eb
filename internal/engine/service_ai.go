package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cowrite/engine/internal/ot"
	"cowrite/engine/internal/rbac"
)

// AssistedInsert asks the AI collaborator for content and applies it as an
// ordinary insert. The generation call happens outside any room lock; by
// the time it returns the room may have moved on, so the insert carries the
// version captured up front and is re-transformed like any concurrent edit.
// A failed or cancelled generation applies no operation.
func (s *Service) AssistedInsert(ctx context.Context, roomID, userID, prompt string, position int) (ot.Operation, error) {
	room, err := s.room(roomID)
	if err != nil {
		return ot.Operation{}, err
	}

	// Fail fast before paying for a generation the room would reject.
	participant, ok := room.ParticipantByUser(userID)
	if !ok {
		return ot.Operation{}, permissionDenied("user is not a participant", map[string]any{"userId": userID})
	}
	if !rbac.Can(room.EffectiveRole(participant), rbac.ActionWrite) {
		return ot.Operation{}, permissionDenied("role does not permit editing", map[string]any{
			"userId": userID,
			"role":   string(participant.Role),
		})
	}
	if s.generator == nil {
		return ot.Operation{}, generationFailed("no generator configured")
	}

	baseVersion := room.Version()
	contextText := room.Content()

	text, err := s.generator.GenerateText(ctx, prompt, contextText)
	if err != nil {
		return ot.Operation{}, generationFailed(err.Error())
	}

	op := ot.Operation{
		ID:          uuid.NewString(),
		Type:        ot.OpInsert,
		UserID:      userID,
		Position:    position,
		Content:     text,
		Timestamp:   time.Now(),
		BaseVersion: baseVersion,
		Metadata:    map[string]string{"aiAssisted": "true"},
	}
	return s.ApplyOperation(ctx, roomID, op)
}
