package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cowrite/engine/internal/ot"
	"cowrite/engine/internal/rbac"
	"cowrite/engine/internal/util"
)

// Room owns one shared text buffer, its participant set, and its committed
// operation history. version == len(operations) at all times, and content is
// the fold of operations over the initial content.
//
// Room methods serialize through a single mutex: concurrent ApplyOperation
// calls against the same room queue up, calls against different rooms run
// in parallel.
type Room struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	OwnerID         string            `json:"ownerId"`
	MaxParticipants int               `json:"maxParticipants"`
	IsPublic        bool              `json:"isPublic"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`

	mu           sync.Mutex
	content      string
	version      int
	operations   []ot.Operation
	participants map[string]*Participant
	updatedAt    time.Time
}

// RoomState is a point-in-time copy of a room's observable state.
type RoomState struct {
	RoomID       string         `json:"roomId"`
	Name         string         `json:"name"`
	Content      string         `json:"content"`
	Version      int            `json:"version"`
	Participants []Participant  `json:"participants"`
	Operations   []ot.Operation `json:"operations"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func newRoom(name, ownerID string, opts RoomOptions) *Room {
	now := time.Now()
	maxParticipants := opts.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = 50
	}
	return &Room{
		ID:              util.NewID("room"),
		Name:            name,
		OwnerID:         ownerID,
		MaxParticipants: maxParticipants,
		IsPublic:        opts.IsPublic,
		Metadata:        opts.Metadata,
		CreatedAt:       now,
		content:         opts.InitialContent,
		participants:    make(map[string]*Participant),
		updatedAt:       now,
	}
}

// ApplyOperation validates, transforms, and commits one operation. On any
// failure the room is left untouched. The committed operation carries a
// fresh id, a commit timestamp, and the room's next sequence number.
func (r *Room) ApplyOperation(op ot.Operation) (ot.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	participant := r.participantByUserLocked(op.UserID)
	if participant == nil {
		return ot.Operation{}, permissionDenied("user is not a participant", map[string]any{"userId": op.UserID})
	}
	if !rbac.Can(r.effectiveRoleLocked(participant), rbac.ActionWrite) {
		return ot.Operation{}, permissionDenied("role does not permit editing", map[string]any{
			"userId": op.UserID,
			"role":   string(participant.Role),
		})
	}
	if op.Position < 0 || op.Length < 0 {
		return ot.Operation{}, outOfBounds("negative position or length", map[string]any{
			"position": op.Position,
			"length":   op.Length,
		})
	}
	if op.BaseVersion < 0 || op.BaseVersion > r.version {
		return ot.Operation{}, outOfBounds("unknown base version", map[string]any{
			"baseVersion": op.BaseVersion,
			"version":     r.version,
		})
	}

	// Transform against everything committed after the operation's base.
	// History is ordered by commit sequence, never by wall-clock time.
	transformed := ot.Transform(op, r.operations[op.BaseVersion:])

	next, err := ot.Apply(r.content, transformed)
	if err != nil {
		return ot.Operation{}, outOfBounds(err.Error(), map[string]any{
			"position": transformed.Position,
			"length":   transformed.Length,
		})
	}

	commit := transformed
	commit.ID = uuid.NewString()
	commit.Timestamp = time.Now()
	commit.RoomID = r.ID
	commit.Sequence = r.version + 1

	r.content = next
	r.operations = append(r.operations, commit)
	r.version++
	r.updatedAt = commit.Timestamp
	return commit, nil
}

// AddParticipant admits a user, subject only to the capacity rule. Re-adding
// an existing user reactivates the original membership record.
func (r *Room) AddParticipant(userID, role string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.participantByUserLocked(userID); existing != nil {
		existing.IsActive = true
		existing.LastActive = time.Now()
		return *existing, nil
	}
	if len(r.participants) >= r.MaxParticipants {
		return Participant{}, permissionDenied("room is at capacity", map[string]any{
			"maxParticipants": r.MaxParticipants,
		})
	}

	now := time.Now()
	participant := &Participant{
		ID:         util.NewID("prt"),
		UserID:     userID,
		Role:       rbac.Normalize(role),
		Color:      colorFor(userID),
		IsActive:   true,
		JoinedAt:   now,
		LastActive: now,
	}
	r.participants[participant.ID] = participant
	return *participant, nil
}

func (r *Room) RemoveParticipant(participantID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	participant, ok := r.participants[participantID]
	if !ok {
		return Participant{}, false
	}
	delete(r.participants, participantID)
	return *participant, true
}

func (r *Room) UpdateCursor(participantID string, position int) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	participant, ok := r.participants[participantID]
	if !ok {
		return Participant{}, validationError("unknown participant", map[string]any{"participantId": participantID})
	}
	participant.CursorPosition = position
	participant.LastActive = time.Now()
	return *participant, nil
}

func (r *Room) UpdateSelection(participantID string, start, end int) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	participant, ok := r.participants[participantID]
	if !ok {
		return Participant{}, validationError("unknown participant", map[string]any{"participantId": participantID})
	}
	participant.SelectionStart = start
	participant.SelectionEnd = end
	participant.LastActive = time.Now()
	return *participant, nil
}

func (r *Room) UpdatePresence(participantID string, active bool) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	participant, ok := r.participants[participantID]
	if !ok {
		return Participant{}, validationError("unknown participant", map[string]any{"participantId": participantID})
	}
	participant.IsActive = active
	participant.LastActive = time.Now()
	return *participant, nil
}

// EffectiveRole derives the role used for permission checks. The owner is
// always treated as owner regardless of the stored membership role, so the
// two can never drift apart.
func (r *Room) EffectiveRole(p Participant) rbac.Role {
	if p.UserID == r.OwnerID {
		return rbac.RoleOwner
	}
	return p.Role
}

func (r *Room) effectiveRoleLocked(p *Participant) rbac.Role {
	if p.UserID == r.OwnerID {
		return rbac.RoleOwner
	}
	return p.Role
}

func (r *Room) participantByUserLocked(userID string) *Participant {
	for _, p := range r.participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (r *Room) HasParticipantUser(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participantByUserLocked(userID) != nil
}

func (r *Room) ParticipantByUser(userID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.participantByUserLocked(userID); p != nil {
		return *p, true
	}
	return Participant{}, false
}

func (r *Room) Content() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.content
}

func (r *Room) Version() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

func (r *Room) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// State copies the room's observable state under the lock.
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()

	participants := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		participants = append(participants, *p)
	}
	operations := make([]ot.Operation, len(r.operations))
	copy(operations, r.operations)

	return RoomState{
		RoomID:       r.ID,
		Name:         r.Name,
		Content:      r.content,
		Version:      r.version,
		Participants: participants,
		Operations:   operations,
		UpdatedAt:    r.updatedAt,
	}
}
