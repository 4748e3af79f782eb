package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"cowrite/engine/internal/metrics"
	"cowrite/engine/internal/ot"
	"cowrite/engine/internal/rbac"
	"cowrite/engine/internal/search"
	"cowrite/engine/internal/util"
)

// Snapshot is the export/import representation of one room. The persistence
// collaborator consumes these; the inverse import path restores them.
type Snapshot struct {
	RoomID          string            `json:"roomId"`
	Name            string            `json:"name"`
	OwnerID         string            `json:"ownerId"`
	MaxParticipants int               `json:"maxParticipants"`
	IsPublic        bool              `json:"isPublic"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Content         string            `json:"content"`
	Version         int               `json:"version"`
	Operations      []ot.Operation    `json:"operations"`
	Participants    []Participant     `json:"participants"`
	ExportedAt      time.Time         `json:"exportedAt"`
}

// Stats is the aggregate view over the whole registry.
type Stats struct {
	Rooms               int `json:"rooms"`
	Participants        int `json:"participants"`
	ActiveParticipants  int `json:"activeParticipants"`
	Operations          int `json:"operations"`
	Events              int `json:"events"`
	ConflictResolutions int `json:"conflictResolutions"`
}

// Broadcaster delivers committed operations to the transport layer, which
// must relay them to other participants in exactly this order.
type Broadcaster interface {
	Broadcast(roomID string, op ot.Operation, version int)
}

// Archiver is the optional persistence collaborator.
type Archiver interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	ArchiveOperation(ctx context.Context, op ot.Operation) error
	LoadSnapshot(ctx context.Context, roomID string) (Snapshot, error)
}

// Historian records exported snapshots into per-room version history.
type Historian interface {
	CommitSnapshot(roomID string, snap Snapshot, author, message string) (string, error)
}

// PresenceMirror mirrors participant liveness into an external store so
// presence UIs can read it without calling into the engine.
type PresenceMirror interface {
	SetPresence(ctx context.Context, roomID, userID string, active bool, cursor int) error
	RemovePresence(ctx context.Context, roomID, userID string) error
}

// Generator produces AI-assisted content. Failures degrade to "no operation
// applied"; they are never a room-level fault.
type Generator interface {
	GenerateText(ctx context.Context, prompt, contextText string) (string, error)
}

// Collaborators bundles the optional external services; any field may be nil.
type Collaborators struct {
	Search    *search.Service
	Archive   Archiver
	History   Historian
	Presence  PresenceMirror
	Broadcast Broadcaster
	Generator Generator
}

// Service is the collaboration engine's public surface.
type Service struct {
	registry *Registry
	events   *EventLog
	resolver *Resolver

	search    *search.Service
	archive   Archiver
	history   Historian
	presence  PresenceMirror
	broadcast Broadcaster
	generator Generator

	resMu       sync.Mutex
	resolutions []Resolution
}

func New(registry *Registry, eventLogCap int, c Collaborators) *Service {
	return &Service{
		registry:  registry,
		events:    NewEventLog(eventLogCap),
		resolver:  NewResolver(),
		search:    c.Search,
		archive:   c.Archive,
		history:   c.History,
		presence:  c.Presence,
		broadcast: c.Broadcast,
		generator: c.Generator,
	}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// CreateRoom creates a room and admits the owner as its first participant.
func (s *Service) CreateRoom(name, ownerID string, opts RoomOptions) (*Room, error) {
	if name == "" || ownerID == "" {
		return nil, validationError("name and ownerId are required", nil)
	}
	room := s.registry.Create(name, ownerID, opts)
	if _, err := room.AddParticipant(ownerID, string(rbac.RoleOwner)); err != nil {
		return nil, err
	}
	s.emit(room.ID, ownerID, EventJoin, "owner created room")
	s.indexRoom(room)
	return room, nil
}

func (s *Service) AddParticipant(ctx context.Context, roomID, userID, role string) (Participant, error) {
	room, err := s.room(roomID)
	if err != nil {
		return Participant{}, err
	}
	participant, err := room.AddParticipant(userID, role)
	if err != nil {
		return Participant{}, err
	}
	s.emit(roomID, userID, EventJoin, string(participant.Role))
	s.mirrorPresence(ctx, roomID, userID, true, participant.CursorPosition)
	return participant, nil
}

func (s *Service) RemoveParticipant(ctx context.Context, roomID, participantID string) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	participant, ok := room.RemoveParticipant(participantID)
	if !ok {
		return validationError("unknown participant", map[string]any{"participantId": participantID})
	}
	s.emit(roomID, participant.UserID, EventLeave, "")
	if s.presence != nil {
		if err := s.presence.RemovePresence(ctx, roomID, participant.UserID); err != nil {
			log.Printf("engine: presence remove for %s: %v", participant.UserID, err)
		}
	}
	return nil
}

// ApplyOperation commits one edit: validate, transform, mutate, append,
// emit. Every mutating call gets an explicit success(operation) or
// failure(reason) outcome; on failure the room is unchanged.
func (s *Service) ApplyOperation(ctx context.Context, roomID string, op ot.Operation) (ot.Operation, error) {
	room, err := s.room(roomID)
	if err != nil {
		metrics.RecordRejection(CodeRoomNotFound)
		return ot.Operation{}, err
	}

	committed, err := room.ApplyOperation(op)
	if err != nil {
		if derr, ok := err.(*DomainError); ok {
			metrics.RecordRejection(derr.Code)
		}
		return ot.Operation{}, err
	}

	metrics.RecordOperation(string(committed.Type))
	s.emit(roomID, committed.UserID, EventOperation, fmt.Sprintf("%s@%d", committed.Type, committed.Position))
	s.indexRoom(room)
	if s.archive != nil {
		if err := s.archive.ArchiveOperation(ctx, committed); err != nil {
			log.Printf("engine: archive operation %s: %v", committed.ID, err)
		}
	}
	if s.broadcast != nil {
		s.broadcast.Broadcast(roomID, committed, committed.Sequence)
	}
	return committed, nil
}

// ResolveConflict picks a winner via the named strategy and routes it
// through ApplyOperation; resolution never bypasses validation or
// transformation.
func (s *Service) ResolveConflict(ctx context.Context, roomID string, opA, opB ot.Operation, strategyName, resolvedBy string) (Resolution, error) {
	strategy, name, ok := s.resolver.pick(strategyName)
	if !ok {
		return Resolution{}, conflictResolutionFailed(strategyName)
	}

	winner := strategy(opA, opB)
	committed, err := s.ApplyOperation(ctx, roomID, winner)
	if err != nil {
		return Resolution{}, err
	}

	resolution := Resolution{
		ID:         util.NewID("res"),
		RoomID:     roomID,
		Strategy:   name,
		OpA:        opA,
		OpB:        opB,
		Resolved:   committed,
		ResolvedBy: resolvedBy,
		ResolvedAt: committed.Timestamp,
	}
	s.resMu.Lock()
	s.resolutions = append(s.resolutions, resolution)
	s.resMu.Unlock()
	metrics.RecordConflict(name)
	return resolution, nil
}

func (s *Service) UpdateCursorPosition(ctx context.Context, roomID, participantID string, position int) (Participant, error) {
	room, err := s.room(roomID)
	if err != nil {
		return Participant{}, err
	}
	participant, err := room.UpdateCursor(participantID, position)
	if err != nil {
		return Participant{}, err
	}
	s.mirrorPresence(ctx, roomID, participant.UserID, participant.IsActive, position)
	return participant, nil
}

func (s *Service) UpdateSelectionRange(ctx context.Context, roomID, participantID string, start, end int) (Participant, error) {
	room, err := s.room(roomID)
	if err != nil {
		return Participant{}, err
	}
	participant, err := room.UpdateSelection(participantID, start, end)
	if err != nil {
		return Participant{}, err
	}
	s.emit(roomID, participant.UserID, EventSelection, fmt.Sprintf("[%d,%d)", start, end))
	return participant, nil
}

func (s *Service) UpdatePresence(ctx context.Context, roomID, participantID string, active bool) (Participant, error) {
	room, err := s.room(roomID)
	if err != nil {
		return Participant{}, err
	}
	participant, err := room.UpdatePresence(participantID, active)
	if err != nil {
		return Participant{}, err
	}
	s.emit(roomID, participant.UserID, EventPresence, fmt.Sprintf("active=%t", active))
	s.mirrorPresence(ctx, roomID, participant.UserID, active, participant.CursorPosition)
	return participant, nil
}

// AddComment records a comment event for any participant of the room.
func (s *Service) AddComment(roomID, userID, body string) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipantUser(userID) {
		return permissionDenied("user is not a participant", map[string]any{"userId": userID})
	}
	if body == "" {
		return validationError("comment body is required", nil)
	}
	s.emit(roomID, userID, EventComment, body)
	return nil
}

func (s *Service) GetRoomState(roomID string) (RoomState, error) {
	room, err := s.room(roomID)
	if err != nil {
		return RoomState{}, err
	}
	return room.State(), nil
}

func (s *Service) GetRoomEvents(roomID string, limit int) ([]Event, error) {
	if _, err := s.room(roomID); err != nil {
		return nil, err
	}
	return s.events.Room(roomID, limit), nil
}

// SearchContent searches room content visible to userID: public rooms plus
// rooms the user participates in.
func (s *Service) SearchContent(userID, query string) []search.Result {
	if s.search == nil {
		return []search.Result{}
	}
	response := s.search.Search(search.Query{Text: query, Limit: 20})
	filtered := make([]search.Result, 0, len(response.Results))
	for _, result := range response.Results {
		room, ok := s.registry.Get(result.RoomID)
		if !ok {
			continue
		}
		if room.IsPublic || room.HasParticipantUser(userID) {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

func (s *Service) Stats() Stats {
	stats := Stats{Rooms: s.registry.Count(), Events: s.events.Len()}
	for _, room := range s.registry.List() {
		state := room.State()
		stats.Participants += len(state.Participants)
		stats.Operations += len(state.Operations)
		for _, p := range state.Participants {
			if p.IsActive {
				stats.ActiveParticipants++
			}
		}
	}
	s.resMu.Lock()
	stats.ConflictResolutions = len(s.resolutions)
	s.resMu.Unlock()
	return stats
}

func (s *Service) Resolutions() []Resolution {
	s.resMu.Lock()
	defer s.resMu.Unlock()
	out := make([]Resolution, len(s.resolutions))
	copy(out, s.resolutions)
	return out
}

// ExportRoom builds a snapshot and hands it to the persistence and history
// collaborators best-effort.
func (s *Service) ExportRoom(ctx context.Context, roomID string) (Snapshot, error) {
	room, err := s.room(roomID)
	if err != nil {
		return Snapshot{}, err
	}
	state := room.State()
	snap := Snapshot{
		RoomID:          room.ID,
		Name:            room.Name,
		OwnerID:         room.OwnerID,
		MaxParticipants: room.MaxParticipants,
		IsPublic:        room.IsPublic,
		Metadata:        room.Metadata,
		Content:         state.Content,
		Version:         state.Version,
		Operations:      state.Operations,
		Participants:    state.Participants,
		ExportedAt:      time.Now(),
	}
	if s.archive != nil {
		if err := s.archive.SaveSnapshot(ctx, snap); err != nil {
			log.Printf("engine: save snapshot for %s: %v", roomID, err)
		}
	}
	if s.history != nil {
		if _, err := s.history.CommitSnapshot(roomID, snap, room.OwnerID, "Export room snapshot"); err != nil {
			log.Printf("engine: commit snapshot for %s: %v", roomID, err)
		}
	}
	return snap, nil
}

// ImportRoom restores a room from a snapshot. The snapshot must satisfy the
// version invariant; the room id must not already be registered.
func (s *Service) ImportRoom(ctx context.Context, snap Snapshot) (*Room, error) {
	if snap.RoomID == "" || snap.Name == "" || snap.OwnerID == "" {
		return nil, validationError("snapshot is missing identity fields", nil)
	}
	if snap.Version != len(snap.Operations) {
		return nil, validationError("snapshot version does not match operation count", map[string]any{
			"version":    snap.Version,
			"operations": len(snap.Operations),
		})
	}

	room := &Room{
		ID:              snap.RoomID,
		Name:            snap.Name,
		OwnerID:         snap.OwnerID,
		MaxParticipants: snap.MaxParticipants,
		IsPublic:        snap.IsPublic,
		Metadata:        snap.Metadata,
		CreatedAt:       time.Now(),
		content:         snap.Content,
		version:         snap.Version,
		operations:      append([]ot.Operation(nil), snap.Operations...),
		participants:    make(map[string]*Participant),
		updatedAt:       time.Now(),
	}
	if room.MaxParticipants <= 0 {
		room.MaxParticipants = 50
	}
	for i := range snap.Participants {
		p := snap.Participants[i]
		room.participants[p.ID] = &p
	}

	if !s.registry.Register(room) {
		return nil, validationError("room id already registered", map[string]any{"roomId": snap.RoomID})
	}
	s.indexRoom(room)
	return room, nil
}

// RestoreRoom loads a room's archived snapshot and registers it as a live
// room, typically after a restart.
func (s *Service) RestoreRoom(ctx context.Context, roomID string) (*Room, error) {
	if s.archive == nil {
		return nil, validationError("no archive configured", nil)
	}
	snap, err := s.archive.LoadSnapshot(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", roomID, err)
	}
	return s.ImportRoom(ctx, snap)
}

func (s *Service) room(roomID string) (*Room, error) {
	room, ok := s.registry.Get(roomID)
	if !ok {
		return nil, roomNotFound(roomID)
	}
	return room, nil
}

func (s *Service) emit(roomID, userID string, eventType EventType, detail string) {
	s.events.Append(Event{
		ID:        util.NewID("evt"),
		RoomID:    roomID,
		UserID:    userID,
		Type:      eventType,
		Detail:    detail,
		Timestamp: time.Now(),
	})
}

func (s *Service) indexRoom(room *Room) {
	if s.search == nil {
		return
	}
	s.search.IndexRoom(search.RoomRecord{
		ID:       room.ID,
		Name:     room.Name,
		Content:  room.Content(),
		OwnerID:  room.OwnerID,
		IsPublic: room.IsPublic,
	})
}

func (s *Service) mirrorPresence(ctx context.Context, roomID, userID string, active bool, cursor int) {
	if s.presence == nil {
		return
	}
	if err := s.presence.SetPresence(ctx, roomID, userID, active, cursor); err != nil {
		log.Printf("engine: presence mirror for %s: %v", userID, err)
	}
}
