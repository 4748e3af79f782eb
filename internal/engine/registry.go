package engine

import (
	"sync"

	"cowrite/engine/internal/metrics"
	"cowrite/engine/internal/search"
)

// RoomOptions carries optional settings for room creation.
type RoomOptions struct {
	MaxParticipants int
	IsPublic        bool
	InitialContent  string
	Metadata        map[string]string
}

// Registry exclusively owns the room collection. Rooms are never destroyed
// here; lifecycle policy belongs to an external collaborator.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

func (g *Registry) Create(name, ownerID string, opts RoomOptions) *Room {
	room := newRoom(name, ownerID, opts)
	g.mu.Lock()
	g.rooms[room.ID] = room
	metrics.RoomsActive.Set(float64(len(g.rooms)))
	g.mu.Unlock()
	return room
}

// Register inserts a pre-built room, used by the import path.
func (g *Registry) Register(room *Room) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.rooms[room.ID]; exists {
		return false
	}
	g.rooms[room.ID] = room
	metrics.RoomsActive.Set(float64(len(g.rooms)))
	return true
}

func (g *Registry) Get(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[id]
	return room, ok
}

func (g *Registry) List() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		out = append(out, room)
	}
	return out
}

func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// SearchableRooms implements search.Source for the fallback scanner.
func (g *Registry) SearchableRooms() []search.RoomRecord {
	rooms := g.List()
	records := make([]search.RoomRecord, 0, len(rooms))
	for _, room := range rooms {
		records = append(records, search.RoomRecord{
			ID:       room.ID,
			Name:     room.Name,
			Content:  room.Content(),
			OwnerID:  room.OwnerID,
			IsPublic: room.IsPublic,
		})
	}
	return records
}
