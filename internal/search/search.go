// Package search provides full-text search over room content. A Meilisearch
// backend is preferred; when it is unavailable the service degrades to an
// in-memory scan over the live room set.
package search

// RoomRecord is the indexable projection of a room.
type RoomRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	OwnerID  string `json:"ownerId"`
	IsPublic bool   `json:"isPublic"`
}

// Source yields the current room set for the fallback scanner.
type Source interface {
	SearchableRooms() []RoomRecord
}

type Query struct {
	Text  string
	Limit int
}

type Result struct {
	RoomID  string `json:"roomId"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// Response carries results plus the backend that produced them.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Backend string   `json:"backend"`
}

// Searcher is the backend contract shared by Meilisearch and the scanner.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
}
