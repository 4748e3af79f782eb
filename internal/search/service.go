package search

import "log"

// Service fronts the two backends: Meilisearch when healthy, the in-memory
// scanner otherwise. Indexing is fire-and-forget so room mutations never
// block on the search backend.
type Service struct {
	meili   *Meili
	scanner *Scanner
}

func NewService(meili *Meili, scanner *Scanner) *Service {
	return &Service{meili: meili, scanner: scanner}
}

func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: results, Total: total, Backend: "meilisearch"}
		}
		log.Printf("search: meilisearch query failed, falling back: %v", err)
	}

	results, total, err := s.scanner.Search(q)
	if err != nil {
		log.Printf("search: scanner query failed: %v", err)
	}
	if results == nil {
		results = []Result{}
	}
	return Response{Results: results, Total: total, Backend: "scan"}
}

// IndexRoom pushes a room record to Meilisearch in the background. The
// scanner needs no indexing; it reads the live room set.
func (s *Service) IndexRoom(rec RoomRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexRoom(rec); err != nil {
			log.Printf("search: index room %s: %v", rec.ID, err)
		}
	}()
}

func (s *Service) Close() {
	if s.meili != nil {
		s.meili.Close()
	}
}
