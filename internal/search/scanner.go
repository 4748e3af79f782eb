package search

import (
	"strings"
	"unicode/utf8"
)

const snippetRadius = 40

// Scanner is the fallback backend: a case-insensitive substring scan over
// the live room set. Correct but linear; only used when Meilisearch is down
// or not configured.
type Scanner struct {
	source Source
}

func NewScanner(source Source) *Scanner {
	return &Scanner{source: source}
}

func (s *Scanner) Search(q Query) ([]Result, int, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return nil, 0, nil
	}
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	var results []Result
	total := 0
	for _, rec := range s.source.SearchableRooms() {
		idx := strings.Index(strings.ToLower(rec.Content), needle)
		if idx < 0 && !strings.Contains(strings.ToLower(rec.Name), needle) {
			continue
		}
		total++
		if len(results) >= limit {
			continue
		}
		results = append(results, Result{
			RoomID:  rec.ID,
			Name:    rec.Name,
			Snippet: snippet(rec.Content, idx, len(needle)),
		})
	}
	return results, total, nil
}

// snippet cuts a window around the match, or the head of the content when
// only the name matched. Window edges are widened to rune boundaries so a
// multibyte rune is never split.
func snippet(content string, idx, matchLen int) string {
	if content == "" {
		return ""
	}
	if idx < 0 {
		idx, matchLen = 0, 0
	}
	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	end := idx + matchLen + snippetRadius
	if end > len(content) {
		end = len(content)
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}
	out := content[start:end]
	if start > 0 {
		out = "…" + out
	}
	if end < len(content) {
		out += "…"
	}
	return out
}
