package search

import (
	"strings"
	"testing"
	"unicode/utf8"
)

type staticSource []RoomRecord

func (s staticSource) SearchableRooms() []RoomRecord { return s }

func TestScannerMatchesContentAndName(t *testing.T) {
	src := staticSource{
		{ID: "room_1", Name: "Design notes", Content: "The quick brown fox jumps over the lazy dog"},
		{ID: "room_2", Name: "Fox watch", Content: "nothing relevant here"},
		{ID: "room_3", Name: "Empty", Content: ""},
	}
	scanner := NewScanner(src)

	results, total, err := scanner.Search(Query{Text: "fox"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Fatalf("got total=%d len=%d, want 2/2", total, len(results))
	}
	if results[0].RoomID != "room_1" {
		t.Errorf("first result = %s, want room_1", results[0].RoomID)
	}
	if !strings.Contains(results[0].Snippet, "fox") {
		t.Errorf("snippet %q does not contain match", results[0].Snippet)
	}
}

func TestScannerCaseInsensitive(t *testing.T) {
	scanner := NewScanner(staticSource{
		{ID: "room_1", Name: "n", Content: "Hello World"},
	})
	results, _, err := scanner.Search(Query{Text: "hello"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestScannerRespectsLimit(t *testing.T) {
	var src staticSource
	for i := 0; i < 5; i++ {
		src = append(src, RoomRecord{ID: "room", Name: "n", Content: "shared phrase"})
	}
	scanner := NewScanner(src)

	results, total, err := scanner.Search(Query{Text: "shared", Limit: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
}

func TestScannerEmptyQuery(t *testing.T) {
	scanner := NewScanner(staticSource{{ID: "r", Name: "n", Content: "body"}})
	results, total, err := scanner.Search(Query{Text: "   "})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 || total != 0 {
		t.Errorf("blank query matched: %d/%d", len(results), total)
	}
}

func TestSnippetKeepsRuneBoundaries(t *testing.T) {
	content := strings.Repeat("語", 20) + "needle" + strings.Repeat("語", 20)
	got := snippet(content, 60, len("needle"))
	if !utf8.ValidString(got) {
		t.Fatalf("snippet split a rune: %q", got)
	}
	if !strings.Contains(got, "needle") {
		t.Errorf("snippet lost the match: %q", got)
	}
}

func TestSnippetWindow(t *testing.T) {
	content := strings.Repeat("a", 100) + "needle" + strings.Repeat("b", 100)
	got := snippet(content, 100, len("needle"))
	if !strings.HasPrefix(got, "…") || !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipses on both sides, got %q", got)
	}
	if !strings.Contains(got, "needle") {
		t.Errorf("snippet lost the match: %q", got)
	}
}
