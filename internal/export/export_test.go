package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"cowrite/engine/internal/engine"
	"cowrite/engine/internal/rbac"
)

func testSnapshot() engine.Snapshot {
	return engine.Snapshot{
		RoomID:  "room-1",
		Name:    "Launch Plan",
		OwnerID: "alice",
		Content: "Hello <world> & friends",
		Version: 4,
		Participants: []engine.Participant{
			{UserID: "alice", Role: rbac.RoleOwner, Color: "#e6194b"},
			{UserID: "bob", Role: rbac.RoleEditor, Color: "#3cb44b"},
		},
		ExportedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRenderTranscriptHTML(t *testing.T) {
	html, err := RenderTranscriptHTML(testSnapshot())
	if err != nil {
		t.Fatalf("RenderTranscriptHTML failed: %v", err)
	}

	for _, want := range []string{"Launch Plan", "alice", "bob", "version 4"} {
		if !strings.Contains(html, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
	// Content must be escaped, not injected
	if strings.Contains(html, "<world>") {
		t.Error("content was not HTML-escaped")
	}
	if !strings.Contains(html, "&lt;world&gt;") {
		t.Error("escaped content not found")
	}
}

func TestExportHTML(t *testing.T) {
	svc := NewService(nil)

	res, err := svc.Export(context.Background(), testSnapshot(), FormatHTML)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if res.Filename != "Launch-Plan.html" {
		t.Errorf("filename = %q", res.Filename)
	}
	if res.MimeType != "text/html; charset=utf-8" {
		t.Errorf("mime = %q", res.MimeType)
	}
	if len(res.Data) == 0 {
		t.Error("empty export data")
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Export(context.Background(), testSnapshot(), Format("docx"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Launch Plan", "Launch-Plan"},
		{"weird/../name!", "weirdname"},
		{"", "room"},
		{strings.Repeat("a", 60), strings.Repeat("a", 50)},
	}
	for _, tc := range tests {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestChromeFlagsIncludeHeadless(t *testing.T) {
	if len(chromeFlags()) <= len(chromedp.DefaultExecAllocatorOptions) {
		t.Error("expected headless flags beyond the defaults")
	}
}
