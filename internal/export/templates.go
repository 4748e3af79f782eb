package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"cowrite/engine/internal/engine"
)

var transcriptTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}
	transcriptTemplate = template.Must(template.New("transcript").Funcs(funcMap).Parse(transcriptHTML))
}

// TemplateData holds data for transcript rendering
type TemplateData struct {
	Name         string
	OwnerID      string
	Version      int
	Content      string
	Participants []engine.Participant
	ExportedAt   time.Time
}

// RenderTranscriptHTML renders the room transcript template.
func RenderTranscriptHTML(snap engine.Snapshot) (string, error) {
	data := TemplateData{
		Name:         snap.Name,
		OwnerID:      snap.OwnerID,
		Version:      snap.Version,
		Content:      snap.Content,
		Participants: snap.Participants,
		ExportedAt:   snap.ExportedAt,
	}
	var buf bytes.Buffer
	if err := transcriptTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const transcriptHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Name}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    pre.doc { white-space: pre-wrap; background: #fafafa; padding: 1rem; border: 1px solid #ddd; }
    .participant { display: inline-block; margin-right: 1rem; }
    .swatch { display: inline-block; width: 0.8em; height: 0.8em; border-radius: 50%; }
  </style>
</head>
<body>
  <h1>{{.Name}}</h1>
  <div class="meta">Owner {{.OwnerID}} | version {{.Version}} | exported {{formatDate .ExportedAt "Jan 2, 2006 15:04"}}</div>
  <pre class="doc">{{.Content}}</pre>
  {{if .Participants}}
  <h2>Participants</h2>
  {{range .Participants}}
  <span class="participant"><span class="swatch" style="background: {{.Color}}"></span> {{.UserID}} ({{lower (printf "%s" .Role)}})</span>
  {{end}}
  {{end}}
</body>
</html>`
