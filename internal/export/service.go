package export

import (
	"context"
	"fmt"

	"cowrite/engine/internal/engine"
)

// Service turns room snapshots into downloadable transcripts. The uploader
// is optional; without it results are returned in memory only.
type Service struct {
	uploader *Uploader
}

func NewService(uploader *Uploader) *Service {
	return &Service{uploader: uploader}
}

// Export renders the snapshot in the requested format and uploads the
// result when an uploader is configured.
func (s *Service) Export(ctx context.Context, snap engine.Snapshot, format Format) (*Result, error) {
	html, err := RenderTranscriptHTML(snap)
	if err != nil {
		return nil, fmt.Errorf("render transcript: %w", err)
	}

	var res *Result
	switch format {
	case FormatHTML:
		res = &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(snap.Name) + ".html",
			MimeType: "text/html; charset=utf-8",
		}
	case FormatPDF:
		res, err = exportPDF(html, snap.Name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if s.uploader != nil {
		key, err := s.uploader.Upload(ctx, snap.RoomID, res)
		if err != nil {
			return nil, err
		}
		res.ObjectKey = key
	}
	return res, nil
}
