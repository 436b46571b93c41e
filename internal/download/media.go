package download

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/lrstanley/go-ytdlp"

	"github.com/harun/leechbot/internal/session"
)

// formatSelector builds the yt-dlp format string for a quality tier: a
// combined video+audio stream capped at the requested vertical resolution,
// falling back to best-available when nothing matches.
func formatSelector(q session.Quality) string {
	switch q {
	case session.Quality720:
		return "bestvideo[height<=720]+bestaudio/best"
	default:
		return "bestvideo[height<=480]+bestaudio/best"
	}
}

// runYtdlp delegates the resolved media URL to the yt-dlp engine. Playlist
// expansion is disabled and transient fetch failures get a bounded retry.
func (o *Orchestrator) runYtdlp(ctx context.Context, dir string, req Request, finalURL string) (string, error) {
	dl := ytdlp.New().
		Format(formatSelector(req.Quality)).
		Output(filepath.Join(dir, req.BatchLabel+"_%(id)s.%(ext)s")).
		NoPlaylist().
		Retries(strconv.Itoa(o.opts.MediaRetries))

	result, err := dl.Run(ctx, finalURL)
	if err != nil {
		return "", err
	}

	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		return "", nil
	}
	if info[0].Filename != nil {
		return *info[0].Filename, nil
	}
	return "", nil
}
