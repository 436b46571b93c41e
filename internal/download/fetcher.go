// Package download turns a finalized session into a local artifact. PDF-like
// URLs are streamed directly from their original address; everything else is
// routed through the media-resolution endpoint and handed to the yt-dlp
// engine.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harun/leechbot/internal/httpclient"
	"github.com/harun/leechbot/internal/session"
	"github.com/harun/leechbot/internal/urltext"
)

// Error is a download failure carrying a human-readable cause for the user.
type Error struct {
	Cause string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Cause, e.Err)
	}
	return e.Cause
}

func (e *Error) Unwrap() error { return e.Err }

func newError(cause string, err error) *Error {
	return &Error{Cause: cause, Err: err}
}

// Request describes one artifact fetch.
type Request struct {
	URL        string
	Index      int
	BatchLabel string
	Quality    session.Quality
	Token      string
}

// mediaRunner resolves and fetches a media URL into dir, returning the path
// the engine reports for the completed artifact ("" when unreported).
type mediaRunner func(ctx context.Context, dir string, req Request, finalURL string) (string, error)

// Options configures the orchestrator.
type Options struct {
	// ResolverBase is the base address of the media-resolution API.
	ResolverBase string

	// WorkRoot is where per-invocation working directories are created.
	// Empty means the system temp directory.
	WorkRoot string

	// HTTP configures the direct-fetch client used for PDFs.
	HTTP httpclient.Options

	// MediaRetries is the bounded retry count passed to the media engine.
	MediaRetries int
}

// Orchestrator fetches artifacts for completed sessions.
type Orchestrator struct {
	opts   Options
	client *httpclient.Client
	logger zerolog.Logger
	media  mediaRunner
}

// New creates an orchestrator.
func New(opts Options, logger zerolog.Logger) *Orchestrator {
	if opts.MediaRetries <= 0 {
		opts.MediaRetries = 3
	}

	o := &Orchestrator{
		opts:   opts,
		client: httpclient.New(opts.HTTP),
		logger: logger.With().Str("component", "download").Logger(),
	}
	o.media = o.runYtdlp
	return o
}

// Fetch downloads the requested artifact into a fresh working directory and
// returns its path together with a cleanup func that removes the directory.
// Exactly one fetch happens per call; there is no resume and no cancellation
// beyond ctx. The token travels only inside the resolution URL and is never
// logged.
func (o *Orchestrator) Fetch(ctx context.Context, req Request) (string, func(), error) {
	dir, err := o.makeWorkDir()
	if err != nil {
		return "", nil, newError("could not create working directory", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	kind := urltext.Classify(req.URL)
	o.logger.Info().
		Str("kind", kind.String()).
		Str("batch", req.BatchLabel).
		Int("index", req.Index).
		Msg("Fetch started")

	var path string
	if kind == urltext.KindPDF {
		path, err = o.fetchPDF(ctx, dir, req)
	} else {
		path, err = o.fetchMedia(ctx, dir, req)
	}
	if err != nil {
		cleanup()
		return "", nil, err
	}

	o.logger.Info().
		Str("kind", kind.String()).
		Str("batch", req.BatchLabel).
		Msg("Fetch completed")

	return path, cleanup, nil
}

func (o *Orchestrator) makeWorkDir() (string, error) {
	root := o.opts.WorkRoot
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}

	dir := filepath.Join(root, "leech_"+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// fetchPDF streams the original URL straight to disk. The resolution API and
// token play no part on this path.
func (o *Orchestrator) fetchPDF(ctx context.Context, dir string, req Request) (string, error) {
	body, err := o.client.Get(ctx, req.URL)
	if err != nil {
		return "", newError("pdf fetch failed", err)
	}
	defer body.Close()

	path := filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", req.BatchLabel, req.Index))
	out, err := os.Create(path)
	if err != nil {
		return "", newError("could not create output file", err)
	}

	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return "", newError("pdf write failed", err)
	}
	if err := out.Close(); err != nil {
		return "", newError("pdf write failed", err)
	}

	return path, nil
}

func (o *Orchestrator) fetchMedia(ctx context.Context, dir string, req Request) (string, error) {
	finalURL := ResolutionURL(o.opts.ResolverBase, req.URL, req.Token)

	reported, err := o.media(ctx, dir, req, finalURL)
	if err != nil {
		return "", newError("media download failed", err)
	}

	// Prefer the path the engine reports for the completed artifact.
	if reported != "" {
		if _, err := os.Stat(reported); err == nil {
			return reported, nil
		}
	}

	// Best-effort fallback: the main artifact is normally the largest file
	// in the working directory. A larger sidecar would win here.
	if path := largestFile(dir); path != "" {
		return path, nil
	}

	return "", newError("could not determine downloaded file path", nil)
}

// ResolutionURL appends the chosen URL and token as query parameters to the
// resolver base, unencoded, the way the resolution service expects them.
func ResolutionURL(base, url, token string) string {
	return fmt.Sprintf("%s?url=%s&token=%s", base, url, token)
}

// largestFile returns the path of the largest regular file in dir, or "".
func largestFile(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var best string
	var bestSize int64 = -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			bestSize = info.Size()
			best = filepath.Join(dir, entry.Name())
		}
	}
	return best
}

// IsDownloadError reports whether err is (or wraps) a download Error.
func IsDownloadError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}
