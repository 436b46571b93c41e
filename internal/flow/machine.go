// Package flow implements the conversation state machine: it advances a
// user's session through the fixed stage sequence in response to inbound
// events, validating input at each stage, and runs the download pipeline
// once the session is complete. Expected-invalid input is handled as a
// value (re-prompt, stage unchanged); errors are reserved for real I/O
// failures.
package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/leechbot/internal/download"
	"github.com/harun/leechbot/internal/session"
	"github.com/harun/leechbot/internal/urltext"
)

const (
	maxBatchLabelLen = 64
	summaryURLWidth  = 70
)

// Replier delivers best-effort replies; failures never surface to the flow.
type Replier interface {
	Reply(chatID int64, replyToID int, text string)
}

// Uploader hands a local artifact back to the user.
type Uploader interface {
	UploadDocument(chatID int64, path, caption string) error
}

// Fetcher resolves a completed session into a local artifact.
type Fetcher interface {
	Fetch(ctx context.Context, req download.Request) (string, func(), error)
}

// Recorder receives flow outcome hooks for metrics. All methods must be safe
// to call from any goroutine.
type Recorder interface {
	SessionCreated()
	SessionClosed(outcome string)
	DownloadObserved(kind, status string, seconds float64)
	UploadObserved(status string)
}

type nopRecorder struct{}

func (nopRecorder) SessionCreated()                          {}
func (nopRecorder) SessionClosed(string)                     {}
func (nopRecorder) DownloadObserved(string, string, float64) {}
func (nopRecorder) UploadObserved(string)                    {}

// Machine drives sessions through the stage sequence. All events for one
// user must arrive on a single goroutine (the daemon's per-user worker);
// events for different users may run concurrently.
type Machine struct {
	store    *session.Store
	fetcher  Fetcher
	replier  Replier
	uploader Uploader
	recorder Recorder
	logger   zerolog.Logger
}

// New creates a machine. recorder may be nil.
func New(store *session.Store, fetcher Fetcher, replier Replier, uploader Uploader, recorder Recorder, logger zerolog.Logger) *Machine {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Machine{
		store:    store,
		fetcher:  fetcher,
		replier:  replier,
		uploader: uploader,
		recorder: recorder,
		logger:   logger.With().Str("component", "flow").Logger(),
	}
}

// HandleHelp answers /start and /help.
func (m *Machine) HandleHelp(ev StartEvent) {
	m.replier.Reply(ev.ChatID, ev.MessageID,
		"Text Leech Bot ready.\n\n"+
			"Send /pw to start, then upload a text file containing video or PDF URLs.\n"+
			"Each line can have any text; links are detected automatically.")
}

// HandleStart answers /pw: it opens a fresh session for the user, replacing
// any prior one outright.
func (m *Machine) HandleStart(ev StartEvent) {
	if m.store.Get(ev.UserID) != nil {
		m.recorder.SessionClosed("replaced")
	}
	m.store.Put(ev.UserID, session.New(ev.UserID, ev.ChatID))
	m.recorder.SessionCreated()

	m.logger.Info().Int64("user_id", ev.UserID).Msg("Session started")
	m.replier.Reply(ev.ChatID, ev.MessageID,
		"Please send your text file (.txt). All video and PDF URLs will be extracted from it.")
}

// HandleDocument ingests an uploaded document at the await-file stage.
func (m *Machine) HandleDocument(ev DocumentEvent) {
	sess := m.store.Get(ev.UserID)
	if sess == nil || sess.Stage() != session.StageAwaitFile {
		m.replier.Reply(ev.ChatID, ev.MessageID, "I wasn't expecting a file. Send /pw to start.")
		return
	}
	sess.Touch()

	m.replier.Reply(ev.ChatID, ev.MessageID, "File received. Processing...")

	text := urltext.DecodeText(ev.Data)
	urls := urltext.Extract(text)
	if len(urls) == 0 {
		m.store.Remove(ev.UserID)
		m.recorder.SessionClosed("no_urls")
		m.logger.Info().Int64("user_id", ev.UserID).Msg("Ingestion found no URLs, session destroyed")
		m.replier.Reply(ev.ChatID, ev.MessageID, "No valid URLs found. Ensure each link starts with http(s).")
		return
	}

	if err := sess.IngestURLs(urls); err != nil {
		// Unreachable under per-user serialization; treat as fatal for the session.
		m.store.Remove(ev.UserID)
		m.recorder.SessionClosed("error")
		m.logger.Error().Err(err).Int64("user_id", ev.UserID).Msg("Ingestion failed")
		m.replier.Reply(ev.ChatID, ev.MessageID, "Something went wrong. Send /pw to start over.")
		return
	}

	m.logger.Info().
		Int64("user_id", ev.UserID).
		Int("urls", len(urls)).
		Int64("file_size", ev.FileSize).
		Msg("Document ingested")

	m.replier.Reply(ev.ChatID, ev.MessageID, summarize(urls))
}

// HandleText advances the session with a plain text reply.
func (m *Machine) HandleText(ctx context.Context, ev TextEvent) {
	sess := m.store.Get(ev.UserID)
	if sess == nil {
		m.replier.Reply(ev.ChatID, ev.MessageID, "Send /pw to start.")
		return
	}
	sess.Touch()

	text := strings.TrimSpace(ev.Text)

	switch sess.Stage() {
	case session.StageChoosingLink:
		m.handleChoice(ev, sess, text)
	case session.StageAskBatch:
		m.handleBatch(ev, sess, text)
	case session.StageAskQuality:
		m.handleQuality(ev, sess, text)
	case session.StageAskToken:
		m.handleToken(ctx, ev, sess, text)
	default:
		m.replier.Reply(ev.ChatID, ev.MessageID,
			"Follow the flow: /pw -> send file -> choose index -> set batch -> quality -> token.")
	}
}

func (m *Machine) handleChoice(ev TextEvent, sess *session.Session, text string) {
	idx, err := strconv.Atoi(text)
	if err != nil {
		m.replier.Reply(ev.ChatID, ev.MessageID, "Please send a valid number from the list.")
		return
	}

	if err := sess.ChooseLink(idx); err != nil {
		m.replier.Reply(ev.ChatID, ev.MessageID, "Index out of range. Try again.")
		return
	}

	m.replier.Reply(ev.ChatID, ev.MessageID, fmt.Sprintf(
		"Selected URL #%d:\n%s\n\nNow send a batch name for this download.",
		sess.ChosenIndex(), sess.ChosenURL()))
}

func (m *Machine) handleBatch(ev TextEvent, sess *session.Session, text string) {
	label := urltext.SanitizeLabel(text, maxBatchLabelLen)
	if err := sess.SetBatchLabel(label); err != nil {
		m.logger.Error().Err(err).Int64("user_id", ev.UserID).Msg("Batch transition failed")
		return
	}
	m.replier.Reply(ev.ChatID, ev.MessageID, "Select quality: reply with 480 or 720.")
}

func (m *Machine) handleQuality(ev TextEvent, sess *session.Session, text string) {
	q, ok := session.ParseQuality(text)
	if !ok {
		m.replier.Reply(ev.ChatID, ev.MessageID, "Please reply with exactly 480 or 720.")
		return
	}
	if err := sess.SetQuality(q); err != nil {
		m.logger.Error().Err(err).Int64("user_id", ev.UserID).Msg("Quality transition failed")
		return
	}
	m.replier.Reply(ev.ChatID, ev.MessageID, "Send your API token. Keep it private.")
}

func (m *Machine) handleToken(ctx context.Context, ev TextEvent, sess *session.Session, text string) {
	if err := sess.SetToken(text); err != nil {
		m.replier.Reply(ev.ChatID, ev.MessageID, "Token cannot be empty. Send your API token.")
		return
	}

	m.replier.Reply(ev.ChatID, ev.MessageID,
		"Download started... please wait, the file will be uploaded once ready.")

	// The fetch runs synchronously on this user's worker; other users are
	// unaffected. No cancellation once started.
	m.runDownload(ctx, ev, sess)
}

// runDownload performs the single fetch for a completed session, delivers
// the artifact and tears the session down no matter what happened.
func (m *Machine) runDownload(ctx context.Context, ev TextEvent, sess *session.Session) {
	defer m.store.Remove(ev.UserID)

	req := download.Request{
		URL:        sess.ChosenURL(),
		Index:      sess.ChosenIndex(),
		BatchLabel: sess.BatchLabel(),
		Quality:    sess.Quality(),
		Token:      sess.Token(),
	}
	kind := urltext.Classify(req.URL).String()

	start := time.Now()
	path, cleanup, err := m.fetcher.Fetch(ctx, req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		m.recorder.DownloadObserved(kind, "error", elapsed)
		m.recorder.SessionClosed("download_failed")
		m.logger.Error().Err(err).Int64("user_id", ev.UserID).Msg("Download failed")
		m.replier.Reply(ev.ChatID, ev.MessageID, fmt.Sprintf("Download failed: %v", err))
		return
	}
	defer cleanup()
	m.recorder.DownloadObserved(kind, "success", elapsed)

	caption := fmt.Sprintf("Batch: %s | Index: %d", sess.BatchLabel(), sess.ChosenIndex())
	if err := m.uploader.UploadDocument(sess.ChatID(), path, caption); err != nil {
		m.recorder.UploadObserved("error")
		m.recorder.SessionClosed("upload_failed")
		m.logger.Error().Err(err).Int64("user_id", ev.UserID).Msg("Upload failed")
		m.replier.Reply(ev.ChatID, ev.MessageID, fmt.Sprintf("Upload failed: %v", err))
		return
	}

	m.recorder.UploadObserved("success")
	m.recorder.SessionClosed("delivered")
	m.logger.Info().
		Int64("user_id", ev.UserID).
		Str("batch", sess.BatchLabel()).
		Int("index", sess.ChosenIndex()).
		Msg("Artifact delivered")
}

// summarize renders the numbered type+URL listing sent after ingestion.
func summarize(urls []string) string {
	var pdfs, videos int
	for _, u := range urls {
		if urltext.Classify(u) == urltext.KindPDF {
			pdfs++
		} else {
			videos++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d URLs - %d videos, %d PDFs.\n\n", len(urls), videos, pdfs)
	for i, u := range urls {
		display := u
		if runes := []rune(display); len(runes) > summaryURLWidth {
			display = string(runes[:summaryURLWidth]) + "..."
		}
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, urltext.Classify(u), display)
	}
	sb.WriteString("\nReply with the number of the link you want to download (e.g. 1).")
	return sb.String()
}
