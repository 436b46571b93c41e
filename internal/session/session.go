// Package session holds the per-user conversation state for an in-progress
// download flow. A user has at most one live session, advancing through a
// fixed linear stage order; fields are only settable at the stage that owns
// them, so a session can never carry data from a stage it has not reached.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Stage is the current step in the fixed conversation sequence.
type Stage int

const (
	StageAwaitFile Stage = iota
	StageChoosingLink
	StageAskBatch
	StageAskQuality
	StageAskToken
	StageDownloading
)

// String returns a short name for logging.
func (s Stage) String() string {
	switch s {
	case StageAwaitFile:
		return "await_file"
	case StageChoosingLink:
		return "choosing_link"
	case StageAskBatch:
		return "ask_batch"
	case StageAskQuality:
		return "ask_quality"
	case StageAskToken:
		return "ask_token"
	case StageDownloading:
		return "downloading"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Quality is one of the two supported vertical-resolution caps.
type Quality int

const (
	Quality480 Quality = 480
	Quality720 Quality = 720
)

// ParseQuality accepts only the exact literals for the supported tiers.
func ParseQuality(text string) (Quality, bool) {
	switch text {
	case "480":
		return Quality480, true
	case "720":
		return Quality720, true
	default:
		return 0, false
	}
}

var (
	ErrWrongStage      = errors.New("session: operation not valid at current stage")
	ErrNoURLs          = errors.New("session: no urls to ingest")
	ErrIndexOutOfRange = errors.New("session: chosen index out of range")
	ErrEmptyToken      = errors.New("session: token is empty")
)

// Session is the per-user state for one run through the flow. The daemon
// serializes all events for a given user, so the flow data fields are only
// touched from that user's worker. stage and lastActive are additionally
// read by the idle sweeper on its own goroutine and are guarded by mu.
type Session struct {
	userID     int64
	chatID     int64
	urls       []string
	chosenIdx  int
	chosenURL  string
	batchLabel string
	quality    Quality
	token      string

	createdAt time.Time

	mu         sync.Mutex
	stage      Stage
	lastActive time.Time
}

// New creates a session at the await-file stage. chatID is where replies for
// this flow are sent.
func New(userID, chatID int64) *Session {
	now := time.Now()
	return &Session{
		userID:     userID,
		chatID:     chatID,
		stage:      StageAwaitFile,
		createdAt:  now,
		lastActive: now,
	}
}

func (s *Session) UserID() int64 { return s.userID }
func (s *Session) ChatID() int64 { return s.chatID }
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}
func (s *Session) URLs() []string   { return s.urls }
func (s *Session) ChosenIndex() int { return s.chosenIdx }
func (s *Session) ChosenURL() string {
	return s.chosenURL
}
func (s *Session) BatchLabel() string { return s.batchLabel }
func (s *Session) Quality() Quality   { return s.quality }
func (s *Session) Token() string      { return s.token }

// Touch records user activity for idle eviction.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

// IdleSince returns the time of the last user activity.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// IngestURLs stores the extracted URL list and advances to link choice.
// The list is populated exactly once and is immutable afterwards.
func (s *Session) IngestURLs(urls []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageAwaitFile {
		return ErrWrongStage
	}
	if len(urls) == 0 {
		return ErrNoURLs
	}
	s.urls = append([]string(nil), urls...)
	s.stage = StageChoosingLink
	return nil
}

// ChooseLink selects a 1-based entry from the ingested list and advances to
// the batch prompt. An out-of-range index leaves the session untouched.
func (s *Session) ChooseLink(idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageChoosingLink {
		return ErrWrongStage
	}
	if idx < 1 || idx > len(s.urls) {
		return ErrIndexOutOfRange
	}
	s.chosenIdx = idx
	s.chosenURL = s.urls[idx-1]
	s.stage = StageAskBatch
	return nil
}

// SetBatchLabel stores the (already sanitized) batch label and advances to
// the quality prompt.
func (s *Session) SetBatchLabel(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageAskBatch {
		return ErrWrongStage
	}
	s.batchLabel = label
	s.stage = StageAskQuality
	return nil
}

// SetQuality stores the chosen tier and advances to the token prompt.
func (s *Session) SetQuality(q Quality) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageAskQuality {
		return ErrWrongStage
	}
	s.quality = q
	s.stage = StageAskToken
	return nil
}

// SetToken stores the user-supplied API token and advances to downloading.
// The token is held only for the remainder of the session and must never be
// logged.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageAskToken {
		return ErrWrongStage
	}
	if token == "" {
		return ErrEmptyToken
	}
	s.token = token
	s.stage = StageDownloading
	return nil
}
