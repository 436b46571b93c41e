package flow

// StartEvent is a /pw, /start or /help command from a user.
type StartEvent struct {
	UserID    int64
	ChatID    int64
	MessageID int
}

// DocumentEvent is an uploaded document with its raw bytes. FileSize is the
// size declared by the transport; zero when the transport did not report one.
type DocumentEvent struct {
	UserID    int64
	ChatID    int64
	MessageID int
	FileName  string
	FileSize  int64
	Data      []byte
}

// TextEvent is a plain text message from a user.
type TextEvent struct {
	UserID    int64
	ChatID    int64
	MessageID int
	Text      string
}
