package telegram

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/leechbot/internal/config"
	"github.com/harun/leechbot/internal/logger"
)

type countingStats struct {
	mu       sync.Mutex
	sent     int
	received int
	errors   int
}

func (s *countingStats) MessageSent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
}

func (s *countingStats) MessageReceived() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received++
}

func (s *countingStats) TransportError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

const getMeResponse = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"leech","username":"leechbot"}}`
const messageResponse = `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`
const badRequestResponse = `{"ok":false,"error_code":400,"description":"Bad Request"}`

// newTestBot stands up a fake Bot API server and a Bot pointed at it.
// sendMessage is delegated to onSend; every other method answers ok.
func newTestBot(t *testing.T, stats Stats, onSend func(w http.ResponseWriter, r *http.Request)) *Bot {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, getMeResponse)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			onSend(w, r)
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		default:
			fmt.Fprint(w, messageResponse)
		}
	}))
	t.Cleanup(srv.Close)

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint("123456:testtoken", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	log, err := logger.New(logger.Config{Level: "error", Console: true})
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	return newWithAPI(api, &config.TelegramConfig{BotToken: "123456:testtoken"}, log, stats)
}

func TestNew_InvalidInput(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "error", Console: true})
	require.NoError(t, err)
	defer log.Close()

	t.Run("nil config", func(t *testing.T) {
		bot, err := New(nil, log, nil)
		assert.Error(t, err)
		assert.Nil(t, bot)
		assert.Contains(t, err.Error(), "config is required")
	})

	t.Run("empty bot token", func(t *testing.T) {
		bot, err := New(&config.TelegramConfig{}, log, nil)
		assert.Error(t, err)
		assert.Nil(t, bot)
		assert.Contains(t, err.Error(), "bot token is required")
	})
}

func TestReply_Direct(t *testing.T) {
	stats := &countingStats{}
	bot := newTestBot(t, stats, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "7", r.Form.Get("reply_to_message_id"))
		fmt.Fprint(w, messageResponse)
	})

	bot.Reply(42, 7, "hello")

	assert.Equal(t, 1, stats.sent)
	assert.Equal(t, 0, stats.errors)
}

func TestReply_FallsBackToPlainSend(t *testing.T) {
	stats := &countingStats{}
	var calls int
	bot := newTestBot(t, stats, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		if r.Form.Get("reply_to_message_id") != "" {
			fmt.Fprint(w, badRequestResponse)
			return
		}
		fmt.Fprint(w, messageResponse)
	})

	bot.Reply(42, 7, "hello")

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, stats.sent)
	assert.Equal(t, 0, stats.errors)
}

func TestReply_SwallowsTotalFailure(t *testing.T) {
	stats := &countingStats{}
	bot := newTestBot(t, stats, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, badRequestResponse)
	})

	// Must not panic or return anything; delivery is best-effort.
	bot.Reply(42, 7, "hello")

	assert.Equal(t, 0, stats.sent)
	assert.Equal(t, 1, stats.errors)
}

// Meaningful under -race: the flag is read while Start/Stop flip it.
func TestIsRunning_ConcurrentReads(t *testing.T) {
	bot := newTestBot(t, &countingStats{}, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, messageResponse)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = bot.IsRunning()
		}
	}()

	require.NoError(t, bot.Start())
	require.NoError(t, bot.Stop())
	<-done
}

func TestStartStop(t *testing.T) {
	bot := newTestBot(t, &countingStats{}, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, messageResponse)
	})

	require.NoError(t, bot.Start())
	assert.True(t, bot.IsRunning())
	assert.Error(t, bot.Start())

	require.NoError(t, bot.Stop())
	assert.False(t, bot.IsRunning())
	assert.Error(t, bot.Stop())
}
