package daemon

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/harun/leechbot/internal/flow"
	"github.com/harun/leechbot/internal/telegram"
)

var _ telegram.UpdateHandler = (*Daemon)(nil)

// HandleUpdate routes an inbound update onto the sender's worker queue.
// Events from one user run strictly in arrival order; different users run
// concurrently.
func (d *Daemon) HandleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID
	messageID := msg.MessageID

	switch {
	case msg.IsCommand():
		command := msg.Command()
		d.dispatcher.Submit(userID, func() {
			d.handleCommand(command, flow.StartEvent{
				UserID:    userID,
				ChatID:    chatID,
				MessageID: messageID,
			})
		})

	case msg.Document != nil:
		fileID := msg.Document.FileID
		fileName := msg.Document.FileName
		fileSize := int64(msg.Document.FileSize)
		d.dispatcher.Submit(userID, func() {
			d.handleDocument(fileID, flow.DocumentEvent{
				UserID:    userID,
				ChatID:    chatID,
				MessageID: messageID,
				FileName:  fileName,
				FileSize:  fileSize,
			})
		})

	case msg.Text != "":
		text := msg.Text
		d.dispatcher.Submit(userID, func() {
			d.machine.HandleText(d.ctx, flow.TextEvent{
				UserID:    userID,
				ChatID:    chatID,
				MessageID: messageID,
				Text:      text,
			})
		})

	default:
		d.logger.Debug().
			Int64("user_id", userID).
			Msg("Ignoring unsupported message type")
	}
}

func (d *Daemon) handleCommand(command string, ev flow.StartEvent) {
	switch command {
	case "pw":
		d.machine.HandleStart(ev)
	case "start", "help":
		d.machine.HandleHelp(ev)
	default:
		d.bot.Reply(ev.ChatID, ev.MessageID, "Unknown command. Send /pw to start or /help for usage.")
	}
}

// handleDocument pulls the document bytes over the transport before handing
// the event to the flow. The fetch runs on the user's worker, so a slow
// download never blocks other users.
func (d *Daemon) handleDocument(fileID string, ev flow.DocumentEvent) {
	data, err := d.bot.FetchDocument(d.ctx, fileID)
	if err != nil {
		d.logger.Error().
			Err(err).
			Int64("user_id", ev.UserID).
			Msg("Failed to fetch uploaded document")
		d.bot.Reply(ev.ChatID, ev.MessageID, "Could not read your file. Please send it again.")
		return
	}

	ev.Data = data
	d.machine.HandleDocument(ev)
}
