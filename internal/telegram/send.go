package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Reply sends a text message as a reply to replyToID, degrading to a plain
// message if the reply fails (the original may have been deleted). Delivery
// is best-effort: if both attempts fail the error is logged and dropped, so
// a flaky chat never wedges the conversation flow.
func (b *Bot) Reply(chatID int64, replyToID int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyToID

	if _, err := b.api.Send(msg); err == nil {
		b.stats.MessageSent()
		b.logger.Debug().
			Int64("chat_id", chatID).
			Int("reply_to", replyToID).
			Msg("Reply sent")
		return
	}

	plain := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(plain); err != nil {
		b.stats.TransportError()
		b.logger.Error().
			Err(err).
			Int64("chat_id", chatID).
			Msg("Failed to send message")
		return
	}

	b.stats.MessageSent()
	b.logger.Debug().
		Int64("chat_id", chatID).
		Msg("Message sent without reply reference")
}

// UploadDocument sends a local file to the chat as a document with a caption.
func (b *Bot) UploadDocument(chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption

	if _, err := b.api.Send(doc); err != nil {
		b.stats.TransportError()
		return fmt.Errorf("failed to upload document: %w", err)
	}

	b.stats.MessageSent()
	b.logger.Info().
		Int64("chat_id", chatID).
		Str("path", path).
		Msg("Document uploaded")

	return nil
}
