package telegram

import (
	"context"
	"fmt"
	"io"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot API refuses to serve files larger than 20 MB anyway.
const maxDocumentSize = 20 << 20

// FetchDocument downloads an uploaded document's bytes. The download URL
// embeds the bot token, so it must never be logged.
func (b *Bot) FetchDocument(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		b.stats.TransportError()
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	body, err := b.http.Get(ctx, file.Link(b.api.Token))
	if err != nil {
		b.stats.TransportError()
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxDocumentSize)
	}

	b.logger.Debug().
		Str("file_id", fileID).
		Int("size", len(data)).
		Msg("Document fetched")

	return data, nil
}
