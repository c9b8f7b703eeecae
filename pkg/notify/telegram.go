// Package notify delivers finished coaching messages to a chat channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httputil "github.com/peakform/coachrelay/pkg/infrastructure/http"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// Telegram posts messages through the Bot API. With no bot token or chat id
// configured it is a silent no-op, not an error: notification is optional.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   *slog.Logger
}

func NewTelegram(botToken, chatID string, logger *slog.Logger) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultTelegramBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL overrides the Bot API base URL. Used by tests.
func (t *Telegram) WithBaseURL(u string) *Telegram {
	t.baseURL = u
	return t
}

// Notify performs a single fire-and-forget delivery. Callers log the
// returned error but never fail a pipeline run on it.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if t.botToken == "" || t.chatID == "" {
		t.logger.Debug("Telegram not configured, skipping notification")
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return err
	}

	t.logger.Debug("Notification delivered", "chars", len(text))
	return nil
}
