// Package poster implements the outbound publishing channels. Every poster
// reports a definite outcome per attempt so the engine's failure breaker can
// count confirmed failures only.
package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vigil/internal/agent/interfaces"
)

// Telegram publishes via the Bot API sendMessage call.
type Telegram struct {
	BotToken string
	ChatID   string
	Client   *http.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{BotToken: botToken, ChatID: chatID, Client: &http.Client{Timeout: 15 * time.Second}}
}

func (t *Telegram) Channel() string { return "telegram" }

func (t *Telegram) Post(ctx context.Context, text string) (interfaces.PostOutcome, error) {
	outcome := interfaces.PostOutcome{Channel: t.Channel()}
	if t.BotToken == "" || t.ChatID == "" {
		return outcome, fmt.Errorf("telegram channel is not configured")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	payload, _ := json.Marshal(map[string]any{
		"chat_id": t.ChatID,
		"text":    text,
	})

	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return outcome, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.Client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode/100 == 2 {
				outcome.Success = true
				outcome.Detail = "delivered"
				return outcome, nil
			}
			lastErr = fmt.Errorf("telegram status=%d", resp.StatusCode)
		}
		select {
		case <-ctx.Done():
			return outcome, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}
	outcome.Detail = lastErr.Error()
	return outcome, lastErr
}
