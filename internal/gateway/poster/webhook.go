package poster

import (
	"context"
	"fmt"
	"time"

	"vigil/internal/agent/interfaces"

	"github.com/go-resty/resty/v2"
)

// Webhook POSTs the rendered text as JSON to an operator-supplied endpoint.
type Webhook struct {
	http *resty.Client
	url  string
}

func NewWebhook(url, authToken string) *Webhook {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetHeader("Content-Type", "application/json")
	if authToken != "" {
		client.SetAuthToken(authToken)
	}
	return &Webhook{http: client, url: url}
}

func (w *Webhook) Channel() string { return "webhook" }

func (w *Webhook) Post(ctx context.Context, text string) (interfaces.PostOutcome, error) {
	outcome := interfaces.PostOutcome{Channel: w.Channel()}
	resp, err := w.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		Post(w.url)
	if err != nil {
		outcome.Detail = err.Error()
		return outcome, err
	}
	if resp.StatusCode()/100 != 2 {
		err := fmt.Errorf("webhook status=%d", resp.StatusCode())
		outcome.Detail = err.Error()
		return outcome, err
	}
	outcome.Success = true
	outcome.Detail = "delivered"
	return outcome, nil
}
