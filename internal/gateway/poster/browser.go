package poster

import (
	"context"
	"time"

	"vigil/internal/agent/interfaces"
	"vigil/internal/logger"

	"github.com/chromedp/chromedp"
)

// Browser drives a headless Chrome session against a web compose form for
// platforms without a posting API. The target page must expose a textarea
// and a submit button with the selectors below.
type Browser struct {
	ComposeURL string
	Timeout    time.Duration
}

const (
	composeTextSelector   = `textarea[name="post"], textarea#compose`
	composeSubmitSelector = `button[type="submit"]`
)

func NewBrowser(composeURL string, timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Browser{ComposeURL: composeURL, Timeout: timeout}
}

func (b *Browser) Channel() string { return "browser" }

func (b *Browser) Post(ctx context.Context, text string) (interfaces.PostOutcome, error) {
	outcome := interfaces.PostOutcome{Channel: b.Channel()}

	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, b.Timeout)
	defer cancelTimeout()

	tasks := chromedp.Tasks{
		chromedp.Navigate(b.ComposeURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible(composeTextSelector, chromedp.ByQuery),
		chromedp.SendKeys(composeTextSelector, text, chromedp.ByQuery),
		chromedp.Click(composeSubmitSelector, chromedp.ByQuery),
		// Give the page a moment to complete the submit round trip.
		chromedp.Sleep(1500 * time.Millisecond),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		logger.Warnf("browser compose failed: %v", err)
		outcome.Detail = err.Error()
		return outcome, err
	}
	outcome.Success = true
	outcome.Detail = "submitted"
	return outcome, nil
}
