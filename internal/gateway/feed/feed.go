// Package feed pulls scored content candidates from a JSON endpoint.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vigil/internal/config"
	"vigil/internal/logger"
	"vigil/internal/planner"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

type Client struct {
	http *resty.Client
	url  string
}

func NewClient(cfg config.FeedConfig) *Client {
	client := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: client, url: cfg.URL}
}

// Fetch downloads the feed and maps each item into a candidate. Items with
// no title are dropped; malformed scores default to zero so the planner's
// score threshold filters them out.
func (c *Client) Fetch(ctx context.Context) ([]planner.Candidate, error) {
	if strings.TrimSpace(c.url) == "" {
		return nil, nil
	}
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode())
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("feed returned invalid JSON")
	}
	items := gjson.GetBytes(body, "items")
	if !items.Exists() {
		// Some feeds serve a bare array.
		items = gjson.ParseBytes(body)
	}
	if !items.IsArray() {
		return nil, fmt.Errorf("feed payload is not a list")
	}
	var out []planner.Candidate
	items.ForEach(func(_, item gjson.Result) bool {
		title := strings.TrimSpace(item.Get("title").String())
		if title == "" {
			return true
		}
		source := strings.TrimSpace(item.Get("source").String())
		cand := planner.Candidate{
			Fingerprint: planner.Fingerprint(source, title),
			Title:       title,
			Body:        strings.TrimSpace(item.Get("body").String()),
			Source:      source,
			URL:         strings.TrimSpace(item.Get("url").String()),
			Score:       item.Get("score").Float(),
		}
		out = append(out, cand)
		return true
	})
	logger.Debugf("feed returned %d usable candidates", len(out))
	return out, nil
}
