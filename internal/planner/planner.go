// Package planner selects at most one content item per tick. Like the trade
// guardrail it is pure: the engine owns every state mutation and applies it
// only after the post is confirmed delivered.
package planner

import (
	"strings"
	"time"

	"vigil/internal/state"
)

// Candidate is a scored content item. Fingerprint must be stable for the
// underlying item across feeds and restarts.
type Candidate struct {
	Fingerprint string  `json:"fingerprint"`
	Title       string  `json:"title"`
	Body        string  `json:"body,omitempty"`
	Source      string  `json:"source,omitempty"`
	URL         string  `json:"url,omitempty"`
	Score       float64 `json:"score"`
}

// Context carries the planner thresholds for one tick.
type Context struct {
	Now             time.Time
	MinScore        float64
	DailyCap        int
	MinInterval     time.Duration
	SourceWhitelist []string
}

// Plan is the planner verdict. Reasons explains a negative verdict; it is
// empty when ShouldPost is set.
type Plan struct {
	ShouldPost bool
	Item       *Candidate
	Reasons    []string
}

const ReasonNoUnseenItems = "no unseen items"

const (
	ReasonDailyCap    = "daily_cap"
	ReasonMinInterval = "min_interval"
)

// Decide filters candidates against the dedup memory, whitelist and score
// floor, then applies the cap and spacing gates, and finally picks the
// highest-scoring survivor. Ties break by original order, first listed wins,
// so a given input always yields the same selection.
func Decide(candidates []Candidate, rec *state.Record, ctx Context) Plan {
	remaining := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Fingerprint == "" || rec.HasSeen(c.Fingerprint) {
			continue
		}
		if !sourceAllowed(c.Source, ctx.SourceWhitelist) {
			continue
		}
		if c.Score < ctx.MinScore {
			continue
		}
		remaining = append(remaining, c)
	}
	if len(remaining) == 0 {
		return Plan{Reasons: []string{ReasonNoUnseenItems}}
	}
	if ctx.DailyCap > 0 && rec.ContentCountToday(ctx.Now) >= ctx.DailyCap {
		return Plan{Reasons: []string{ReasonDailyCap}}
	}
	if ctx.MinInterval > 0 && rec.ContentLastPostAtMs != nil {
		last := time.UnixMilli(*rec.ContentLastPostAtMs)
		if ctx.Now.Sub(last) < ctx.MinInterval {
			return Plan{Reasons: []string{ReasonMinInterval}}
		}
	}
	best := 0
	for i := 1; i < len(remaining); i++ {
		if remaining[i].Score > remaining[best].Score {
			best = i
		}
	}
	pick := remaining[best]
	return Plan{ShouldPost: true, Item: &pick}
}

func sourceAllowed(source string, whitelist []string) bool {
	if len(whitelist) == 0 {
		return true
	}
	source = strings.ToLower(strings.TrimSpace(source))
	for _, allowed := range whitelist {
		if source == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}
