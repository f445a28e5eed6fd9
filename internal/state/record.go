package state

import (
	"encoding/json"
	"time"
)

// CurrentSchemaVersion is the schema the running code understands. Records at
// older versions are migrated on load; records ahead of this are rejected as
// corrupt (a downgrade is unsupported).
const CurrentSchemaVersion = 3

// Record is the singleton persisted state of the agent. Everything the policy
// layer must remember between ticks lives here; nothing else in the process
// is durable.
type Record struct {
	SchemaVersion int `json:"schema_version"`

	// Trade bookkeeping (since v1).
	DayKey              string `json:"day_key"`
	TradesExecutedToday int    `json:"trades_executed_today"`
	LastTradeAtMs       *int64 `json:"last_trade_at_ms,omitempty"`

	// Circuit breaker bookkeeping (since v2).
	ChannelFailures        map[string]int   `json:"channel_failures"`
	ChannelDisabledUntilMs map[string]int64 `json:"channel_disabled_until_ms"`

	// Content bookkeeping (since v3).
	ContentDayKey         string   `json:"content_day_key"`
	ContentDailyCount     int      `json:"content_daily_count"`
	ContentLastPostAtMs   *int64   `json:"content_last_post_at_ms,omitempty"`
	SeenFingerprints      []string `json:"seen_fingerprints"`
	LastPostedFingerprint string   `json:"last_posted_fingerprint"`

	// extra carries fields written by newer or sibling deployments so a
	// save never drops what this build does not understand.
	extra map[string]json.RawMessage
}

// DayKeyFor renders the UTC calendar day used for all daily counters.
func DayKeyFor(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// NewRecord returns the all-defaults state written on first run.
func NewRecord(now time.Time) *Record {
	return &Record{
		SchemaVersion:          CurrentSchemaVersion,
		DayKey:                 DayKeyFor(now),
		ContentDayKey:          DayKeyFor(now),
		SeenFingerprints:       []string{},
		ChannelFailures:        map[string]int{},
		ChannelDisabledUntilMs: map[string]int64{},
	}
}

// TradesToday returns the effective trade count for the current UTC day,
// treating a stale day key as zero without mutating the record.
func (r *Record) TradesToday(now time.Time) int {
	if r.DayKey != DayKeyFor(now) {
		return 0
	}
	return r.TradesExecutedToday
}

// ContentCountToday is the content-side analogue of TradesToday.
func (r *Record) ContentCountToday(now time.Time) int {
	if r.ContentDayKey != DayKeyFor(now) {
		return 0
	}
	return r.ContentDailyCount
}

// HasSeen reports whether a fingerprint is in the dedup memory.
func (r *Record) HasSeen(fingerprint string) bool {
	if fingerprint == "" {
		return false
	}
	if fingerprint == r.LastPostedFingerprint {
		return true
	}
	for _, fp := range r.SeenFingerprints {
		if fp == fingerprint {
			return true
		}
	}
	return false
}

// NoteTradeExecuted records one confirmed trade: rolls the day if needed,
// increments the daily counter and stamps the trade time. Callers must only
// invoke this after the transaction is confirmed on chain.
func (r *Record) NoteTradeExecuted(now time.Time) {
	day := DayKeyFor(now)
	if r.DayKey != day {
		r.DayKey = day
		r.TradesExecutedToday = 0
	}
	r.TradesExecutedToday++
	ms := now.UnixMilli()
	r.LastTradeAtMs = &ms
}

// NotePosted records one confirmed post: rolls the content day if needed,
// increments the counter, stamps the post time, and pushes the fingerprint
// into the bounded dedup set (FIFO eviction at capacity).
func (r *Record) NotePosted(fingerprint string, now time.Time, capacity int) {
	day := DayKeyFor(now)
	if r.ContentDayKey != day {
		r.ContentDayKey = day
		r.ContentDailyCount = 0
	}
	r.ContentDailyCount++
	ms := now.UnixMilli()
	r.ContentLastPostAtMs = &ms
	if fingerprint == "" {
		return
	}
	r.LastPostedFingerprint = fingerprint
	if r.HasSeenExact(fingerprint) {
		return
	}
	r.SeenFingerprints = append(r.SeenFingerprints, fingerprint)
	if capacity > 0 && len(r.SeenFingerprints) > capacity {
		r.SeenFingerprints = r.SeenFingerprints[len(r.SeenFingerprints)-capacity:]
	}
}

// HasSeenExact checks the FIFO set only, ignoring LastPostedFingerprint.
func (r *Record) HasSeenExact(fingerprint string) bool {
	for _, fp := range r.SeenFingerprints {
		if fp == fingerprint {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. The engine hands clones to HTTP readers so the
// tick loop stays the only writer of the live record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.SeenFingerprints != nil {
		out.SeenFingerprints = make([]string, len(r.SeenFingerprints))
		copy(out.SeenFingerprints, r.SeenFingerprints)
	}
	out.ChannelFailures = make(map[string]int, len(r.ChannelFailures))
	for k, v := range r.ChannelFailures {
		out.ChannelFailures[k] = v
	}
	out.ChannelDisabledUntilMs = make(map[string]int64, len(r.ChannelDisabledUntilMs))
	for k, v := range r.ChannelDisabledUntilMs {
		out.ChannelDisabledUntilMs[k] = v
	}
	if r.LastTradeAtMs != nil {
		ms := *r.LastTradeAtMs
		out.LastTradeAtMs = &ms
	}
	if r.ContentLastPostAtMs != nil {
		ms := *r.ContentLastPostAtMs
		out.ContentLastPostAtMs = &ms
	}
	if r.extra != nil {
		out.extra = make(map[string]json.RawMessage, len(r.extra))
		for k, v := range r.extra {
			out.extra[k] = v
		}
	}
	return &out
}
