// Package breaker throttles outbound channels after repeated failures. Unlike
// an in-memory circuit breaker the counters live in the persisted record, so
// a flapping channel stays disabled across restarts.
package breaker

import (
	"time"

	"vigil/internal/logger"
	"vigil/internal/state"
)

type Breaker struct {
	Threshold int
	Cooldown  time.Duration
}

func New(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{Threshold: threshold, Cooldown: cooldown}
}

// IsOpen reports whether the channel is currently disabled. The cooldown
// expiry in the record is the sole authority; the failure counter alone never
// blocks a channel.
func (b *Breaker) IsOpen(rec *state.Record, channel string, now time.Time) bool {
	until, ok := rec.ChannelDisabledUntilMs[channel]
	if !ok {
		return false
	}
	return now.UnixMilli() < until
}

// RecordFailure bumps the channel's failure count and, at the threshold,
// disables the channel until now+cooldown. The counter is deliberately left
// at the threshold: if the cooldown expires and the very next attempt fails,
// the breaker re-opens without a fresh count.
func (b *Breaker) RecordFailure(rec *state.Record, channel string, now time.Time) {
	if rec.ChannelFailures == nil {
		rec.ChannelFailures = map[string]int{}
	}
	count := rec.ChannelFailures[channel] + 1
	if count > b.Threshold {
		count = b.Threshold
	}
	rec.ChannelFailures[channel] = count
	if count >= b.Threshold {
		if rec.ChannelDisabledUntilMs == nil {
			rec.ChannelDisabledUntilMs = map[string]int64{}
		}
		until := now.Add(b.Cooldown).UnixMilli()
		rec.ChannelDisabledUntilMs[channel] = until
		logger.Warnf("breaker: channel=%s open failures=%d/%d until=%s",
			channel, count, b.Threshold, time.UnixMilli(until).UTC().Format(time.RFC3339))
	}
}

// RecordSuccess resets the channel: failure count back to zero, disablement
// cleared.
func (b *Breaker) RecordSuccess(rec *state.Record, channel string) {
	if rec.ChannelFailures != nil {
		delete(rec.ChannelFailures, channel)
	}
	if rec.ChannelDisabledUntilMs != nil {
		delete(rec.ChannelDisabledUntilMs, channel)
	}
}
