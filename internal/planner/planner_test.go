package planner

import (
	"fmt"
	"testing"
	"time"

	"vigil/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseContext(now time.Time) Context {
	return Context{
		Now:         now,
		MinScore:    0.5,
		DailyCap:    6,
		MinInterval: 90 * time.Minute,
	}
}

func TestDecideEmptyListReportsNoUnseenItems(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := Decide(nil, state.NewRecord(now), baseContext(now))
	assert.False(t, plan.ShouldPost)
	assert.Equal(t, []string{ReasonNoUnseenItems}, plan.Reasons)
}

func TestDecideNeverReselectsSeenFingerprint(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := state.NewRecord(now)
	candidates := []Candidate{
		{Fingerprint: "a", Title: "A", Score: 0.9},
		{Fingerprint: "b", Title: "B", Score: 0.8},
	}

	ctx := baseContext(now)
	ctx.MinInterval = 0
	plan := Decide(candidates, rec, ctx)
	require.True(t, plan.ShouldPost)
	assert.Equal(t, "a", plan.Item.Fingerprint)
	rec.NotePosted("a", now, 100)

	plan = Decide(candidates, rec, ctx)
	require.True(t, plan.ShouldPost)
	assert.Equal(t, "b", plan.Item.Fingerprint)
	rec.NotePosted("b", now, 100)

	plan = Decide(candidates, rec, ctx)
	assert.False(t, plan.ShouldPost)
	assert.Equal(t, []string{ReasonNoUnseenItems}, plan.Reasons)
}

func TestDecideScoreFloorAndWhitelist(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := state.NewRecord(now)
	candidates := []Candidate{
		{Fingerprint: "low", Title: "Low", Source: "good", Score: 0.2},
		{Fingerprint: "bad-src", Title: "Bad", Source: "spam", Score: 0.9},
		{Fingerprint: "ok", Title: "OK", Source: "Good", Score: 0.7},
	}

	ctx := baseContext(now)
	ctx.SourceWhitelist = []string{"good"}
	plan := Decide(candidates, rec, ctx)
	require.True(t, plan.ShouldPost)
	// Whitelist matching ignores case.
	assert.Equal(t, "ok", plan.Item.Fingerprint)
}

func TestDecideMinIntervalGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	candidates := []Candidate{{Fingerprint: "a", Title: "A", Score: 0.9}}

	rec := state.NewRecord(now)
	rec.NotePosted("old", now.Add(-30*time.Minute), 100)
	plan := Decide(candidates, rec, baseContext(now))
	assert.False(t, plan.ShouldPost)
	assert.Equal(t, []string{ReasonMinInterval}, plan.Reasons)

	rec2 := state.NewRecord(now)
	rec2.NotePosted("old", now.Add(-120*time.Minute), 100)
	plan = Decide(candidates, rec2, baseContext(now))
	assert.True(t, plan.ShouldPost)
}

func TestDecideDailyCapGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := state.NewRecord(now)
	ctx := baseContext(now)
	ctx.DailyCap = 2
	ctx.MinInterval = 0

	for i := 0; i < 2; i++ {
		rec.NotePosted(fmt.Sprintf("fp-%d", i), now, 100)
	}
	plan := Decide([]Candidate{{Fingerprint: "new", Title: "N", Score: 0.9}}, rec, ctx)
	assert.False(t, plan.ShouldPost)
	assert.Equal(t, []string{ReasonDailyCap}, plan.Reasons)
}

func TestDecidePicksHighestScoreFirstListedWinsTies(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := state.NewRecord(now)
	candidates := []Candidate{
		{Fingerprint: "first", Title: "F", Score: 0.8},
		{Fingerprint: "second", Title: "S", Score: 0.8},
		{Fingerprint: "third", Title: "T", Score: 0.7},
	}

	plan := Decide(candidates, rec, baseContext(now))
	require.True(t, plan.ShouldPost)
	assert.Equal(t, "first", plan.Item.Fingerprint)
}

func TestFingerprintNormalizesCaseAndWhitespace(t *testing.T) {
	a := Fingerprint("CoinDesk", "  ETH Upgrade Ships ")
	b := Fingerprint("coindesk", "eth upgrade ships")
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, Fingerprint("coindesk", "different headline"))
}

func TestDisclaimerIsDeterministicPerDayAndItem(t *testing.T) {
	first := ShouldIncludeDisclaimer("2026-03-01", "fp-1")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ShouldIncludeDisclaimer("2026-03-01", "fp-1"))
	}

	lines := []string{"Not financial advice.", "Do your own research."}
	pick := PickDisclaimer(lines, "2026-03-01", "fp-1")
	assert.Contains(t, lines, pick)
	assert.Equal(t, pick, PickDisclaimer(lines, "2026-03-01", "fp-1"))
	assert.Empty(t, PickDisclaimer(nil, "2026-03-01", "fp-1"))
}

func TestDisclaimerRateIsRoughlyOneInFive(t *testing.T) {
	hits := 0
	const total = 5000
	for i := 0; i < total; i++ {
		if ShouldIncludeDisclaimer("2026-03-01", fmt.Sprintf("fp-%d", i)) {
			hits++
		}
	}
	rate := float64(hits) / float64(total)
	assert.InDelta(t, 0.2, rate, 0.05)
}
