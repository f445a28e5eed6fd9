package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vigil/internal/agent/interfaces"
	"vigil/internal/breaker"
	vcfg "vigil/internal/config"
	"vigil/internal/guardrail"
	"vigil/internal/logger"
	"vigil/internal/planner"
	"vigil/internal/state"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StateStore is the durable record access the engine needs.
type StateStore interface {
	Load(ctx context.Context, now time.Time) (*state.Record, error)
	Save(ctx context.Context, rec *state.Record) error
}

// AuditSink receives one entry per completed tick.
type AuditSink interface {
	Append(ctx context.Context, entry TickEntry) error
}

// TickEntry summarizes what one tick decided and did.
type TickEntry struct {
	TraceID         string
	At              time.Time
	TradeAction     string
	TradeBlocked    string
	TradeTxHash     string
	PostedItem      string
	PostFingerprint string
	PlanReasons     []string
	ChannelResults  map[string]string
}

// Engine sequences one tick: load state, evaluate the trade guardrail, plan
// content, execute approved actions through the collaborators, and persist
// state only after confirmed success.
type Engine struct {
	Cfg       *vcfg.Config
	Voice     *vcfg.Voice
	Kill      *vcfg.KillSwitch
	Store     StateStore
	Audit     AuditSink
	Breaker   *breaker.Breaker
	Executor  interfaces.TradeExecutor
	Advisor   interfaces.TradeAdvisor
	Feed      interfaces.CandidateSource
	Generator interfaces.ContentGenerator
	Posters   []interfaces.Poster

	nowFn func() time.Time

	// lastState is a copy of the most recently loaded record, for HTTP
	// readers. The tick loop is the only writer.
	lastState *state.Record
}

type EngineParams struct {
	Cfg       *vcfg.Config
	Voice     *vcfg.Voice
	Kill      *vcfg.KillSwitch
	Store     StateStore
	Audit     AuditSink
	Executor  interfaces.TradeExecutor
	Advisor   interfaces.TradeAdvisor
	Feed      interfaces.CandidateSource
	Generator interfaces.ContentGenerator
	Posters   []interfaces.Poster
}

func NewEngine(p EngineParams) *Engine {
	cooldown := time.Duration(p.Cfg.Breaker.CooldownMinutes) * time.Minute
	return &Engine{
		Cfg:       p.Cfg,
		Voice:     p.Voice,
		Kill:      p.Kill,
		Store:     p.Store,
		Audit:     p.Audit,
		Breaker:   breaker.New(p.Cfg.Breaker.FailureThreshold, cooldown),
		Executor:  p.Executor,
		Advisor:   p.Advisor,
		Feed:      p.Feed,
		Generator: p.Generator,
		Posters:   p.Posters,
		nowFn:     time.Now,
	}
}

// RunTick executes one full tick. Infrastructure errors abort the tick as a
// no-op; policy blocks are normal outcomes and never returned as errors.
func (e *Engine) RunTick(ctx context.Context) error {
	traceID := uuid.NewString()
	now := e.nowFn().UTC()
	start := now

	rec, err := e.Store.Load(ctx, now)
	if err != nil {
		return fmt.Errorf("tick %s: %w", traceID, err)
	}
	e.lastState = rec.Clone()

	entry := TickEntry{TraceID: traceID, At: now, ChannelResults: map[string]string{}}

	e.runTradePhase(ctx, traceID, rec, now, &entry)
	e.runContentPhase(ctx, traceID, rec, now, &entry)

	if e.Audit != nil {
		if err := e.Audit.Append(ctx, entry); err != nil {
			logger.Warnf("tick %s: audit append failed: %v", traceID, err)
		}
	}
	e.lastState = rec.Clone()
	logger.Infow("tick end",
		"trace", traceID,
		"trade", entry.TradeAction,
		"blocked", entry.TradeBlocked,
		"posted", entry.PostFingerprint != "",
		"duration", e.nowFn().UTC().Sub(start).Truncate(time.Millisecond))
	logger.Tick(traceID, e.renderTranscript(entry))
	return nil
}

// LastState returns a copy of the record as of the most recent tick.
func (e *Engine) LastState() *state.Record {
	return e.lastState.Clone()
}

func (e *Engine) runTradePhase(ctx context.Context, traceID string, rec *state.Record, now time.Time, entry *TickEntry) {
	ethBal, err := e.Executor.ETHBalance(ctx)
	if err != nil {
		logger.Warnf("tick %s: eth balance read failed, skipping trade: %v", traceID, err)
		return
	}
	tokenBal, err := e.Executor.TokenBalance(ctx)
	if err != nil {
		logger.Warnf("tick %s: token balance read failed, skipping trade: %v", traceID, err)
		return
	}
	proposal, err := e.Advisor.Propose(ctx, ethBal, tokenBal)
	if err != nil {
		logger.Warnf("tick %s: advisor failed, skipping trade: %v", traceID, err)
		return
	}

	gctx := guardrail.Context{
		Now:             now,
		KillSwitch:      e.Kill.Engaged(),
		TradingEnabled:  e.Cfg.Trading.Enabled,
		ETHBalance:      ethBal,
		TokenBalance:    tokenBal,
		DailyCap:        e.Cfg.Trading.DailyCap,
		MinInterval:     time.Duration(e.Cfg.Trading.MinIntervalMinutes) * time.Minute,
		MaxSpendETH:     decimal.NewFromFloat(e.Cfg.Trading.MaxSpendETH),
		MaxSellFraction: decimal.NewFromFloat(e.Cfg.Trading.MaxSellFraction),
	}
	decision := guardrail.Evaluate(proposal, rec, gctx)
	entry.TradeAction = string(decision.Action)
	entry.TradeBlocked = decision.BlockedReason

	if !decision.ShouldExecute {
		if decision.BlockedReason != "" {
			logger.Infof("tick %s: trade blocked action=%s reason=%s", traceID, decision.Action, decision.BlockedReason)
		}
		return
	}

	var txHash string
	switch decision.Action {
	case guardrail.ActionBuy:
		logger.Infof("tick %s: executing buy spend=%s eth", traceID, decision.BuySpendETH)
		txHash, err = e.Executor.ExecuteBuy(ctx, decision.BuySpendETH)
	case guardrail.ActionSell:
		logger.Infof("tick %s: executing sell amount=%s", traceID, decision.SellTokens)
		txHash, err = e.Executor.ExecuteSell(ctx, decision.SellTokens)
	default:
		return
	}
	if err != nil {
		// Conservative: an ambiguous or failed submission did not happen.
		logger.Errorf("tick %s: trade failed action=%s err=%v", traceID, decision.Action, err)
		return
	}
	logger.Infof("tick %s: trade confirmed action=%s tx=%s", traceID, decision.Action, txHash)
	entry.TradeTxHash = txHash

	rec.NoteTradeExecuted(now)
	if err := e.Store.Save(ctx, rec); err != nil {
		logger.Errorf("tick %s: state save after trade failed: %v", traceID, err)
	}
}

func (e *Engine) runContentPhase(ctx context.Context, traceID string, rec *state.Record, now time.Time, entry *TickEntry) {
	if e.Feed == nil || len(e.Posters) == 0 {
		return
	}
	candidates, err := e.Feed.Fetch(ctx)
	if err != nil {
		logger.Warnf("tick %s: feed fetch failed, skipping content: %v", traceID, err)
		return
	}

	pctx := planner.Context{
		Now:             now,
		MinScore:        e.Cfg.Content.MinScore,
		DailyCap:        e.Cfg.Content.DailyCap,
		MinInterval:     time.Duration(e.Cfg.Content.MinIntervalMinutes) * time.Minute,
		SourceWhitelist: e.Cfg.Content.SourceWhitelist,
	}
	plan := planner.Decide(candidates, rec, pctx)
	entry.PlanReasons = plan.Reasons
	if !plan.ShouldPost {
		logger.Infof("tick %s: no post candidates=%d reasons=%s", traceID, len(candidates), strings.Join(plan.Reasons, ","))
		return
	}
	item := *plan.Item

	text, err := e.Generator.Generate(ctx, item)
	if err != nil {
		logger.Warnf("tick %s: content generation failed, skipping post: %v", traceID, err)
		return
	}
	text = e.decorate(text, item, now)

	delivered := false
	stateDirty := false
	for _, poster := range e.Posters {
		channel := poster.Channel()
		if e.Breaker.IsOpen(rec, channel, now) {
			logger.Warnf("tick %s: channel=%s breaker open, skipping", traceID, channel)
			entry.ChannelResults[channel] = "breaker_open"
			continue
		}
		outcome, err := poster.Post(ctx, text)
		if err != nil || !outcome.Success {
			if err != nil {
				logger.Errorf("tick %s: post failed channel=%s err=%v", traceID, channel, err)
			} else {
				logger.Errorf("tick %s: post rejected channel=%s detail=%s", traceID, channel, outcome.Detail)
			}
			e.Breaker.RecordFailure(rec, channel, now)
			stateDirty = true
			entry.ChannelResults[channel] = "failed"
			continue
		}
		logger.Infof("tick %s: post delivered channel=%s fingerprint=%s", traceID, channel, item.Fingerprint)
		e.Breaker.RecordSuccess(rec, channel)
		stateDirty = true
		delivered = true
		entry.ChannelResults[channel] = "ok"
	}

	if delivered {
		rec.NotePosted(item.Fingerprint, now, e.Cfg.Content.DedupCapacity)
		entry.PostedItem = item.Title
		entry.PostFingerprint = item.Fingerprint
		stateDirty = true
	}
	if stateDirty {
		if err := e.Store.Save(ctx, rec); err != nil {
			logger.Errorf("tick %s: state save after content phase failed: %v", traceID, err)
		}
	}
}

// decorate appends the deterministic disclaimer when (day, fingerprint) says
// so. Same day plus same item always renders the same.
func (e *Engine) decorate(text string, item planner.Candidate, now time.Time) string {
	day := state.DayKeyFor(now)
	if e.Voice == nil || !planner.ShouldIncludeDisclaimer(day, item.Fingerprint) {
		return text
	}
	line := planner.PickDisclaimer(e.Voice.Disclaimers, day, item.Fingerprint)
	if line == "" {
		return text
	}
	return text + "\n\n" + line
}

func (e *Engine) renderTranscript(entry TickEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "trade action=%s blocked=%s tx=%s\n", entry.TradeAction, entry.TradeBlocked, entry.TradeTxHash)
	if entry.PostFingerprint != "" {
		fmt.Fprintf(&b, "post item=%q fingerprint=%s\n", entry.PostedItem, entry.PostFingerprint)
	} else if len(entry.PlanReasons) > 0 {
		fmt.Fprintf(&b, "post skipped reasons=%s\n", strings.Join(entry.PlanReasons, ","))
	}
	for ch, res := range entry.ChannelResults {
		fmt.Fprintf(&b, "channel %s=%s\n", ch, res)
	}
	return b.String()
}
