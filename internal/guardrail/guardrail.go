// Package guardrail decides whether a proposed trade may execute. Evaluation
// is pure: it never mutates state and never performs I/O, so every decision is
// reproducible from its inputs.
package guardrail

import (
	"time"

	"vigil/internal/state"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionHold Action = "hold"
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Blocked-decision reason codes, logged verbatim for operator audit.
const (
	ReasonKillSwitch          = "kill_switch"
	ReasonTradingDisabled     = "trading_disabled"
	ReasonDailyCap            = "daily_cap"
	ReasonMinInterval         = "min_interval"
	ReasonInsufficientBalance = "insufficient_balance"
)

// Proposal is a trade suggestion from upstream (strategy, model, operator).
// Amounts are optional; a zero buy spend means "up to the configured max".
type Proposal struct {
	Action     Action
	SpendETH   decimal.Decimal
	SellTokens decimal.Decimal
}

// Context carries everything Evaluate needs beyond the persisted record.
type Context struct {
	Now             time.Time
	KillSwitch      bool
	TradingEnabled  bool
	ETHBalance      decimal.Decimal
	TokenBalance    decimal.Decimal
	DailyCap        int
	MinInterval     time.Duration
	MaxSpendETH     decimal.Decimal
	MaxSellFraction decimal.Decimal
}

// Decision is the guardrail verdict. A block is a normal outcome, not an
// error: BlockedReason carries the first failing check.
type Decision struct {
	Action        Action
	ShouldExecute bool
	BlockedReason string
	BuySpendETH   decimal.Decimal
	SellTokens    decimal.Decimal
}

func hold(reason string) Decision {
	return Decision{Action: ActionHold, BlockedReason: reason}
}

// Evaluate applies the policy checks in fixed order; the first failing check
// wins. Operator-level overrides (kill switch, global disable) come first so
// they win regardless of any other state.
func Evaluate(p Proposal, rec *state.Record, ctx Context) Decision {
	if ctx.KillSwitch {
		return hold(ReasonKillSwitch)
	}
	if !ctx.TradingEnabled {
		return hold(ReasonTradingDisabled)
	}
	if p.Action == ActionHold || p.Action == "" {
		return Decision{Action: ActionHold}
	}
	if ctx.DailyCap > 0 && rec.TradesToday(ctx.Now) >= ctx.DailyCap {
		return Decision{Action: p.Action, BlockedReason: ReasonDailyCap}
	}
	if ctx.MinInterval > 0 && rec.LastTradeAtMs != nil {
		last := time.UnixMilli(*rec.LastTradeAtMs)
		if ctx.Now.Sub(last) < ctx.MinInterval {
			return Decision{Action: p.Action, BlockedReason: ReasonMinInterval}
		}
	}
	switch p.Action {
	case ActionBuy:
		return evaluateBuy(p, ctx)
	case ActionSell:
		return evaluateSell(p, ctx)
	default:
		return hold("")
	}
}

func evaluateBuy(p Proposal, ctx Context) Decision {
	spend := p.SpendETH
	if spend.LessThanOrEqual(decimal.Zero) {
		spend = ctx.MaxSpendETH
	}
	if spend.GreaterThan(ctx.MaxSpendETH) {
		spend = ctx.MaxSpendETH
	}
	if spend.GreaterThan(ctx.ETHBalance) {
		spend = ctx.ETHBalance
	}
	if spend.LessThanOrEqual(decimal.Zero) {
		return Decision{Action: ActionBuy, BlockedReason: ReasonInsufficientBalance}
	}
	return Decision{Action: ActionBuy, ShouldExecute: true, BuySpendETH: spend}
}

func evaluateSell(p Proposal, ctx Context) Decision {
	ceiling := ctx.TokenBalance.Mul(ctx.MaxSellFraction)
	amount := p.SellTokens
	if amount.LessThanOrEqual(decimal.Zero) {
		amount = ceiling
	}
	if amount.GreaterThan(ceiling) {
		amount = ceiling
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return Decision{Action: ActionSell, BlockedReason: ReasonInsufficientBalance}
	}
	return Decision{Action: ActionSell, ShouldExecute: true, SellTokens: amount}
}
