// Package interfaces holds the narrow capability contracts the tick engine
// depends on. They are intentionally small so components can be swapped (and
// mocked) without importing concrete gateways.
package interfaces

import (
	"context"
	"fmt"

	"vigil/internal/guardrail"
	"vigil/internal/planner"

	"github.com/shopspring/decimal"
)

// TradeExecutor is the opaque chain capability: balance reads plus buy/sell
// execution. Execute calls return only after the transaction is confirmed
// (or definitively failed); the engine never mutates state on an ambiguous
// outcome.
type TradeExecutor interface {
	ETHBalance(ctx context.Context) (decimal.Decimal, error)
	TokenBalance(ctx context.Context) (decimal.Decimal, error)
	ExecuteBuy(ctx context.Context, spendETH decimal.Decimal) (txHash string, err error)
	ExecuteSell(ctx context.Context, amount decimal.Decimal) (txHash string, err error)
}

// TradeAdvisor proposes one trade action per tick. The guardrail, not the
// advisor, decides whether it runs.
type TradeAdvisor interface {
	Propose(ctx context.Context, ethBalance, tokenBalance decimal.Decimal) (guardrail.Proposal, error)
}

// CandidateSource supplies scored content candidates for the planner.
type CandidateSource interface {
	Fetch(ctx context.Context) ([]planner.Candidate, error)
}

// ContentGenerator renders a candidate into post text. Implementations may
// fall back to deterministic local text when no backend is configured.
type ContentGenerator interface {
	Generate(ctx context.Context, item planner.Candidate) (string, error)
}

// PostOutcome reports one delivery attempt.
type PostOutcome struct {
	Success bool
	Channel string
	Detail  string
}

// Poster delivers text to one outbound channel. The engine calls Post at most
// once per channel per tick.
type Poster interface {
	Channel() string
	Post(ctx context.Context, text string) (PostOutcome, error)
}

// TradeExecutionError wraps a failed or unconfirmed submission. The engine
// treats it conservatively as "did not happen": no state mutation, loud log.
type TradeExecutionError struct {
	Op  string
	Err error
}

func (e *TradeExecutionError) Error() string {
	return fmt.Sprintf("trade execution %s: %v", e.Op, e.Err)
}

func (e *TradeExecutionError) Unwrap() error { return e.Err }
