package chain

import (
	"context"
	"fmt"
	"sync"

	"vigil/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DryRunExecutor simulates fills against an in-memory book at a fixed
// exchange rate. It lets the whole tick pipeline run with chain.dry_run
// enabled and no RPC endpoint at all.
type DryRunExecutor struct {
	mu      sync.Mutex
	eth     decimal.Decimal
	tokens  decimal.Decimal
	rate    decimal.Decimal // tokens per ETH
	history []string
}

func NewDryRunExecutor() *DryRunExecutor {
	return &DryRunExecutor{
		eth:    decimal.NewFromFloat(1.0),
		tokens: decimal.NewFromInt(1000),
		rate:   decimal.NewFromInt(10000),
	}
}

func (d *DryRunExecutor) ETHBalance(ctx context.Context) (decimal.Decimal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eth, nil
}

func (d *DryRunExecutor) TokenBalance(ctx context.Context) (decimal.Decimal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tokens, nil
}

func (d *DryRunExecutor) ExecuteBuy(ctx context.Context, spendETH decimal.Decimal) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if spendETH.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("buy amount must be positive, got %s", spendETH)
	}
	if spendETH.GreaterThan(d.eth) {
		return "", fmt.Errorf("insufficient eth: have %s want %s", d.eth, spendETH)
	}
	d.eth = d.eth.Sub(spendETH)
	d.tokens = d.tokens.Add(spendETH.Mul(d.rate))
	hash := "dryrun-" + uuid.NewString()
	d.history = append(d.history, hash)
	logger.Infof("dry-run buy filled: spent %s ETH, tx %s", spendETH, hash)
	return hash, nil
}

func (d *DryRunExecutor) ExecuteSell(ctx context.Context, amount decimal.Decimal) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("sell amount must be positive, got %s", amount)
	}
	if amount.GreaterThan(d.tokens) {
		return "", fmt.Errorf("insufficient tokens: have %s want %s", d.tokens, amount)
	}
	d.tokens = d.tokens.Sub(amount)
	d.eth = d.eth.Add(amount.Div(d.rate))
	hash := "dryrun-" + uuid.NewString()
	d.history = append(d.history, hash)
	logger.Infof("dry-run sell filled: sold %s tokens, tx %s", amount, hash)
	return hash, nil
}
