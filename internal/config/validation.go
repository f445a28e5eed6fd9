package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Content.validate(); err != nil {
		return err
	}
	if err := c.Breaker.validate(); err != nil {
		return err
	}
	if err := c.Chain.validate(); err != nil {
		return err
	}
	if err := c.Channels.validate(); err != nil {
		return err
	}
	return nil
}

func (t *TradingConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(t.Posture)) {
	case "hold", "accumulate", "distribute":
	default:
		return fmt.Errorf("trading.posture must be hold, accumulate or distribute")
	}
	if t.DailyCap < 0 {
		return fmt.Errorf("trading.daily_cap must be >= 0")
	}
	if t.MaxSellFraction <= 0 || t.MaxSellFraction > 1 {
		return fmt.Errorf("trading.max_sell_fraction must be in (0,1]")
	}
	if t.MaxSpendETH <= 0 {
		return fmt.Errorf("trading.max_spend_eth must be > 0")
	}
	return nil
}

func (c *ContentConfig) validate() error {
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("content.min_score must be in [0,1]")
	}
	if c.DedupCapacity <= 0 {
		return fmt.Errorf("content.dedup_capacity must be > 0")
	}
	for _, src := range c.SourceWhitelist {
		if strings.TrimSpace(src) == "" {
			return fmt.Errorf("content.source_whitelist contains an empty entry")
		}
	}
	return nil
}

func (b *BreakerConfig) validate() error {
	if b.FailureThreshold <= 0 {
		return fmt.Errorf("breaker.failure_threshold must be > 0")
	}
	if b.CooldownMinutes <= 0 {
		return fmt.Errorf("breaker.cooldown_minutes must be > 0")
	}
	return nil
}

func (c *ChainConfig) validate() error {
	if c.DryRun {
		return nil
	}
	if strings.TrimSpace(c.RPCURL) == "" {
		return fmt.Errorf("chain.rpc_url required unless chain.dry_run is set")
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		return fmt.Errorf("chain.private_key required unless chain.dry_run is set")
	}
	if strings.TrimSpace(c.RouterAddress) == "" {
		return fmt.Errorf("chain.router_address required unless chain.dry_run is set")
	}
	if strings.TrimSpace(c.TokenAddress) == "" {
		return fmt.Errorf("chain.token_address required unless chain.dry_run is set")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("chain.chain_id must be > 0")
	}
	return nil
}

func (c *ChannelsConfig) validate() error {
	if c.Telegram.Enabled {
		if strings.TrimSpace(c.Telegram.BotToken) == "" || strings.TrimSpace(c.Telegram.ChatID) == "" {
			return fmt.Errorf("channels.telegram requires bot_token and chat_id when enabled")
		}
	}
	if c.Webhook.Enabled && strings.TrimSpace(c.Webhook.URL) == "" {
		return fmt.Errorf("channels.webhook requires url when enabled")
	}
	if c.Browser.Enabled && strings.TrimSpace(c.Browser.ComposeURL) == "" {
		return fmt.Errorf("channels.browser requires compose_url when enabled")
	}
	return nil
}
