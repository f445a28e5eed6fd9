package config

const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppHTTPAddr       = ":9984"
	defaultAppTickInterval   = 300
	defaultTradingDailyCap   = 3
	defaultTradingMinIvlMin  = 120
	defaultTradingMaxSpend   = 0.05
	defaultTradingMaxSellFr  = 0.25
	defaultContentDailyCap   = 6
	defaultContentMinIvlMin  = 90
	defaultContentMinScore   = 0.55
	defaultContentDedupCap   = 200
	defaultBreakerThreshold  = 3
	defaultBreakerCooldown   = 60
	defaultStatePath         = "/data/vigil/state.db"
	defaultAuditPath         = "/data/vigil/audit.db"
	defaultChainConfirmSecs  = 120
	defaultChainSlippagePct  = 0.01
	defaultGeneratorTimeout  = 60
	defaultFeedTimeout       = 20
	defaultBrowserTimeout    = 45
	defaultGeneratorAPIURL   = "https://api.openai.com/v1"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Content.applyDefaults(keys)
	c.Breaker.applyDefaults(keys)
	c.State.applyDefaults(keys)
	c.Chain.applyDefaults(keys)
	c.Generator.applyDefaults(keys)
	c.Feed.applyDefaults(keys)
	c.Channels.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		fieldDefault{
			key:   "app.tick_interval_seconds",
			need:  func() bool { return a.TickIntervalSeconds <= 0 },
			apply: func() { a.TickIntervalSeconds = defaultAppTickInterval },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("trading.enabled", &t.Enabled, true),
		stringFieldDefault("trading.posture", &t.Posture, "hold"),
		fieldDefault{
			key:   "trading.daily_cap",
			need:  func() bool { return t.DailyCap <= 0 },
			apply: func() { t.DailyCap = defaultTradingDailyCap },
		},
		fieldDefault{
			key:   "trading.min_interval_minutes",
			need:  func() bool { return t.MinIntervalMinutes <= 0 },
			apply: func() { t.MinIntervalMinutes = defaultTradingMinIvlMin },
		},
		fieldDefault{
			key:   "trading.max_spend_eth",
			need:  func() bool { return t.MaxSpendETH <= 0 },
			apply: func() { t.MaxSpendETH = defaultTradingMaxSpend },
		},
		fieldDefault{
			key:   "trading.max_sell_fraction",
			need:  func() bool { return t.MaxSellFraction <= 0 || t.MaxSellFraction > 1 },
			apply: func() { t.MaxSellFraction = defaultTradingMaxSellFr },
		},
	)
}

func (c *ContentConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "content.daily_cap",
			need:  func() bool { return c.DailyCap <= 0 },
			apply: func() { c.DailyCap = defaultContentDailyCap },
		},
		fieldDefault{
			key:   "content.min_interval_minutes",
			need:  func() bool { return c.MinIntervalMinutes <= 0 },
			apply: func() { c.MinIntervalMinutes = defaultContentMinIvlMin },
		},
		fieldDefault{
			key:   "content.min_score",
			need:  func() bool { return c.MinScore <= 0 || c.MinScore > 1 },
			apply: func() { c.MinScore = defaultContentMinScore },
		},
		fieldDefault{
			key:   "content.dedup_capacity",
			need:  func() bool { return c.DedupCapacity <= 0 },
			apply: func() { c.DedupCapacity = defaultContentDedupCap },
		},
	)
}

func (b *BreakerConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "breaker.failure_threshold",
			need:  func() bool { return b.FailureThreshold <= 0 },
			apply: func() { b.FailureThreshold = defaultBreakerThreshold },
		},
		fieldDefault{
			key:   "breaker.cooldown_minutes",
			need:  func() bool { return b.CooldownMinutes <= 0 },
			apply: func() { b.CooldownMinutes = defaultBreakerCooldown },
		},
	)
}

func (s *StateConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("state.path", &s.Path, defaultStatePath),
		stringFieldDefault("state.audit_path", &s.AuditPath, defaultAuditPath),
	)
}

func (c *ChainConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("chain.dry_run", &c.DryRun, true),
		fieldDefault{
			key:   "chain.token_decimals",
			need:  func() bool { return c.TokenDecimals <= 0 },
			apply: func() { c.TokenDecimals = 18 },
		},
		fieldDefault{
			key:   "chain.confirm_timeout_seconds",
			need:  func() bool { return c.ConfirmTimeoutSeconds <= 0 },
			apply: func() { c.ConfirmTimeoutSeconds = defaultChainConfirmSecs },
		},
		fieldDefault{
			key:   "chain.slippage_pct",
			need:  func() bool { return c.SlippagePct <= 0 || c.SlippagePct >= 1 },
			apply: func() { c.SlippagePct = defaultChainSlippagePct },
		},
	)
}

func (g *GeneratorConfig) applyDefaults(keys keySet) {
	if g == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("generator.api_url", &g.APIURL, defaultGeneratorAPIURL),
		fieldDefault{
			key:   "generator.timeout_seconds",
			need:  func() bool { return g.TimeoutSeconds <= 0 },
			apply: func() { g.TimeoutSeconds = defaultGeneratorTimeout },
		},
	)
}

func (f *FeedConfig) applyDefaults(keys keySet) {
	if f == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "feed.timeout_seconds",
			need:  func() bool { return f.TimeoutSeconds <= 0 },
			apply: func() { f.TimeoutSeconds = defaultFeedTimeout },
		},
	)
}

func (c *ChannelsConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "channels.browser.timeout_seconds",
			need:  func() bool { return c.Browser.TimeoutSeconds <= 0 },
			apply: func() { c.Browser.TimeoutSeconds = defaultBrowserTimeout },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && *target == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
