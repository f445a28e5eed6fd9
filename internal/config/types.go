package config

import "strings"

// Config is the top-level configuration for the vigil agent.
type Config struct {
	App       AppConfig       `toml:"app"`
	Trading   TradingConfig   `toml:"trading"`
	Content   ContentConfig   `toml:"content"`
	Breaker   BreakerConfig   `toml:"breaker"`
	State     StateConfig     `toml:"state"`
	Chain     ChainConfig     `toml:"chain"`
	Generator GeneratorConfig `toml:"generator"`
	Feed      FeedConfig      `toml:"feed"`
	Channels  ChannelsConfig  `toml:"channels"`
}

type AppConfig struct {
	Env                 string `toml:"env"`
	LogLevel            string `toml:"log_level"`
	HTTPAddr            string `toml:"http_addr"`
	LogPath             string `toml:"log_path"`
	TickLogPath         string `toml:"tick_log_path"`
	TickIntervalSeconds int    `toml:"tick_interval_seconds"`
	KillSwitchFile      string `toml:"kill_switch_file"`
}

// TradingConfig carries every knob the trade guardrail consults.
type TradingConfig struct {
	Enabled            bool    `toml:"enabled"`
	Posture            string  `toml:"posture"`
	DailyCap           int     `toml:"daily_cap"`
	MinIntervalMinutes int     `toml:"min_interval_minutes"`
	MaxSpendETH        float64 `toml:"max_spend_eth"`
	MaxSellFraction    float64 `toml:"max_sell_fraction"`
}

// ContentConfig carries the content planner thresholds and dedup sizing.
type ContentConfig struct {
	DailyCap           int      `toml:"daily_cap"`
	MinIntervalMinutes int      `toml:"min_interval_minutes"`
	MinScore           float64  `toml:"min_score"`
	SourceWhitelist    []string `toml:"source_whitelist"`
	DedupCapacity      int      `toml:"dedup_capacity"`
	VoicePath          string   `toml:"voice_path"`
}

type BreakerConfig struct {
	FailureThreshold int `toml:"failure_threshold"`
	CooldownMinutes  int `toml:"cooldown_minutes"`
}

type StateConfig struct {
	Path      string `toml:"path"`
	AuditPath string `toml:"audit_path"`
}

// ChainConfig describes on-chain execution access. With DryRun set the agent
// never signs or submits anything.
type ChainConfig struct {
	RPCURL                string  `toml:"rpc_url"`
	PrivateKey            string  `toml:"private_key"`
	RouterAddress         string  `toml:"router_address"`
	TokenAddress          string  `toml:"token_address"`
	WETHAddress           string  `toml:"weth_address"`
	TokenDecimals         int     `toml:"token_decimals"`
	ChainID               int64   `toml:"chain_id"`
	ConfirmTimeoutSeconds int     `toml:"confirm_timeout_seconds"`
	SlippagePct           float64 `toml:"slippage_pct"`
	DryRun                bool    `toml:"dry_run"`
}

type GeneratorConfig struct {
	APIURL         string `toml:"api_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type FeedConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type ChannelsConfig struct {
	Telegram TelegramChannelConfig `toml:"telegram"`
	Webhook  WebhookChannelConfig  `toml:"webhook"`
	Browser  BrowserChannelConfig  `toml:"browser"`
}

type TelegramChannelConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type WebhookChannelConfig struct {
	Enabled   bool   `toml:"enabled"`
	URL       string `toml:"url"`
	AuthToken string `toml:"auth_token"`
}

type BrowserChannelConfig struct {
	Enabled        bool   `toml:"enabled"`
	ComposeURL     string `toml:"compose_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// keySet tracks config paths explicitly present in the loaded file, so
// defaults never clobber an intentional zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
