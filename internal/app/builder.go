package app

import (
	"context"
	"fmt"
	"time"

	"vigil/internal/agent"
	"vigil/internal/agent/interfaces"
	vcfg "vigil/internal/config"
	"vigil/internal/gateway/chain"
	"vigil/internal/gateway/feed"
	"vigil/internal/gateway/generator"
	"vigil/internal/gateway/poster"
	"vigil/internal/logger"
	"vigil/internal/state"
	"vigil/internal/store/audit"
	opshttp "vigil/internal/transport/http/ops"
)

// AppBuilder assembles the tick engine and its collaborators from config.
// The Fn fields exist so tests can substitute fakes for the heavy gateways.
type AppBuilder struct {
	cfg *vcfg.Config

	executorFn func(vcfg.ChainConfig) (interfaces.TradeExecutor, error)
	postersFn  func(vcfg.ChannelsConfig) []interfaces.Poster
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *vcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		executorFn: buildExecutor,
		postersFn:  buildPosters,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithExecutor overrides chain executor construction.
func WithExecutor(fn func(vcfg.ChainConfig) (interfaces.TradeExecutor, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.executorFn = fn }
}

// WithPosters overrides outbound channel construction.
func WithPosters(fn func(vcfg.ChannelsConfig) []interfaces.Poster) AppBuilderOption {
	return func(b *AppBuilder) { b.postersFn = fn }
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	voice, err := vcfg.LoadVoice(cfg.Content.VoicePath)
	if err != nil {
		return nil, fmt.Errorf("load voice file: %w", err)
	}

	kill, err := vcfg.NewKillSwitch(cfg.App.KillSwitchFile)
	if err != nil {
		return nil, fmt.Errorf("init kill switch: %w", err)
	}

	stateStore, err := state.NewStore(cfg.State.Path)
	if err != nil {
		kill.Close()
		return nil, fmt.Errorf("open state store: %w", err)
	}

	auditStore, err := audit.NewStore(cfg.State.AuditPath)
	if err != nil {
		kill.Close()
		stateStore.Close()
		return nil, fmt.Errorf("open audit store: %w", err)
	}

	executor, err := b.executorFn(cfg.Chain)
	if err != nil {
		kill.Close()
		stateStore.Close()
		auditStore.Close()
		return nil, fmt.Errorf("init trade executor: %w", err)
	}

	engine := agent.NewEngine(agent.EngineParams{
		Cfg:       cfg,
		Voice:     voice,
		Kill:      kill,
		Store:     stateStore,
		Audit:     &auditSink{store: auditStore},
		Executor:  executor,
		Advisor:   agent.NewPostureAdvisor(cfg.Trading.Posture),
		Feed:      feed.NewClient(cfg.Feed),
		Generator: generator.New(cfg.Generator, *voice),
		Posters:   b.postersFn(cfg.Channels),
	})

	httpSrv, err := opshttp.NewServer(opshttp.ServerConfig{
		Addr:   cfg.App.HTTPAddr,
		Engine: engine,
		Audit:  auditStore,
		Kill:   kill,
	})
	if err != nil {
		kill.Close()
		stateStore.Close()
		auditStore.Close()
		return nil, fmt.Errorf("init ops http server: %w", err)
	}

	return &App{
		cfg:        cfg,
		engine:     engine,
		httpSrv:    httpSrv,
		kill:       kill,
		stateStore: stateStore,
		auditStore: auditStore,
	}, nil
}

func buildExecutor(cfg vcfg.ChainConfig) (interfaces.TradeExecutor, error) {
	if cfg.DryRun {
		logger.Infof("chain dry run enabled, using simulated executor")
		return chain.NewDryRunExecutor(), nil
	}
	return chain.NewExecutor(cfg)
}

func buildPosters(cfg vcfg.ChannelsConfig) []interfaces.Poster {
	var posters []interfaces.Poster
	if cfg.Telegram.Enabled {
		posters = append(posters, poster.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	if cfg.Webhook.Enabled {
		posters = append(posters, poster.NewWebhook(cfg.Webhook.URL, cfg.Webhook.AuthToken))
	}
	if cfg.Browser.Enabled {
		timeout := time.Duration(cfg.Browser.TimeoutSeconds) * time.Second
		posters = append(posters, poster.NewBrowser(cfg.Browser.ComposeURL, timeout))
	}
	return posters
}

// auditSink adapts the engine's tick entries onto the audit store schema.
type auditSink struct {
	store *audit.Store
}

func (a *auditSink) Append(ctx context.Context, entry agent.TickEntry) error {
	return a.store.Append(ctx, audit.Entry{
		TraceID:         entry.TraceID,
		At:              entry.At,
		TradeAction:     entry.TradeAction,
		TradeBlocked:    entry.TradeBlocked,
		TradeTxHash:     entry.TradeTxHash,
		PostedItem:      entry.PostedItem,
		PostFingerprint: entry.PostFingerprint,
		PlanReasons:     entry.PlanReasons,
		ChannelResults:  entry.ChannelResults,
	})
}
