// Package app wires configuration, stores, gateways and the tick engine into
// a runnable process.
package app

import (
	"context"
	"fmt"
	"time"

	"vigil/internal/agent"
	vcfg "vigil/internal/config"
	"vigil/internal/logger"
	"vigil/internal/scheduler"
	"vigil/internal/state"
	"vigil/internal/store/audit"
	opshttp "vigil/internal/transport/http/ops"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *vcfg.Config
	engine     *agent.Engine
	httpSrv    *opshttp.Server
	kill       *vcfg.KillSwitch
	stateStore *state.Store
	auditStore *audit.Store
}

// NewApp builds the application from config without starting anything.
func NewApp(cfg *vcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return NewAppBuilder(cfg).Build(context.Background())
}

// Run starts the tick loop and the ops HTTP server and blocks until the
// context is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.httpSrv.Run(ctx); err != nil {
			return fmt.Errorf("ops http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		sched := scheduler.NewFixedDelayScheduler(ctx, time.Duration(a.cfg.App.TickIntervalSeconds)*time.Second)
		sched.Name = "tick"
		sched.RunImmediately = true
		sched.Start(func() {
			if err := a.engine.RunTick(ctx); err != nil {
				logger.Errorf("tick failed: %v", err)
			}
		})
		return nil
	})

	return group.Wait()
}

// Engine exposes the tick engine for testing and replay harnesses.
func (a *App) Engine() *agent.Engine {
	if a == nil {
		return nil
	}
	return a.engine
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.kill != nil {
		a.kill.Close()
	}
	if a.stateStore != nil {
		if err := a.stateStore.Close(); err != nil {
			logger.Warnf("close state store: %v", err)
		}
	}
	if a.auditStore != nil {
		if err := a.auditStore.Close(); err != nil {
			logger.Warnf("close audit store: %v", err)
		}
	}
}
