// Package app wires configuration, logging, the lifecycle journal, the
// simulated robot and the scheduler loop into one runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"robocmd/internal/config"
	"robocmd/internal/eventbus"
	"robocmd/internal/observability/debughttp"
	"robocmd/internal/robot"
	"robocmd/internal/runtime/supervisor"
	"robocmd/internal/scheduler"
	"robocmd/internal/storage"
	"robocmd/pkg/logx"
)

type StopReason string

const (
	StopSignal     StopReason = "signal"
	StopFatalError StopReason = "fatal_error"
	StopManual     StopReason = "manual"
)

type App struct {
	cfgPath string

	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	root  logx.Logger
	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	robot    *robot.Robot
	enabled  atomic.Bool
	bindings atomic.Pointer[[]config.BindingConfig]
	sched    *scheduler.Service
	debug    *debughttp.Service
	clock    func() time.Time
}

// Option customizes NewApp.
type Option func(*App)

// WithClock overrides the time source used by cron bindings and the robot.
func WithClock(clock func() time.Time) Option {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func NewApp(cfgPath string, opts ...Option) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := Check(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{cfgPath: cfgPath, cfgm: cfgm, clock: time.Now}
	for _, o := range opts {
		o(a)
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	a.logs = logSvc
	a.root = log
	a.log = log.With(logx.String("comp", "app"))
	a.bus = eventbus.New()

	if sc, enabled, err := MapStorageConfig(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log)
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		a.store = st
		a.log.Info("journal enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	a.robot = robot.New(mapTuning(cfg), a.clock)
	a.enabled.Store(cfg.Robot.Enabled)
	bindings := slices.Clone(cfg.Bindings)
	a.bindings.Store(&bindings)

	svcCfg, err := mapServiceConfig(cfg)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	a.sched = scheduler.NewService(svcCfg, a.setup, log,
		scheduler.WithLogger(log),
		scheduler.WithBus(a.bus),
		scheduler.WithEnableSource(scheduler.EnableFunc(a.enabled.Load)),
		scheduler.WithClock(a.clock),
	)
	a.debug = debughttp.New(mapDebugConfig(cfg), statusSource{a}, log)
	return a, nil
}

// setup prepares a fresh scheduler: robot subsystems, default commands and
// the current trigger bindings.
func (a *App) setup(sc *scheduler.Scheduler) error {
	if err := a.robot.Setup(sc); err != nil {
		return err
	}
	return bindCommands(sc, a.robot, *a.bindings.Load(), a.enabled.Load, a.clock)
}

// Scheduler exposes the loop host, mainly for status and tests.
func (a *App) Scheduler() *scheduler.Service { return a.sched }

// Store returns the lifecycle journal, or nil when storage is disabled.
func (a *App) Store() storage.Store { return a.store }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) validate(_ context.Context, cfg *config.Config) error {
	return Check(cfg)
}

// Check runs the semantic checks that need more than the config package:
// duration fields, storage mapping, and binding names and cron specs.
func Check(cfg *config.Config) error {
	var errs []error
	if _, _, err := MapStorageConfig(cfg); err != nil {
		errs = append(errs, err)
	}
	if _, err := mapServiceConfig(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateBindings(robot.New(mapTuning(cfg), nil), cfg.Bindings); err != nil {
		errs = append(errs, err)
	}
	if dc := mapDebugConfig(cfg); dc.Enabled {
		if err := debughttp.CheckAddr(dc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.root)
	a.cfgm.SetValidator(a.validate)

	// The scheduler outlives the app context so Stop can interrupt running
	// commands and journal the result.
	if err := a.sched.Start(context.WithoutCancel(ctx)); err != nil {
		a.sup.Cancel()
		return err
	}

	if a.store != nil {
		events, unsub := a.bus.Subscribe(256, lifecycleEvents...)
		a.sup.Go("journal", func(c context.Context) error {
			defer unsub()
			runJournal(c, events, a.store, a.root.With(logx.String("comp", "journal")))
			return nil
		})
	}

	if a.debug.Enabled() {
		a.debug.Start(a.sup.Context())
	}

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return nil
			case newCfg, ok := <-sub:
				if !ok {
					return nil
				}
				// Coalesce bursts: keep only the latest config.
			drain:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						break drain
					}
				}
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started",
		logx.Bool("enabled", a.enabled.Load()),
		logx.Int("bindings", len(*a.bindings.Load())),
		logx.Bool("journal", a.store != nil),
	)
	return nil
}

// applyConfig pushes a validated config into the running components.
func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Debug("config change summary", fields...)

	for _, s := range sections {
		switch s {
		case "logging":
			a.logs.Apply(mapLoggingConfig(newCfg))
		case "loop":
			if sc, err := mapServiceConfig(newCfg); err != nil {
				a.log.Warn("invalid loop config; keeping previous", logx.Err(err))
			} else {
				a.sched.Apply(sc)
			}
		case "robot":
			if prev := a.enabled.Swap(newCfg.Robot.Enabled); prev != newCfg.Robot.Enabled {
				a.log.Info("robot enable changed", logx.Bool("enabled", newCfg.Robot.Enabled))
			}
			tuning := mapTuning(newCfg)
			if err := a.sched.Submit(func(*scheduler.Scheduler) { a.robot.Apply(tuning) }); err != nil {
				a.log.Warn("robot tuning not applied", logx.Err(err))
			}
		case "bindings":
			bindings := slices.Clone(newCfg.Bindings)
			a.bindings.Store(&bindings)
			if err := a.sched.Submit(func(sc *scheduler.Scheduler) {
				sc.ClearButtons()
				if err := bindCommands(sc, a.robot, bindings, a.enabled.Load, a.clock); err != nil {
					a.log.Warn("rebind failed", logx.Err(err))
				}
			}); err != nil {
				a.log.Warn("bindings not applied", logx.Err(err))
			}
		case "debug":
			a.debug.Reconfigure(ctx, mapDebugConfig(newCfg))
		case "storage":
			a.log.Warn("storage config changed; restart required for changes to take effect")
		}
	}
	a.log.Info("config reloaded", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		a.closeResources()
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		took := time.Since(start)
		if took >= 500*time.Millisecond {
			a.log.Info("stop step end", logx.String("name", name), logx.Duration("took", took))
		} else {
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", took))
		}
	}

	step("debug", time.Second, func(c context.Context) error { a.debug.Stop(c); return nil })
	// Scheduler before the supervisor: its final interrupts must still reach the journal.
	step("scheduler", 2*time.Second, a.sched.Stop)
	a.sup.Cancel()
	step("supervisor", 2*time.Second, a.sup.Wait)
	if n := a.bus.Dropped(); n > 0 {
		a.log.Warn("lifecycle events dropped", logx.Uint64("dropped", n))
	}

	a.log.Info("stopped")
	a.closeResources()
	return nil
}

func (a *App) closeResources() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("journal close failed", logx.Err(err))
		}
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
}
