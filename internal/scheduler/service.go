package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"robocmd/internal/runtime/supervisor"
	"robocmd/pkg/logx"
)

// ServiceConfig controls the tick loop host.
type ServiceConfig struct {
	Period            time.Duration
	MailboxSize       int
	OverrunWarnPerSec float64
	Scheduler         Config
}

// Setup prepares a freshly built Scheduler (subsystems, default commands,
// bindings). It runs once in Start and again on the loop goroutine after
// every reset.
type Setup func(*Scheduler) error

// Service runs a Scheduler on a dedicated goroutine.
//
// It is safe for concurrent use.
type Service struct {
	mu sync.Mutex

	log     logx.Logger
	cfg     ServiceConfig
	setup   Setup
	opts    []Option
	limiter *rate.Limiter

	accepting bool
	mailbox   chan func(*Scheduler)
	sup       *supervisor.Supervisor

	snap    atomic.Pointer[Snapshot]
	resets  atomic.Uint64
	dropped atomic.Uint64
}

func NewService(cfg ServiceConfig, setup Setup, log logx.Logger, opts ...Option) *Service {
	s := &Service{
		log:     log.With(logx.String("comp", "scheduler.service")),
		setup:   setup,
		opts:    opts,
		limiter: rate.NewLimiter(1, 1),
	}
	s.applyLocked(cfg)
	return s
}

// Apply updates the tick period and overrun warning rate. Mailbox size and
// scheduler settings take effect on the next Start or reset.
func (s *Service) Apply(cfg ServiceConfig) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg ServiceConfig) {
	if cfg.Period <= 0 {
		cfg.Period = 20 * time.Millisecond
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = 64
	}
	if cfg.OverrunWarnPerSec <= 0 {
		cfg.OverrunWarnPerSec = 1
	}
	s.cfg = cfg
	s.limiter.SetLimit(rate.Limit(cfg.OverrunWarnPerSec))
	s.limiter.SetBurst(max(1, int(cfg.OverrunWarnPerSec)))
}

func (s *Service) period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Period
}

// Start builds the first Scheduler and launches the tick loop. Setup errors
// are returned here; after a panic the loop rebuilds the Scheduler itself.
// A stopped Service cannot be started again.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mailbox != nil {
		return nil
	}

	first, err := s.build(s.cfg.Scheduler)
	if err != nil {
		return err
	}
	s.mailbox = make(chan func(*Scheduler), s.cfg.MailboxSize)
	s.accepting = true
	s.publish(first)

	s.sup = supervisor.New(ctx, supervisor.WithLogger(s.log))
	s.sup.GoRestart("scheduler.loop", func(ctx context.Context) error {
		sc := first
		first = nil
		if sc == nil {
			s.resets.Add(1)
			s.log.Warn("rebuilding scheduler after failure", logx.Uint64("resets", s.resets.Load()))
			s.mu.Lock()
			cfg := s.cfg.Scheduler
			s.mu.Unlock()
			var err error
			if sc, err = s.build(cfg); err != nil {
				return err
			}
		}
		return s.loop(ctx, sc)
	}, supervisor.WithRestartBackoff(10*time.Millisecond, time.Second), supervisor.WithPublishFirstError(true))

	s.log.Info("scheduler started", logx.Duration("period", s.cfg.Period))
	return nil
}

// Stop stops accepting work and waits for the loop to exit. Pending mailbox
// work is run and every scheduled command is interrupted before exit.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	sup := s.sup
	s.accepting = false
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	if err := sup.Stop(ctx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// Submit queues fn to run on the loop goroutine at the start of the next tick.
func (s *Service) Submit(fn func(*Scheduler)) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepting {
		return ErrStopped
	}
	select {
	case s.mailbox <- fn:
		return nil
	default:
		s.dropped.Add(1)
		return ErrQueueFull
	}
}

// Call submits fn and waits until it has run.
func (s *Service) Call(ctx context.Context, fn func(*Scheduler)) error {
	done := make(chan struct{})
	if err := s.Submit(func(sc *Scheduler) {
		defer close(done)
		fn(sc)
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the view published after the most recent tick.
func (s *Service) Snapshot() Snapshot {
	var snap Snapshot
	if p := s.snap.Load(); p != nil {
		snap = *p
	}
	snap.Resets = s.resets.Load()
	snap.DroppedTasks = s.dropped.Load()
	return snap
}

// Err reports the first loop failure, if any.
func (s *Service) Err() error {
	s.mu.Lock()
	sup := s.sup
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	return sup.Err()
}

func (s *Service) build(cfg Config) (*Scheduler, error) {
	sc := New(cfg, s.opts...)
	if s.setup != nil {
		if err := s.setup(sc); err != nil {
			return nil, fmt.Errorf("scheduler setup: %w", err)
		}
	}
	return sc, nil
}

func (s *Service) loop(ctx context.Context, sc *Scheduler) error {
	period := s.period()
	t := time.NewTicker(period)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.drain(sc)
			sc.CancelAll()
			s.publish(sc)
			return ctx.Err()
		case <-t.C:
		}

		s.drain(sc)
		start := time.Now()
		sc.Run()
		if took := time.Since(start); took > period && s.limiter.Allow() {
			s.log.Warn("tick overran period",
				logx.Duration("took", took),
				logx.Duration("period", period),
				logx.Uint64("tick", sc.Tick()),
			)
		}
		s.publish(sc)

		if p := s.period(); p != period {
			period = p
			t.Reset(p)
		}
	}
}

func (s *Service) drain(sc *Scheduler) {
	for {
		select {
		case fn := <-s.mailbox:
			fn(sc)
		default:
			return
		}
	}
}

func (s *Service) publish(sc *Scheduler) {
	snap := sc.Snapshot()
	s.snap.Store(&snap)
}
