package trigger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "samplewatch/pkg/logx"
)

// Config is the daemon trigger configuration.
type Config struct {
	Schedule   string
	Timezone   string // empty means system local time
	RunOnStart bool
}

// Service fires a single callback per tick. Overlap control is the
// callback's problem (the run controller is single-flight and skips);
// the trigger just keeps time.
type Service struct {
	fire func(ctx context.Context)
	log  logx.Logger

	mu      sync.Mutex
	cfg     Config
	rebuild chan struct{}
}

func New(cfg Config, fire func(ctx context.Context), log logx.Logger) (*Service, error) {
	if fire == nil {
		return nil, fmt.Errorf("trigger: fire callback is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &Service{
		fire:    fire,
		log:     log,
		cfg:     cfg,
		rebuild: make(chan struct{}, 1),
	}, nil
}

func validate(cfg Config) error {
	spec, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return err
	}
	if spec.Kind == SpecCron {
		if _, err := cronParser().Parse(spec.Cron); err != nil {
			return fmt.Errorf("invalid cron %q: %w", spec.Cron, err)
		}
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
	}
	return nil
}

// Apply swaps the schedule at runtime. Run rebuilds its timer on the
// next loop iteration. Invalid specs are rejected and the old schedule
// stays in effect.
func (s *Service) Apply(cfg Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	s.mu.Lock()
	changed := s.cfg != cfg
	s.cfg = cfg
	s.mu.Unlock()
	if changed {
		select {
		case s.rebuild <- struct{}{}:
		default:
		}
	}
	return nil
}

func (s *Service) snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
func cronParser() cron.Parser {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Run blocks until ctx is done, firing the callback on schedule.
// RunOnStart fires once immediately on the first loop only.
func (s *Service) Run(ctx context.Context) error {
	first := true
	for {
		if ctx.Err() != nil {
			return nil
		}
		cfg := s.snapshot()
		spec, err := ParseSchedule(cfg.Schedule)
		if err != nil {
			// New and Apply both validate, so this should be unreachable.
			return err
		}

		if first && cfg.RunOnStart {
			s.fire(ctx)
		}
		first = false

		switch spec.Kind {
		case SpecCron:
			if err := s.runCron(ctx, cfg, spec.Cron); err != nil {
				return err
			}
		default:
			s.runInterval(ctx, spec.Every)
		}
	}
}

func (s *Service) runCron(ctx context.Context, cfg Config, expr string) error {
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("load timezone %q: %w", tz, err)
		}
		loc = l
	}

	c := cron.New(cron.WithParser(cronParser()), cron.WithLocation(loc))
	if _, err := c.AddFunc(expr, func() { s.fire(ctx) }); err != nil {
		return fmt.Errorf("register cron %q: %w", expr, err)
	}
	c.Start()
	s.log.Info("trigger armed",
		logx.String("cron", expr),
		logx.String("tz", loc.String()),
	)

	defer func() {
		stopCtx := c.Stop()
		<-stopCtx.Done()
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-s.rebuild:
		s.log.Info("trigger schedule changed, rebuilding")
		return nil
	}
}

func (s *Service) runInterval(ctx context.Context, every time.Duration) {
	s.log.Info("trigger armed", logx.Duration("every", every))
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.rebuild:
			s.log.Info("trigger schedule changed, rebuilding")
			return
		case <-t.C:
			s.fire(ctx)
		}
	}
}
