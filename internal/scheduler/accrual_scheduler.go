package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const accrualJobName = "profit-accrual"

// Options configures the accrual job.
type Options struct {
	// Schedule is a five-field cron expression or "@every <duration>".
	Schedule string
	// Timeout bounds a single run. Zero means no bound.
	Timeout time.Duration
	// Locker, when set, lets only one replica run the job at a time.
	Locker gocron.Locker
}

// AccrualScheduler runs the accrual batch on a schedule. Runs never overlap:
// a tick that fires while the previous run is still going is skipped.
type AccrualScheduler struct {
	sched   gocron.Scheduler
	job     gocron.Job
	svc     portssvc.AccrualSvc
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	lastErr error
}

// NewAccrualScheduler registers the accrual job. The scheduler does not run
// until Start is called.
func NewAccrualScheduler(svc portssvc.AccrualSvc, opts Options, logger *slog.Logger) (*AccrualScheduler, error) {
	definition, err := jobDefinition(opts.Schedule)
	if err != nil {
		return nil, err
	}

	schedOpts := []gocron.SchedulerOption{
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logger),
	}
	if opts.Locker != nil {
		schedOpts = append(schedOpts, gocron.WithDistributedLocker(opts.Locker))
	}
	sched, err := gocron.NewScheduler(schedOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &AccrualScheduler{
		sched:   sched,
		svc:     svc,
		logger:  logger,
		timeout: opts.Timeout,
		ctx:     ctx,
		cancel:  cancel,
	}

	s.job, err = sched.NewJob(
		definition,
		gocron.NewTask(s.run),
		gocron.WithName(accrualJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to register accrual job: %w", err)
	}
	return s, nil
}

func jobDefinition(schedule string) (gocron.JobDefinition, error) {
	schedule = strings.TrimSpace(schedule)
	if every, ok := strings.CutPrefix(schedule, "@every "); ok {
		d, err := time.ParseDuration(strings.TrimSpace(every))
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid accrual interval %q", every)
		}
		return gocron.DurationJob(d), nil
	}
	if len(strings.Fields(schedule)) != 5 {
		return nil, fmt.Errorf("invalid accrual schedule %q: want five cron fields or @every", schedule)
	}
	return gocron.CronJob(schedule, false), nil
}

func (s *AccrualScheduler) run() {
	runID := uuid.NewString()
	logger := s.logger.With(slog.String("job", accrualJobName), slog.String("run_id", runID))
	ctx := middleware.WithLogger(s.ctx, logger)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	credited, err := s.svc.RunAccrualBatch(ctx)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	if err != nil {
		logger.Error("Accrual run finished with errors",
			slog.Int("credited", credited),
			slog.Duration("took", time.Since(start)),
			slog.String("error", err.Error()))
		return
	}
	logger.Info("Accrual run finished", slog.Int("credited", credited), slog.Duration("took", time.Since(start)))
}

// Start begins firing the job on its schedule.
func (s *AccrualScheduler) Start() {
	s.sched.Start()
	if next, err := s.job.NextRun(); err == nil {
		s.logger.Info("Accrual scheduler started", slog.Time("next_run", next))
	}
}

// RunNow triggers an immediate run outside the schedule.
func (s *AccrualScheduler) RunNow() error {
	return s.job.RunNow()
}

// LastError returns the error of the most recent run, if any.
func (s *AccrualScheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Stop cancels an in-flight run and waits for the scheduler to shut down.
func (s *AccrualScheduler) Stop() error {
	s.cancel()
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}
