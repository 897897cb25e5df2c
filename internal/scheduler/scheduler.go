// Package scheduler runs the periodic payment jobs. Jobs may overlap a
// previous run; every step they take is idempotent per client.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/models"
	paymentuc "github.com/BruksfildServices01/client-portal/internal/usecase/payment"
)

const (
	JobCaptureDuePayments   = "captureDuePayments"
	JobExpireStaleHolds     = "expireStaleHolds"
	JobSendPaymentReminders = "sendPaymentReminders"
)

var ErrUnknownJob = httperr.ErrBusiness(httperr.CodeUnknownJob)

// Payments is the part of the orchestrator the jobs drive.
type Payments interface {
	CaptureDue(ctx context.Context, clientID uint, opts paymentuc.CaptureOptions) (paymentuc.CaptureResult, error)
	ExpireHold(ctx context.Context, clientID uint) (*models.Client, error)
	StaleBefore() time.Time
}

// Deduper remembers keys for ttl; MarkOnce reports true only for the
// first caller.
type Deduper interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type Config struct {
	CaptureDueSpec       string
	ExpireStaleSpec      string
	PaymentRemindersSpec string
	// JobTimeout bounds a single run.
	JobTimeout  time.Duration
	ReminderTTL time.Duration
	Location    *time.Location
}

func DefaultConfig() Config {
	return Config{
		CaptureDueSpec:       "0 * * * *",
		ExpireStaleSpec:      "0 3 * * *",
		PaymentRemindersSpec: "0 9 * * *",
		JobTimeout:           10 * time.Minute,
		ReminderTTL:          48 * time.Hour,
		Location:             time.UTC,
	}
}

type JobReport struct {
	Job       string        `json:"job"`
	Scanned   int           `json:"scanned"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

type job func(ctx context.Context) (JobReport, error)

type Scheduler struct {
	cron     *cron.Cron
	repo     domain.Repository
	payments Payments
	dedupe   Deduper
	sink     notification.Sink
	clock    clock.Clock
	cfg      Config
	logger   logrus.FieldLogger
	jobs     map[string]job
}

func New(
	repo domain.Repository,
	payments Payments,
	dedupe Deduper,
	sink notification.Sink,
	clk clock.Clock,
	cfg Config,
	logger logrus.FieldLogger,
) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if sink == nil {
		sink = notification.Discard{}
	}
	logger = logger.WithField("component", "scheduler")

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger))),
		),
		repo:     repo,
		payments: payments,
		dedupe:   dedupe,
		sink:     sink,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
	}
	s.jobs = map[string]job{
		JobCaptureDuePayments:   s.CaptureDuePayments,
		JobExpireStaleHolds:     s.ExpireStaleHolds,
		JobSendPaymentReminders: s.SendPaymentReminders,
	}
	return s
}

// Start registers the jobs on their cron specs and starts ticking.
func (s *Scheduler) Start() error {
	specs := map[string]string{
		JobCaptureDuePayments:   s.cfg.CaptureDueSpec,
		JobExpireStaleHolds:     s.cfg.ExpireStaleSpec,
		JobSendPaymentReminders: s.cfg.PaymentRemindersSpec,
	}
	for _, name := range s.Jobs() {
		name := name
		if _, err := s.cron.AddFunc(specs[name], func() { s.tick(name) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", name, specs[name], err)
		}
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"capture_due":       s.cfg.CaptureDueSpec,
		"expire_stale":      s.cfg.ExpireStaleSpec,
		"payment_reminders": s.cfg.PaymentRemindersSpec,
	}).Info("scheduler started")
	return nil
}

// Stop stops new ticks and waits for running jobs or ctx, whichever ends
// first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) tick(name string) {
	ctx := context.Background()
	if s.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.JobTimeout)
		defer cancel()
	}
	_, _ = s.Run(ctx, name)
}

// Run executes one job immediately, as a tick would.
func (s *Scheduler) Run(ctx context.Context, name string) (JobReport, error) {
	j, ok := s.jobs[name]
	if !ok {
		return JobReport{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}

	started := time.Now()
	report, err := j(ctx)
	report.Job = name
	report.Duration = time.Since(started)

	log := s.logger.WithFields(logrus.Fields{
		"job":       name,
		"scanned":   report.Scanned,
		"succeeded": report.Succeeded,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
		"duration":  report.Duration.String(),
	})
	switch {
	case err != nil:
		log.WithError(err).Error("job aborted")
	case report.Failed > 0:
		log.Warn("job finished with failures")
	default:
		log.Info("job finished")
	}
	return report, err
}

func (s *Scheduler) Jobs() []string {
	out := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
