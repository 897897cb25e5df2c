package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/infra/cache"
	"github.com/BruksfildServices01/client-portal/internal/infra/gateway"
	"github.com/BruksfildServices01/client-portal/internal/infra/notify"
	"github.com/BruksfildServices01/client-portal/internal/infra/repository"
	"github.com/BruksfildServices01/client-portal/internal/infra/storage"
	"github.com/BruksfildServices01/client-portal/internal/scheduler"
	"github.com/BruksfildServices01/client-portal/internal/usecase/announce"
	paymentuc "github.com/BruksfildServices01/client-portal/internal/usecase/payment"
)

// Monday; holds created now fall due on Thursday 15th at 10:00.
var monday = time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)

type harness struct {
	repo  *repository.ClientMemoryRepository
	gw    *gateway.Sandbox
	sink  *notify.Memory
	clk   *clock.Fixed
	orch  *paymentuc.Orchestrator
	sched *scheduler.Scheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()

	h := &harness{
		repo: repository.NewClientMemoryRepository(),
		gw:   gateway.NewSandbox(),
		sink: notify.NewMemory(),
		clk:  clock.NewFixed(monday),
	}
	cfg := paymentuc.DefaultConfig()
	cfg.RequiredDocuments = nil
	h.orch = paymentuc.NewOrchestrator(h.repo, h.gw, storage.NewMemoryDocuments(), announce.New(nil, h.sink), h.clk, cfg, logger)
	h.sched = scheduler.New(h.repo, h.orch, cache.NewMemoryDedupe(h.clk.Now), h.sink, h.clk, scheduler.DefaultConfig(), logger)
	return h
}

func (h *harness) held(t *testing.T) uint {
	t.Helper()
	ctx := context.Background()
	c := domain.New("Eva", "eva@example.com", "", h.clk.Now())
	_, err := domain.Apply(c, stage.SendPortalInvite, h.clk.Now())
	require.NoError(t, err)
	require.NoError(t, h.repo.Create(ctx, c))

	_, err = h.orch.CreateHold(ctx, c.ID, paymentuc.CreateHoldInput{AmountMinorUnits: 15000, PaymentMethodRef: "tok"})
	require.NoError(t, err)
	return c.ID
}

func (h *harness) pending(t *testing.T) uint {
	t.Helper()
	id := h.held(t)
	_, err := h.orch.StartCancellationPeriod(context.Background(), id, nil)
	require.NoError(t, err)
	return id
}

func (h *harness) stageOf(t *testing.T, id uint) string {
	t.Helper()
	c, err := h.repo.Load(context.Background(), id)
	require.NoError(t, err)
	return c.Stage
}

func TestCaptureDuePaymentsOnlyTouchesDueClients(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	due := h.pending(t)

	h.clk.Set(monday.AddDate(0, 0, 1))
	notYet := h.pending(t)

	h.clk.Set(time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC))
	report, err := h.sched.Run(ctx, scheduler.JobCaptureDuePayments)
	require.NoError(t, err)
	assert.Equal(t, scheduler.JobCaptureDuePayments, report.Job)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, string(stage.Active), h.stageOf(t, due))
	assert.Equal(t, string(stage.PendingPayment), h.stageOf(t, notYet))

	report, err = h.sched.Run(ctx, scheduler.JobCaptureDuePayments)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, 1, h.gw.CaptureCalls())
}

func TestCaptureDuePaymentsIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.pending(t)
	second := h.pending(t)

	h.clk.Set(monday.AddDate(0, 0, 3))
	h.gw.QueueCapture(context.DeadlineExceeded)

	report, err := h.sched.Run(ctx, scheduler.JobCaptureDuePayments)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, string(stage.PendingPayment), h.stageOf(t, first))
	assert.Equal(t, string(stage.Active), h.stageOf(t, second))

	report, err = h.sched.Run(ctx, scheduler.JobCaptureDuePayments)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, string(stage.Active), h.stageOf(t, first))
}

func TestExpireStaleHolds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	stuck := h.held(t)
	completed := h.pending(t)

	h.clk.Set(monday.AddDate(0, 0, 8))
	report, err := h.sched.Run(ctx, scheduler.JobExpireStaleHolds)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, string(stage.Cancelled), h.stageOf(t, stuck))
	assert.Equal(t, string(stage.PendingPayment), h.stageOf(t, completed))

	report, err = h.sched.Run(ctx, scheduler.JobExpireStaleHolds)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, 1, h.gw.ReleaseCalls())
}

func TestSendPaymentRemindersOncePerDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.pending(t)

	h.clk.Set(time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC))
	report, err := h.sched.Run(ctx, scheduler.JobSendPaymentReminders)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, h.sink.OfType(notification.EventPaymentReminder))

	h.clk.Set(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	report, err = h.sched.Run(ctx, scheduler.JobSendPaymentReminders)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	h.clk.Set(time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC))
	report, err = h.sched.Run(ctx, scheduler.JobSendPaymentReminders)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)

	reminders := h.sink.OfType(notification.EventPaymentReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, id, reminders[0].ClientID)
}

func TestRunUnknownJob(t *testing.T) {
	h := newHarness(t)
	_, err := h.sched.Run(context.Background(), "reindex")
	assert.ErrorIs(t, err, scheduler.ErrUnknownJob)
}

func TestStartRejectsBadSpec(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := newHarness(t)
	cfg := scheduler.DefaultConfig()
	cfg.CaptureDueSpec = "every hour"

	s := scheduler.New(h.repo, h.orch, cache.NewMemoryDedupe(nil), nil, h.clk, cfg, logger)
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sched.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	h.sched.Stop(ctx)

	assert.Equal(t, []string{
		scheduler.JobCaptureDuePayments,
		scheduler.JobExpireStaleHolds,
		scheduler.JobSendPaymentReminders,
	}, h.sched.Jobs())
}
