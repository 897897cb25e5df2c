package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/timezone"
	paymentuc "github.com/BruksfildServices01/client-portal/internal/usecase/payment"
)

// CaptureDuePayments captures every hold whose cancellation period is
// over. A client that moved on since the scan is skipped.
func (s *Scheduler) CaptureDuePayments(ctx context.Context) (JobReport, error) {
	ids, err := s.repo.ListPaymentDue(ctx, s.clock.Now())
	if err != nil {
		return JobReport{}, fmt.Errorf("list payment due: %w", err)
	}

	report := JobReport{Scanned: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		res, err := s.payments.CaptureDue(ctx, id, paymentuc.CaptureOptions{})
		switch {
		case err != nil && movedOn(err):
			report.Skipped++
		case err != nil:
			report.Failed++
			s.clientFailed(JobCaptureDuePayments, id, err)
		case res.Outcome == paymentuc.OutcomeAlreadyFinal:
			report.Skipped++
		default:
			report.Succeeded++
		}
	}
	return report, nil
}

// ExpireStaleHolds releases holds whose onboarding stalled past the
// expiry window and cancels those clients.
func (s *Scheduler) ExpireStaleHolds(ctx context.Context) (JobReport, error) {
	ids, err := s.repo.ListStaleHolds(ctx, s.payments.StaleBefore())
	if err != nil {
		return JobReport{}, fmt.Errorf("list stale holds: %w", err)
	}

	report := JobReport{Scanned: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		_, err := s.payments.ExpireHold(ctx, id)
		switch {
		case err == nil:
			report.Succeeded++
		case movedOn(err):
			report.Skipped++
		default:
			report.Failed++
			s.clientFailed(JobExpireStaleHolds, id, err)
		}
	}
	return report, nil
}

// SendPaymentReminders notifies clients whose payment is due on the next
// business day, at most once per client per day.
func (s *Scheduler) SendPaymentReminders(ctx context.Context) (JobReport, error) {
	ids, err := s.repo.ListPendingPayment(ctx)
	if err != nil {
		return JobReport{}, fmt.Errorf("list pending payment: %w", err)
	}

	now := s.clock.Now().In(s.cfg.Location)
	report := JobReport{Scanned: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		c, err := s.repo.Load(ctx, id)
		if err != nil {
			report.Failed++
			s.clientFailed(JobSendPaymentReminders, id, err)
			continue
		}
		if stage.Stage(c.Stage) != stage.PendingPayment || c.PaymentDueAt == nil ||
			!clock.IsNextBusinessDay(now, c.PaymentDueAt.In(s.cfg.Location)) {
			report.Skipped++
			continue
		}

		key := fmt.Sprintf("reminder:%d:%s", id, timezone.DateKey(now, s.cfg.Location))
		first, err := s.dedupe.MarkOnce(ctx, key, s.cfg.ReminderTTL)
		if err != nil {
			report.Failed++
			s.clientFailed(JobSendPaymentReminders, id, err)
			continue
		}
		if !first {
			report.Skipped++
			continue
		}

		s.sink.Send(ctx, notification.Event{
			Type:     notification.EventPaymentReminder,
			ClientID: id,
			Payload: map[string]any{
				"payment_due_at":     *c.PaymentDueAt,
				"amount_minor_units": c.PaymentHold.AmountMinorUnits,
			},
			OccurredAt: now,
		})
		report.Succeeded++
	}
	return report, nil
}

// movedOn reports errors meaning the client no longer qualifies for the
// job, typically because another run or a staff action got there first.
func movedOn(err error) bool {
	return errors.Is(err, stage.ErrIllegalTransition) ||
		errors.Is(err, payment.ErrNoActiveHold) ||
		errors.Is(err, domain.ErrPreconditionFailed)
}

func (s *Scheduler) clientFailed(job string, clientID uint, err error) {
	s.logger.WithFields(logrus.Fields{
		"job":       job,
		"client_id": clientID,
		"retryable": httperr.Retryable(err),
	}).WithError(err).Error("client processing failed")
}
