package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/servicemarket/missions/internal/config"
	"github.com/servicemarket/missions/internal/notification"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/util"
	"github.com/servicemarket/missions/pkg/metrics"
	"go.uber.org/zap"
)

type SolicitationReport struct {
	Sent      int `json:"sent"`
	Retried   int `json:"retried"`
	Expired   int `json:"expired"`
	Evaluated int `json:"evaluated"`
}

// ReviewSolicitation reminds both parties of a completed mission to evaluate
// each other, retrying a bounded number of times.
type ReviewSolicitation struct {
	store       store.Store
	gateway     notification.Gateway
	clock       util.Clock
	delay       time.Duration
	lookback    time.Duration
	maxAttempts int
	retry       time.Duration
	batchSize   int
	log         *zap.SugaredLogger
}

func NewReviewSolicitation(s store.Store, gateway notification.Gateway, clock util.Clock, policy config.PolicyConfig) *ReviewSolicitation {
	return &ReviewSolicitation{
		store:       s,
		gateway:     gateway,
		clock:       clock,
		delay:       policy.SolicitationDelay,
		lookback:    policy.SolicitationLookback,
		maxAttempts: policy.ReminderMaxAttempts,
		retry:       policy.ReminderRetryInterval,
		batchSize:   policy.BatchSize,
		log:         zap.S().Named("review_solicitation"),
	}
}

func (r *ReviewSolicitation) Name() string {
	return ReviewSolicitationName
}

func (r *ReviewSolicitation) Run(ctx context.Context) (Outcome, error) {
	report, err := r.Solicit(ctx)
	return Outcome{Sweep: r.Name(), Counts: map[string]int{
		"sent":      report.Sent,
		"retried":   report.Retried,
		"expired":   report.Expired,
		"evaluated": report.Evaluated,
	}}, err
}

// Solicit walks the missions completed at least `delay` ago and no more than
// `lookback` ago, handling both recipients of each.
func (r *ReviewSolicitation) Solicit(ctx context.Context) (report SolicitationReport, err error) {
	start := time.Now()
	defer func() { observe(r.Name(), start, err) }()

	now := r.clock.Now()
	filter := store.NewMissionQueryFilter().
		ByStatus(model.MissionStatusCompleted).
		UpdatedBetween(now.Add(-r.lookback), now.Add(-r.delay))

	for offset := 0; ; offset += r.batchSize {
		missions, err := r.store.Mission().List(ctx, filter,
			store.NewQueryOptions().
				WithSortOrder(store.SortByUpdatedTime).
				WithLimit(r.batchSize).
				WithOffset(offset))
		if err != nil {
			return report, fmt.Errorf("failed to list completed missions: %w", err)
		}

		for _, m := range missions {
			for _, recipient := range model.Sides() {
				if err := r.solicit(ctx, m, recipient, now, &report); err != nil {
					r.log.Errorw("failed to solicit review", "mission_id", m.ID, "recipient", recipient, "error", err)
				}
			}
		}

		if len(missions) < r.batchSize {
			break
		}
	}

	metrics.IncreaseSweepRowsMetric(r.Name(), "sent", report.Sent)
	metrics.IncreaseSweepRowsMetric(r.Name(), "retried", report.Retried)
	metrics.IncreaseSweepRowsMetric(r.Name(), "expired", report.Expired)
	metrics.IncreaseSweepRowsMetric(r.Name(), "evaluated", report.Evaluated)
	r.log.Infow("review solicitation done", "sent", report.Sent, "retried", report.Retried, "expired", report.Expired, "evaluated", report.Evaluated)
	return report, nil
}

func (r *ReviewSolicitation) solicit(ctx context.Context, m model.Mission, recipient model.Side, now time.Time, report *SolicitationReport) error {
	// the recipient writes the evaluation targeting the other side
	authored, err := r.store.Evaluation().List(ctx,
		store.NewEvaluationQueryFilter().ByMissionID(m.ID).ByTarget(recipient.Opposite()), nil)
	if err != nil {
		return err
	}

	reminder, err := r.store.Reminder().Get(ctx, m.ID, recipient)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return err
	}

	if len(authored) > 0 {
		if reminder == nil || reminder.Terminal() {
			return nil
		}
		err := r.store.Reminder().UpdateStatus(ctx, reminder.ID,
			[]model.ReminderStatus{model.ReminderStatusPending, model.ReminderStatusSent},
			model.ReminderStatusEvaluated, now)
		if err == nil {
			report.Evaluated++
			return nil
		}
		return ignoreLostClaim(err)
	}

	if reminder == nil {
		created, err := r.store.Reminder().Create(ctx, model.Reminder{
			MissionID: m.ID,
			Recipient: recipient,
			Status:    model.ReminderStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return nil
			}
			return err
		}
		reminder = created
	}

	switch reminder.Status {
	case model.ReminderStatusPending:
		// fresh row, or one left behind by a run that stopped before claiming it
		if err := r.claimAndSend(ctx, m, recipient, reminder, now); err != nil {
			return ignoreLostClaim(err)
		}
		report.Sent++
	case model.ReminderStatusSent:
		if reminder.NextAttemptAt != nil && now.Before(*reminder.NextAttemptAt) {
			return nil
		}
		if reminder.Attempts < r.maxAttempts {
			if err := r.claimAndSend(ctx, m, recipient, reminder, now); err != nil {
				return ignoreLostClaim(err)
			}
			report.Retried++
			return nil
		}
		err := r.store.Reminder().UpdateStatus(ctx, reminder.ID,
			[]model.ReminderStatus{model.ReminderStatusSent},
			model.ReminderStatusExpired, now)
		if err != nil {
			return ignoreLostClaim(err)
		}
		report.Expired++
	case model.ReminderStatusEvaluated, model.ReminderStatusExpired:
	}
	return nil
}

func (r *ReviewSolicitation) claimAndSend(ctx context.Context, m model.Mission, recipient model.Side, reminder *model.Reminder, now time.Time) error {
	if err := r.store.Reminder().ClaimSend(ctx, reminder.ID, reminder.Status, reminder.Attempts, now.Add(r.retry), now); err != nil {
		return err
	}

	n := notification.NewReviewReminder(m, recipient, reminder.Attempts+1)
	if err := r.gateway.Send(ctx, n); err != nil {
		metrics.IncreaseSweepRowsMetric(r.Name(), "dispatch_failed", 1)
		r.log.Warnw("failed to dispatch review reminder", "mission_id", m.ID, "recipient", recipient, "attempt", n.Attempt, "error", err)
	}
	return nil
}

func ignoreLostClaim(err error) error {
	if errors.Is(err, store.ErrConditionFailed) {
		return nil
	}
	return err
}
