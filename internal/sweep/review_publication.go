package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/util"
	"github.com/servicemarket/missions/pkg/metrics"
	"go.uber.org/zap"
)

// ReviewPublication reveals hidden evaluations once both sides have rated
// each other, or once the grace period has elapsed for a lone evaluation.
type ReviewPublication struct {
	store     store.Store
	clock     util.Clock
	grace     time.Duration
	batchSize int
	log       *zap.SugaredLogger
}

func NewReviewPublication(s store.Store, clock util.Clock, grace time.Duration, batchSize int) *ReviewPublication {
	return &ReviewPublication{
		store:     s,
		clock:     clock,
		grace:     grace,
		batchSize: batchSize,
		log:       zap.S().Named("review_publication"),
	}
}

func (p *ReviewPublication) Name() string {
	return ReviewPublicationName
}

func (p *ReviewPublication) Run(ctx context.Context) (Outcome, error) {
	published, err := p.Publish(ctx)
	return Outcome{Sweep: p.Name(), Counts: map[string]int{"published": published}}, err
}

// Publish returns the number of rows actually flipped to visible by this run.
func (p *ReviewPublication) Publish(ctx context.Context) (published int, err error) {
	start := time.Now()
	defer func() { observe(p.Name(), start, err) }()

	now := p.clock.Now()
	done := map[uuid.UUID]bool{}

	// flipping rows shrinks the hidden set, so the scan moves forward by the
	// rows it leaves hidden
	offset := 0
	for {
		hidden, err := p.store.Evaluation().List(ctx,
			store.NewEvaluationQueryFilter().ByVisible(false),
			store.NewQueryOptions().
				WithSortOrder(store.SortByCreatedTime).
				WithLimit(p.batchSize).
				WithOffset(offset))
		if err != nil {
			return published, fmt.Errorf("failed to list hidden evaluations: %w", err)
		}

		flippedInBatch := 0
		for _, e := range hidden {
			if done[e.MissionID] {
				continue
			}
			n, err := p.publish(ctx, e, now)
			if err != nil {
				p.log.Errorw("failed to publish evaluation", "evaluation_id", e.ID, "mission_id", e.MissionID, "error", err)
				continue
			}
			if n > 0 {
				done[e.MissionID] = true
			}
			published += int(n)
			flippedInBatch += int(n)
		}

		if len(hidden) < p.batchSize {
			break
		}
		offset += len(hidden) - flippedInBatch
		if offset < 0 {
			offset = 0
		}
	}

	metrics.IncreaseSweepRowsMetric(p.Name(), "published", published)
	p.log.Infow("review publication done", "published", published)
	return published, nil
}

func (p *ReviewPublication) publish(ctx context.Context, e model.Evaluation, now time.Time) (int64, error) {
	siblings, err := p.store.Evaluation().List(ctx,
		store.NewEvaluationQueryFilter().ByMissionID(e.MissionID).ByTarget(e.Target.Opposite()), nil)
	if err != nil {
		return 0, err
	}

	if len(siblings) > 0 {
		return p.store.Evaluation().RevealMission(ctx, e.MissionID)
	}

	if now.Sub(e.CreatedAt) >= p.grace {
		return p.store.Evaluation().Reveal(ctx, e.ID)
	}
	return 0, nil
}
