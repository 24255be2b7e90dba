package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/servicemarket/missions/internal/notification"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/pkg/metrics"
	"go.uber.org/zap"
)

// ContactRelease discloses each party's contact details to the other once a
// mission has been accepted.
type ContactRelease struct {
	store     store.Store
	gateway   notification.Gateway
	batchSize int
	log       *zap.SugaredLogger
}

func NewContactRelease(s store.Store, gateway notification.Gateway, batchSize int) *ContactRelease {
	return &ContactRelease{
		store:     s,
		gateway:   gateway,
		batchSize: batchSize,
		log:       zap.S().Named("contact_release"),
	}
}

func (c *ContactRelease) Name() string {
	return ContactReleaseName
}

func (c *ContactRelease) Run(ctx context.Context) (Outcome, error) {
	released, err := c.Release(ctx)
	return Outcome{Sweep: c.Name(), Counts: map[string]int{"released": released}}, err
}

// Release processes one batch of accepted missions whose contacts are still
// withheld and returns how many this run claimed. Missions claimed by a
// concurrent run are skipped.
func (c *ContactRelease) Release(ctx context.Context) (released int, err error) {
	start := time.Now()
	defer func() { observe(c.Name(), start, err) }()

	missions, err := c.store.Mission().List(ctx,
		store.NewMissionQueryFilter().
			ByStatus(model.MissionStatusAccepted).
			ByContactReleased(false),
		store.NewQueryOptions().
			WithSortOrder(store.SortByUpdatedTime).
			WithLimit(c.batchSize))
	if err != nil {
		return 0, fmt.Errorf("failed to list missions awaiting contact release: %w", err)
	}

	skipped := 0
	for _, m := range missions {
		if err := c.store.Mission().ClaimContactRelease(ctx, m.ID); err != nil {
			if errors.Is(err, store.ErrConditionFailed) {
				skipped++
				continue
			}
			c.log.Errorw("failed to claim contact release", "mission_id", m.ID, "error", err)
			continue
		}
		released++

		c.dispatch(ctx, notification.NewContactRelease(m, model.SideClient, m.Offering.Provider))
		c.dispatch(ctx, notification.NewContactRelease(m, model.SideProvider, m.Client))
	}

	metrics.IncreaseSweepRowsMetric(c.Name(), "released", released)
	metrics.IncreaseSweepRowsMetric(c.Name(), "skipped", skipped)
	c.log.Infow("contact release done", "candidates", len(missions), "released", released, "skipped", skipped)
	return released, nil
}

// dispatch is best effort; the claim stays in place whatever happens.
func (c *ContactRelease) dispatch(ctx context.Context, n notification.Notification) {
	if err := c.gateway.Send(ctx, n); err != nil {
		metrics.IncreaseSweepRowsMetric(c.Name(), "dispatch_failed", 1)
		c.log.Warnw("failed to dispatch contact release", "mission_id", n.MissionID, "recipient", n.Recipient, "error", err)
	}
}
