package jobs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/servicemarket/missions/internal/sweep"
	"go.uber.org/zap"
)

const (
	DefaultQueue  = "sweeps"
	MaxJobRetries = 1
)

// Client schedules the sweeps as river periodic jobs. Only the elected leader
// enqueues them, so a fleet of replicas runs each occurrence once.
type Client struct {
	*river.Client[pgx.Tx]
}

func NewClient(pool *pgxpool.Pool, sweeps sweep.Set, plans []sweep.Plan) (*Client, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewSweepWorker(sweeps))

	periodic := make([]*river.PeriodicJob, 0, len(plans))
	for _, plan := range plans {
		name := plan.Sweep.Name()
		periodic = append(periodic, river.NewPeriodicJob(
			plan.Schedule,
			func() (river.JobArgs, *river.InsertOpts) {
				return SweepArgs{Name: name}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			DefaultQueue: {MaxWorkers: len(plans)},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
	})
	if err != nil {
		return nil, err
	}

	return &Client{Client: riverClient}, nil
}

func (c *Client) Start(ctx context.Context) error {
	if err := c.Client.Start(ctx); err != nil {
		return err
	}
	zap.S().Named("river_scheduler").Info("river scheduler started")
	return nil
}
