package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"
	"github.com/servicemarket/missions/internal/sweep"
	"go.uber.org/zap"
)

const (
	JobTimeout = 10 * time.Minute
	JobKind    = "mission_sweep"
)

type SweepArgs struct {
	Name string `json:"name"`
}

func (SweepArgs) Kind() string {
	return JobKind
}

func (SweepArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: MaxJobRetries,
	}
}

// SweepWorker runs the sweep named in the job arguments.
type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]
	sweeps sweep.Set
}

func NewSweepWorker(sweeps sweep.Set) *SweepWorker {
	return &SweepWorker{sweeps: sweeps}
}

func (w *SweepWorker) Timeout(job *river.Job[SweepArgs]) time.Duration {
	return JobTimeout
}

func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepArgs]) error {
	sw, err := w.sweeps.Get(job.Args.Name)
	if err != nil {
		return river.JobCancel(err)
	}

	outcome, err := sw.Run(ctx)
	if err != nil {
		return err
	}
	zap.S().Named("sweep_worker").Infow("sweep job done", "job_id", job.ID, "sweep", outcome.Sweep, "counts", outcome.Counts)
	return nil
}
