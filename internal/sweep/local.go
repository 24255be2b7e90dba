package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

// LocalScheduler runs the plans inside the current process. Interval plans
// tick through a jittered ticker so several replicas do not fire in lockstep.
type LocalScheduler struct {
	plans  []Plan
	jitter time.Duration
	now    func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *zap.SugaredLogger
}

func NewLocalScheduler(plans []Plan, jitter time.Duration) *LocalScheduler {
	return &LocalScheduler{
		plans:  plans,
		jitter: jitter,
		now:    func() time.Time { return time.Now().UTC() },
		log:    zap.S().Named("local_scheduler"),
	}
}

func (l *LocalScheduler) Start(ctx context.Context) error {
	ctx, l.cancel = context.WithCancel(ctx)
	for _, plan := range l.plans {
		l.wg.Add(1)
		go func(p Plan) {
			defer l.wg.Done()
			if interval, ok := p.Schedule.(IntervalSchedule); ok {
				l.tick(ctx, p.Sweep, time.Duration(interval))
				return
			}
			l.wait(ctx, p)
		}(plan)
		l.log.Infow("sweep scheduled", "sweep", plan.Sweep.Name(), "next", plan.Schedule.Next(l.now()))
	}
	return nil
}

func (l *LocalScheduler) Stop(_ context.Context) error {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
	l.log.Info("local scheduler stopped")
	return nil
}

func (l *LocalScheduler) tick(ctx context.Context, sw Sweep, interval time.Duration) {
	ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: l.jitter, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		l.run(ctx, sw)
	}
}

func (l *LocalScheduler) wait(ctx context.Context, p Plan) {
	for {
		timer := time.NewTimer(p.Schedule.Next(l.now()).Sub(l.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		l.run(ctx, p.Sweep)
	}
}

func (l *LocalScheduler) run(ctx context.Context, sw Sweep) {
	outcome, err := sw.Run(ctx)
	if err != nil {
		l.log.Errorw("sweep failed", "sweep", sw.Name(), "error", err)
		return
	}
	l.log.Debugw("sweep finished", "sweep", sw.Name(), "counts", outcome.Counts)
}
