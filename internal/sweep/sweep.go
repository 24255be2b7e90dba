// Package sweep holds the time-driven reconciliation jobs. Each sweep is a
// stateless function of the persisted rows and the injected clock; every side
// effect is preceded by a conditional write that only one caller can win, so
// runs may overlap with themselves and with each other.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/servicemarket/missions/internal/config"
	"github.com/servicemarket/missions/internal/notification"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/util"
	"github.com/servicemarket/missions/pkg/metrics"
)

const (
	ContactReleaseName     = "contact-release"
	ReviewSolicitationName = "review-solicitation"
	ReviewPublicationName  = "review-publication"
)

// Outcome is the uniform report of a run, keyed by counter name.
type Outcome struct {
	Sweep  string         `json:"sweep"`
	Counts map[string]int `json:"counts"`
}

type Sweep interface {
	Name() string
	Run(ctx context.Context) (Outcome, error)
}

// Set indexes the sweeps by name.
type Set map[string]Sweep

func NewSet(sweeps ...Sweep) Set {
	s := make(Set, len(sweeps))
	for _, sw := range sweeps {
		s[sw.Name()] = sw
	}
	return s
}

// NewDefaultSet builds the three sweeps from the policy.
func NewDefaultSet(s store.Store, gateway notification.Gateway, clock util.Clock, policy config.PolicyConfig) Set {
	return NewSet(
		NewContactRelease(s, gateway, policy.BatchSize),
		NewReviewSolicitation(s, gateway, clock, policy),
		NewReviewPublication(s, clock, policy.VisibilityGrace, policy.BatchSize),
	)
}

// Scheduler triggers the sweeps on their schedules until stopped.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

func (s Set) Get(name string) (Sweep, error) {
	sw, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("unknown sweep %q", name)
	}
	return sw, nil
}

func (s Set) Names() []string {
	var names []string
	for _, name := range []string{ContactReleaseName, ReviewSolicitationName, ReviewPublicationName} {
		if _, ok := s[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func observe(name string, start time.Time, err error) {
	metrics.ObserveSweepRun(name, float64(time.Since(start).Milliseconds()), err)
}
