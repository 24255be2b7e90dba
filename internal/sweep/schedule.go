package sweep

import (
	"fmt"
	"time"

	"github.com/servicemarket/missions/internal/config"
)

// Schedule yields the next run time strictly after the given instant.
type Schedule interface {
	Next(current time.Time) time.Time
}

type IntervalSchedule time.Duration

func (s IntervalSchedule) Next(current time.Time) time.Time {
	return current.Add(time.Duration(s))
}

// DailySchedule fires once a day at a fixed UTC wall clock time.
type DailySchedule struct {
	Hour   int
	Minute int
}

// ParseDailySchedule reads an "HH:MM" UTC time of day.
func ParseDailySchedule(s string) (DailySchedule, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return DailySchedule{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return DailySchedule{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (d DailySchedule) Next(current time.Time) time.Time {
	current = current.UTC()
	next := time.Date(current.Year(), current.Month(), current.Day(), d.Hour, d.Minute, 0, 0, time.UTC)
	if !next.After(current) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (d DailySchedule) String() string {
	return fmt.Sprintf("%02d:%02d UTC", d.Hour, d.Minute)
}

type Plan struct {
	Sweep    Sweep
	Schedule Schedule
}

// Plans pairs every sweep of the set with its configured schedule.
func Plans(set Set, cfg config.SchedulerConfig) ([]Plan, error) {
	if cfg.ContactReleaseInterval <= 0 {
		return nil, fmt.Errorf("contact release interval must be positive")
	}
	solicitation, err := ParseDailySchedule(cfg.SolicitationTime)
	if err != nil {
		return nil, err
	}
	publication, err := ParseDailySchedule(cfg.PublicationTime)
	if err != nil {
		return nil, err
	}

	schedules := map[string]Schedule{
		ContactReleaseName:     IntervalSchedule(cfg.ContactReleaseInterval),
		ReviewSolicitationName: solicitation,
		ReviewPublicationName:  publication,
	}

	plans := make([]Plan, 0, len(set))
	for _, name := range set.Names() {
		plans = append(plans, Plan{Sweep: set[name], Schedule: schedules[name]})
	}
	return plans, nil
}
