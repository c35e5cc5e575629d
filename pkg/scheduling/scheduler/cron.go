package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	pferrors "github.com/vnykmshr/prioflow/pkg/common/errors"
)

// cronParser accepts six fields with an optional leading seconds field,
// plus descriptors such as "@hourly" and "@every 5m".
//
// Examples:
//
//	"0 */2 * * *"       - Every 2 hours
//	"30 14 * * 1-5"     - 2:30 PM on weekdays
//	"*/10 * * * * *"    - Every 10 seconds
//	"@daily"            - Every day at midnight
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseCron parses a cron expression.
func ParseCron(expr string) (cron.Schedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, pferrors.NewValidationError("scheduler", "cronExpr", expr, err.Error()).
			WithHint("use five fields, six with seconds, or a descriptor such as @hourly")
	}
	return schedule, nil
}

// ValidateCronExpression reports whether expr can be scheduled.
func ValidateCronExpression(expr string) error {
	_, err := ParseCron(expr)
	return err
}

// CronDescription provides human-readable information about a cron expression.
type CronDescription struct {
	Expression  string
	Description string
	NextRuns    []time.Time
	TimeZone    string
}

// DescribeCron explains expr and lists its next n run times after from,
// evaluated in loc.
func DescribeCron(expr string, from time.Time, loc *time.Location, n int) (CronDescription, error) {
	schedule, err := ParseCron(expr)
	if err != nil {
		return CronDescription{}, err
	}
	if loc == nil {
		loc = time.Local
	}

	next := make([]time.Time, 0, n)
	current := from.In(loc)
	for i := 0; i < n; i++ {
		current = schedule.Next(current)
		if current.IsZero() {
			break
		}
		next = append(next, current)
	}

	return CronDescription{
		Expression:  expr,
		Description: describe(expr),
		NextRuns:    next,
		TimeZone:    loc.String(),
	}, nil
}

func describe(expr string) string {
	switch expr {
	case "@yearly", "@annually":
		return "Once a year (January 1st at midnight)"
	case "@monthly":
		return "Once a month (1st day at midnight)"
	case "@weekly":
		return "Once a week (Sunday at midnight)"
	case "@daily", "@midnight":
		return "Once a day (at midnight)"
	case "@hourly":
		return "Once an hour (at minute 0)"
	}
	return fmt.Sprintf("Custom schedule: %s", expr)
}
