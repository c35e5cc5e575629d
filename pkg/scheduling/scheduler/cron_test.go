package scheduler

import (
	"testing"
	"time"

	"github.com/vnykmshr/prioflow/internal/testutil"
)

func TestValidateCronExpression(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 */2 * * *", false},
		{"30 14 * * 1-5", false},
		{"*/10 * * * * *", false},
		{"@daily", false},
		{"@every 90s", false},
		{"", true},
		{"61 * * * *", true},
		{"* * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCronExpression(tt.expr)
			testutil.AssertEqual(t, err != nil, tt.wantErr)
		})
	}
}

func TestDescribeCron(t *testing.T) {
	from := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	d, err := DescribeCron("@hourly", from, time.UTC, 3)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, d.Description, "Once an hour (at minute 0)")
	testutil.AssertEqual(t, d.TimeZone, "UTC")
	testutil.AssertEqual(t, len(d.NextRuns), 3)
	testutil.AssertEqual(t, d.NextRuns[0].Equal(time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)), true)
	testutil.AssertEqual(t, d.NextRuns[2].Equal(time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)), true)

	d, err = DescribeCron("15 8 * * *", from, nil, 1)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, d.Description, "Custom schedule: 15 8 * * *")

	_, err = DescribeCron("bogus", from, time.UTC, 1)
	testutil.AssertError(t, err)
}

func TestStepFromZeroMatchesWildcardStep(t *testing.T) {
	from := time.Date(2026, 3, 1, 10, 30, 7, 0, time.UTC)

	tests := []struct{ explicit, wildcard string }{
		{"0/10 * * * * *", "*/10 * * * * *"},
		{"0 0/2 * * *", "0 */2 * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.explicit, func(t *testing.T) {
			a, err := DescribeCron(tt.explicit, from, time.UTC, 4)
			testutil.AssertNoError(t, err)
			b, err := DescribeCron(tt.wildcard, from, time.UTC, 4)
			testutil.AssertNoError(t, err)

			testutil.AssertEqual(t, len(a.NextRuns), 4)
			for i := range a.NextRuns {
				testutil.AssertEqual(t, a.NextRuns[i].Equal(b.NextRuns[i]), true)
			}
		})
	}
}
