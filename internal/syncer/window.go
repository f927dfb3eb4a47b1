package syncer

import (
	"time"

	"github.com/Clark-Hu/moviesync/internal/domain"
)

// MaxWindowDays caps how many days a single run processes.
const MaxWindowDays = 7

// Window returns the days strictly after checkpoint up to
// min(checkpoint+MaxWindowDays, yesterday), with yesterday taken from the UTC
// calendar date of now. A checkpoint after yesterday is an error.
func Window(checkpoint, now time.Time) ([]time.Time, error) {
	yesterday := domain.AddDays(now, -1)
	last := domain.Day(checkpoint)
	if last.After(yesterday) {
		return nil, &domain.InvalidCheckpointError{Checkpoint: last, Yesterday: yesterday}
	}

	end := domain.AddDays(last, MaxWindowDays)
	if end.After(yesterday) {
		end = yesterday
	}

	var days []time.Time
	for d := domain.AddDays(last, 1); !d.After(end); d = domain.AddDays(d, 1) {
		days = append(days, d)
	}
	return days, nil
}
