package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/moviesync/internal/domain"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	day, err := domain.ParseDay(s)
	require.NoError(t, err)
	return day
}

func TestWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checkpoint string
		now        time.Time
		want       []string
	}{
		{
			name:       "two pending days",
			checkpoint: "2025-01-07",
			now:        time.Date(2025, time.January, 10, 8, 0, 0, 0, time.UTC),
			want:       []string{"2025-01-08", "2025-01-09"},
		},
		{
			name:       "capped at seven days",
			checkpoint: "2025-01-01",
			now:        time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
			want:       []string{"2025-01-02", "2025-01-03", "2025-01-04", "2025-01-05", "2025-01-06", "2025-01-07", "2025-01-08"},
		},
		{
			name:       "checkpoint is yesterday",
			checkpoint: "2025-01-09",
			now:        time.Date(2025, time.January, 10, 23, 59, 0, 0, time.UTC),
			want:       nil,
		},
		{
			name:       "exactly seven days behind",
			checkpoint: "2025-01-02",
			now:        time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
			want:       []string{"2025-01-03", "2025-01-04", "2025-01-05", "2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09"},
		},
		{
			name:       "now in another zone uses the UTC date",
			checkpoint: "2025-01-08",
			now:        time.Date(2025, time.January, 11, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*60*60)),
			want:       []string{"2025-01-09"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			days, err := Window(mustDay(t, tt.checkpoint), tt.now)
			require.NoError(t, err)

			var got []string
			for _, d := range days {
				got = append(got, domain.FormatDay(d))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindow_CheckpointInFuture(t *testing.T) {
	t.Parallel()

	_, err := Window(mustDay(t, "2025-01-10"), time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC))
	var ierr *domain.InvalidCheckpointError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "2025-01-09", domain.FormatDay(ierr.Yesterday))
}
