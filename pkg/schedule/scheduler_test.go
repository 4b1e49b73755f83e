package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/postsync/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntry(t *testing.T) {
	entry, err := ParseEntry(" 0 9 * * 1-5 ; fitness ; u1 ")
	require.NoError(t, err)
	assert.Equal(t, Entry{Cron: "0 9 * * 1-5", Niche: "fitness", UserID: "u1"}, entry)

	_, err = ParseEntry("@daily;devops;u2")
	require.NoError(t, err)

	for _, raw := range []string{"", "0 9 * * *;fitness", "not a cron;fitness;u1", "@daily;;u1"} {
		_, err := ParseEntry(raw)
		require.ErrorIs(t, err, ErrInvalidEntry, raw)
	}
}

func TestScheduler_RunNow(t *testing.T) {
	var got []string

	scheduler := New(func(_ context.Context, niche, userID string) error {
		got = append(got, niche, userID)

		return errors.New("logged, not returned")
	}, log.Discard())

	id, err := scheduler.Add(Entry{Cron: "@daily", Niche: "fitness", UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, scheduler.RunNow(id))
	assert.Equal(t, []string{"fitness", "u1"}, got)

	require.ErrorIs(t, scheduler.RunNow(id+100), ErrInvalidEntry)
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	var fired atomic.Int32

	scheduler := New(func(context.Context, string, string) error {
		fired.Add(1)

		return nil
	}, log.Discard())

	_, err := scheduler.Add(Entry{Cron: "@every 1s", Niche: "fitness", UserID: "u1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	assert.Eventually(t, func() bool { return fired.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
}

func TestScheduler_Add_Invalid(t *testing.T) {
	scheduler := New(func(context.Context, string, string) error { return nil }, log.Discard())

	_, err := scheduler.Add(Entry{Cron: "61 * * * *", Niche: "fitness", UserID: "u1"})
	require.ErrorIs(t, err, ErrInvalidEntry)
}
