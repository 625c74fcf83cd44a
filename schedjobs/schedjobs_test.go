package schedjobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestCronJob_Matches(t *testing.T) {
	job := NewHourlyJob("sweep", 17, nil)
	job.Weekdays = BitsFromWeekdays([]int{1}) // mondays

	monday := time.Date(2026, 10, 12, 9, 17, 0, 0, time.UTC)
	assert.True(t, job.Matches(monday))
	assert.False(t, job.Matches(monday.Add(time.Minute)))
	assert.False(t, job.Matches(monday.AddDate(0, 0, 1)))

	job = NewEveryMinuteJob("all", nil)
	job.DaysOfMonth = BitsFromDaysOfMonth([]int{31})
	job.Hours = BitsFromHours([]int{23})
	assert.True(t, job.Matches(time.Date(2026, 10, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, job.Matches(time.Date(2026, 10, 30, 23, 59, 0, 0, time.UTC)))
}

func TestNewCronJob(t *testing.T) {
	job, err := NewCronJob("report", "0,30 9-17 * * 1-5", nil)
	require.NoError(t, err)
	assert.Equal(t, BitsFromMinutes([]int{0, 30}), job.Minutes)
	assert.Equal(t, BitsFromHours([]int{9, 10, 11, 12, 13, 14, 15, 16, 17}), job.Hours)
	assert.Equal(t, AllDaysOfMonth, job.DaysOfMonth)
	assert.Equal(t, AllMonths, job.Months)
	assert.Equal(t, BitsFromWeekdays([]int{1, 2, 3, 4, 5}), job.Weekdays)

	monday := time.Date(2026, 10, 12, 9, 30, 0, 0, time.UTC)
	assert.True(t, job.Matches(monday))
	assert.False(t, job.Matches(monday.Add(15*time.Minute)))
	assert.False(t, job.Matches(monday.AddDate(0, 0, 6)), "sunday")

	job, err = NewCronJob("steps", "*/20 0 1 1,12 *", nil)
	require.NoError(t, err)
	assert.Equal(t, BitsFromMinutes([]int{0, 20, 40}), job.Minutes)
	assert.Equal(t, uint32(1), job.DaysOfMonth)
	assert.Equal(t, uint16(1|1<<11), job.Months)
	assert.True(t, job.Matches(time.Date(2026, 12, 1, 0, 40, 0, 0, time.UTC)))
	assert.False(t, job.Matches(time.Date(2026, 11, 1, 0, 40, 0, 0, time.UTC)))

	job, err = NewCronJob("tail", "50/5 * * * *", nil)
	require.NoError(t, err)
	assert.Equal(t, BitsFromMinutes([]int{50, 55}), job.Minutes)

	for _, bad := range []string{"* * * *", "60 * * * *", "* * 0 * *", "5-1 * * * *", "*/0 * * * *", "a * * * *", "* * * 13 *", "* * * * 7"} {
		_, err = NewCronJob("bad", bad, nil)
		assert.Error(t, err, bad)
	}
}

func TestBits_IgnoreOutOfRange(t *testing.T) {
	assert.Equal(t, uint64(1<<5), BitsFromMinutes([]int{5, 60, -1}))
	assert.Equal(t, uint32(1), BitsFromDaysOfMonth([]int{1, 0, 32}))
	assert.Equal(t, AllWeekdays, BitsFromWeekdays([]int{0, 1, 2, 3, 4, 5, 6, 7}))
}

func TestScheduler_RunDue(t *testing.T) {
	s := NewScheduler(context.Background(), nil)
	var ran atomic.Int32
	var failed atomic.Value
	ok := NewEveryMinuteJob("count", func(context.Context) error {
		ran.Add(1)
		return nil
	})
	bad := NewHourlyJob("bad", 0, func(context.Context) error { panic("boom") })
	bad.OnFinished = func(err error) { failed.Store(err) }
	s.AddCronJob(ok)
	s.AddCronJob(bad)

	assert.Equal(t, 1, s.RunDue(time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, 2, s.RunDue(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)))
	s.Wait()
	assert.EqualValues(t, 2, ran.Load())
	err, _ := failed.Load().(error)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	s.DeleteCronJob("bad")
	require.Len(t, s.CronJobs(), 1)
	assert.Equal(t, "count", s.CronJobs()[0].ID)
}

func TestScheduler_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewScheduler(context.Background(), nil)
	s.Tick = 5 * time.Millisecond
	started := make(chan struct{}, 1)
	s.AddCronJob(NewEveryMinuteJob("tick", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}))
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
	s.Stop()
	select {
	case err := <-s.Done():
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.ErrorIs(t, s.Ctx.Err(), context.Canceled)
}
