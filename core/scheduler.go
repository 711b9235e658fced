package core

import (
	"context"
	"time"
)

// TimerScheduler schedules tasks on time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(delay time.Duration, fn func()) ScheduledTask {
	if fn == nil {
		return noopTask{}
	}
	if delay < 0 {
		delay = 0
	}
	return timerTask{timer: time.AfterFunc(delay, fn)}
}

type timerTask struct {
	timer *time.Timer
}

func (t timerTask) Cancel() bool {
	if t.timer == nil {
		return false
	}
	return t.timer.Stop()
}

type noopTask struct{}

func (noopTask) Cancel() bool { return false }

// sleepContext waits for delay or until ctx is done.
func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Scheduler = TimerScheduler{}
