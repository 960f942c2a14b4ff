package imagegen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"posterlab/internal/domain"
)

// Schedule fixes the polling cadence for one output resolution. Larger
// renders get a longer steady interval and a bigger attempt budget.
type Schedule struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultSchedules maps each supported resolution to its cadence.
var DefaultSchedules = map[domain.Resolution]Schedule{
	domain.Resolution1K: {Interval: 3 * time.Second, MaxAttempts: 40},
	domain.Resolution2K: {Interval: 5 * time.Second, MaxAttempts: 70},
	domain.Resolution4K: {Interval: 8 * time.Second, MaxAttempts: 100},
}

const (
	// rampAttempts is how many initial polls use a shortened interval.
	rampAttempts = 10
	// errorLimit is the consecutive-failure count that aborts polling.
	errorLimit = 5
	// maxErrorBackoff caps the doubled interval applied after failures.
	maxErrorBackoff = 2 * time.Minute
)

// retryableFailMarkers are provider fail messages that describe transient
// conditions; polling continues when one of them appears.
var retryableFailMarkers = []string{"timeout", "rate limit", "busy"}

// TaskGetter is the slice of the provider client the poller needs.
type TaskGetter interface {
	GetTask(ctx context.Context, taskID string) (TaskStatus, error)
}

// Poller drives a submitted task to a terminal state.
type Poller struct {
	client    TaskGetter
	logger    zerolog.Logger
	schedules map[domain.Resolution]Schedule
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewPoller(client TaskGetter, logger zerolog.Logger) *Poller {
	return &Poller{
		client:    client,
		logger:    logger,
		schedules: DefaultSchedules,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait polls the task until it succeeds, fails terminally, exhausts its
// attempt budget, or accumulates too many consecutive poll errors. On
// success it returns the first result URL.
func (p *Poller) Wait(ctx context.Context, taskID string, res domain.Resolution) (string, error) {
	sched, ok := p.schedules[res]
	if !ok {
		sched = p.schedules[domain.Resolution2K]
	}
	start := time.Now()
	consecutiveErrs := 0

	for attempt := 1; attempt <= sched.MaxAttempts; attempt++ {
		if err := p.sleep(ctx, p.intervalFor(sched, attempt, consecutiveErrs)); err != nil {
			return "", err
		}

		status, err := p.client.GetTask(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			consecutiveErrs++
			p.logger.Warn().Err(err).
				Str("task_id", taskID).
				Int("consecutive_errors", consecutiveErrs).
				Msg("task poll failed")
			if consecutiveErrs >= errorLimit {
				return "", domain.WrapError(domain.KindPollingExhausted, err,
					fmt.Sprintf("polling aborted after %d consecutive errors", consecutiveErrs))
			}
			continue
		}
		consecutiveErrs = 0

		switch status.State {
		case StateSuccess:
			if len(status.ResultURLs) == 0 {
				return "", domain.NewError(domain.KindProviderFailure, "task succeeded without result urls")
			}
			return status.ResultURLs[0], nil
		case StateFail:
			if transientFailMessage(status.FailMsg) {
				p.logger.Warn().
					Str("task_id", taskID).
					Str("fail_msg", status.FailMsg).
					Msg("transient provider failure, continuing to poll")
				continue
			}
			return "", domain.Errorf(domain.KindProviderFailure, "task failed: %s", status.FailMsg)
		}
	}

	return "", domain.Errorf(domain.KindPollingTimedOut,
		"task %s still pending after %s (%d attempts)", taskID, time.Since(start).Round(time.Second), sched.MaxAttempts)
}

// intervalFor ramps the interval linearly over the first attempts, then holds
// it at the schedule's steady value. Consecutive poll errors double the wait,
// bounded by maxErrorBackoff.
func (p *Poller) intervalFor(sched Schedule, attempt, consecutiveErrs int) time.Duration {
	interval := sched.Interval
	if attempt <= rampAttempts {
		ramped := sched.Interval * time.Duration(attempt) / rampAttempts
		if ramped < interval {
			interval = ramped
		}
	}
	for i := 0; i < consecutiveErrs; i++ {
		interval *= 2
		if interval >= maxErrorBackoff {
			return maxErrorBackoff
		}
	}
	return interval
}

func transientFailMessage(msg string) bool {
	lowered := strings.ToLower(msg)
	for _, marker := range retryableFailMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
