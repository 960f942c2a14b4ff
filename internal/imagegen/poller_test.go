package imagegen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"posterlab/internal/domain"
)

type scriptedGetter struct {
	steps []func() (TaskStatus, error)
	calls int
}

func (g *scriptedGetter) GetTask(ctx context.Context, taskID string) (TaskStatus, error) {
	g.calls++
	if g.calls > len(g.steps) {
		return TaskStatus{State: StateWaiting}, nil
	}
	return g.steps[g.calls-1]()
}

func waiting() func() (TaskStatus, error) {
	return func() (TaskStatus, error) { return TaskStatus{State: StateWaiting}, nil }
}

func succeeded(urls ...string) func() (TaskStatus, error) {
	return func() (TaskStatus, error) { return TaskStatus{State: StateSuccess, ResultURLs: urls}, nil }
}

func failed(msg string) func() (TaskStatus, error) {
	return func() (TaskStatus, error) { return TaskStatus{State: StateFail, FailMsg: msg}, nil }
}

func errored(err error) func() (TaskStatus, error) {
	return func() (TaskStatus, error) { return TaskStatus{}, err }
}

// testPoller swaps real sleeps for an instant recorder.
func testPoller(getter TaskGetter, schedules map[domain.Resolution]Schedule) (*Poller, *[]time.Duration) {
	var slept []time.Duration
	p := NewPoller(getter, zerolog.Nop())
	if schedules != nil {
		p.schedules = schedules
	}
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return p, &slept
}

func TestWaitReturnsFirstResultURL(t *testing.T) {
	getter := &scriptedGetter{steps: []func() (TaskStatus, error){
		waiting(),
		waiting(),
		succeeded("https://cdn.example/a.png", "https://cdn.example/b.png"),
	}}
	p, _ := testPoller(getter, nil)

	url, err := p.Wait(context.Background(), "t1", domain.Resolution1K)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if url != "https://cdn.example/a.png" {
		t.Fatalf("url = %q", url)
	}
	if getter.calls != 3 {
		t.Fatalf("calls = %d", getter.calls)
	}
}

func TestWaitTerminalFailure(t *testing.T) {
	getter := &scriptedGetter{steps: []func() (TaskStatus, error){
		failed("content policy violation"),
	}}
	p, _ := testPoller(getter, nil)

	_, err := p.Wait(context.Background(), "t1", domain.Resolution1K)
	if !domain.IsKind(err, domain.KindProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestWaitContinuesOnTransientFailMessage(t *testing.T) {
	getter := &scriptedGetter{steps: []func() (TaskStatus, error){
		failed("upstream Timeout, try again"),
		failed("worker busy"),
		failed("Rate Limit exceeded"),
		succeeded("https://cdn.example/out.png"),
	}}
	p, _ := testPoller(getter, nil)

	url, err := p.Wait(context.Background(), "t1", domain.Resolution1K)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if url == "" || getter.calls != 4 {
		t.Fatalf("url=%q calls=%d", url, getter.calls)
	}
}

func TestWaitAbortsAfterConsecutiveErrors(t *testing.T) {
	pollErr := errors.New("connection reset")
	getter := &scriptedGetter{steps: []func() (TaskStatus, error){
		errored(pollErr), errored(pollErr), errored(pollErr), errored(pollErr), errored(pollErr),
	}}
	p, _ := testPoller(getter, nil)

	_, err := p.Wait(context.Background(), "t1", domain.Resolution1K)
	if !domain.IsKind(err, domain.KindPollingExhausted) {
		t.Fatalf("expected polling exhausted, got %v", err)
	}
	if getter.calls != errorLimit {
		t.Fatalf("calls = %d, want %d", getter.calls, errorLimit)
	}
}

func TestWaitSuccessResetsErrorCounter(t *testing.T) {
	pollErr := errors.New("connection reset")
	getter := &scriptedGetter{steps: []func() (TaskStatus, error){
		errored(pollErr), errored(pollErr), errored(pollErr), errored(pollErr),
		waiting(),
		errored(pollErr), errored(pollErr),
		succeeded("https://cdn.example/out.png"),
	}}
	p, _ := testPoller(getter, nil)

	url, err := p.Wait(context.Background(), "t1", domain.Resolution1K)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if url == "" {
		t.Fatal("missing result url")
	}
}

func TestWaitTimesOutAfterBudget(t *testing.T) {
	getter := &scriptedGetter{} // always waiting
	schedules := map[domain.Resolution]Schedule{
		domain.Resolution1K: {Interval: time.Second, MaxAttempts: 7},
	}
	p, _ := testPoller(getter, schedules)

	_, err := p.Wait(context.Background(), "t1", domain.Resolution1K)
	if !domain.IsKind(err, domain.KindPollingTimedOut) {
		t.Fatalf("expected polling timed out, got %v", err)
	}
	if getter.calls != 7 {
		t.Fatalf("calls = %d", getter.calls)
	}
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, _ := testPoller(&scriptedGetter{}, nil)

	_, err := p.Wait(ctx, "t1", domain.Resolution1K)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIntervalRampAndBackoff(t *testing.T) {
	p := NewPoller(nil, zerolog.Nop())
	sched := Schedule{Interval: 10 * time.Second, MaxAttempts: 50}

	if got := p.intervalFor(sched, 1, 0); got != time.Second {
		t.Fatalf("attempt 1 interval = %s", got)
	}
	if got := p.intervalFor(sched, 5, 0); got != 5*time.Second {
		t.Fatalf("attempt 5 interval = %s", got)
	}
	if got := p.intervalFor(sched, 30, 0); got != 10*time.Second {
		t.Fatalf("steady interval = %s", got)
	}
	if got := p.intervalFor(sched, 30, 2); got != 40*time.Second {
		t.Fatalf("backoff interval = %s", got)
	}
	if got := p.intervalFor(sched, 30, 6); got != maxErrorBackoff {
		t.Fatalf("capped backoff = %s", got)
	}
}

func TestSchedulesScaleWithResolution(t *testing.T) {
	one, two, four := DefaultSchedules[domain.Resolution1K], DefaultSchedules[domain.Resolution2K], DefaultSchedules[domain.Resolution4K]
	if !(one.Interval < two.Interval && two.Interval < four.Interval) {
		t.Fatal("intervals must grow with resolution")
	}
	if !(one.MaxAttempts < two.MaxAttempts && two.MaxAttempts < four.MaxAttempts) {
		t.Fatal("attempt budgets must grow with resolution")
	}
}
