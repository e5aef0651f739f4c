package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var errStore = errors.New("store unavailable")

type fakeStore struct {
	mu      sync.Mutex
	calls   int
	days    []time.Time
	failFor int // fail the first N calls
	updated int64
	block   chan struct{}
	started chan struct{}
	ctxErr  error
}

func (f *fakeStore) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.days = append(f.days, today)
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil && call == 1 {
		close(started)
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	if call <= f.failFor {
		return 0, errStore
	}
	return f.updated, nil
}

func (f *fakeStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// every is a sub-second schedule for tests
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

func newLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestTick(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	clock := func() time.Time { return time.Date(2024, 6, 10, 1, 30, 0, 0, msk) }
	store := &fakeStore{updated: 3}
	logger, hook := newLogger()

	n, err := New(store, clock, logger).Tick(context.Background())

	if err != nil || n != 3 {
		t.Fatalf("Tick got=(%d, %v) want=(3, nil)", n, err)
	}
	if want := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC); !store.days[0].Equal(want) {
		t.Fatalf("today got=%v want=%v", store.days[0], want)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.InfoLevel || e.Data["updated"] != int64(3) {
		t.Fatalf("expected info entry with updated=3, got %+v", e)
	}
}

func TestTickLogsFailure(t *testing.T) {
	store := &fakeStore{failFor: 1}
	logger, hook := newLogger()

	_, err := New(store, nil, logger).Tick(context.Background())

	if !errors.Is(err, errStore) {
		t.Fatalf("err got=%v want=%v", err, errStore)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.ErrorLevel {
		t.Fatalf("expected error log entry, got %+v", e)
	}
}

func TestScheduleSurvivesFailures(t *testing.T) {
	store := &fakeStore{failFor: 2, updated: 1}
	logger, hook := newLogger()
	s := New(store, nil, logger)

	if err := s.StartSchedule(context.Background(), every(10*time.Millisecond)); err != nil {
		t.Fatalf("StartSchedule failed: %v", err)
	}
	waitFor(t, func() bool { return store.Calls() >= 4 })
	s.Stop()

	errorsLogged := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			errorsLogged++
		}
	}
	if errorsLogged != 2 {
		t.Fatalf("error entries got=%d want=2", errorsLogged)
	}
}

func TestStopWaitsForRunningTick(t *testing.T) {
	store := &fakeStore{block: make(chan struct{}), started: make(chan struct{})}
	logger, _ := newLogger()
	s := New(store, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.StartSchedule(ctx, every(10*time.Millisecond)); err != nil {
		t.Fatalf("StartSchedule failed: %v", err)
	}
	<-store.started
	cancel()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatalf("Stop returned while a tick was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.block)
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatalf("Stop did not return after the tick finished")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.ctxErr != nil {
		t.Fatalf("tick context was cancelled: %v", store.ctxErr)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	logger, _ := newLogger()
	s := New(&fakeStore{}, nil, logger)
	if err := s.Start(context.Background(), "every minute please"); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	if err := s.Start(context.Background(), DefaultSchedule); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(context.Background(), DefaultSchedule); err == nil {
		t.Fatalf("expected error on second start")
	}
	s.Stop()
	s.Stop()
}
