package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"qrdine-backend/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type scriptedSource struct {
	mu      sync.Mutex
	batches [][]models.Order
	err     error
	calls   atomic.Int32
	block   chan struct{}
}

func (s *scriptedSource) FetchReady(ctx context.Context) ([]models.Order, error) {
	s.calls.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	batch := s.batches[0]
	if len(s.batches) > 1 {
		s.batches = s.batches[1:]
	}
	return batch, nil
}

type countingAudio struct {
	plays atomic.Int32
	err   error
}

func (a *countingAudio) Play(context.Context) error {
	a.plays.Add(1)
	return a.err
}

func newTestScheduler(t *testing.T, src OrderSource, audio AudioCue) (*Scheduler, *Store, *recordingNotifier) {
	t.Helper()
	store, _, notes, _ := newTestStore(t)
	sched := NewScheduler(src, store, SchedulerConfig{
		Interval: time.Hour,
		Notifier: notes,
		Audio:    audio,
	})
	return sched, store, notes
}

func TestScheduler_FirstLoadIsSilent(t *testing.T) {
	now := time.Now()
	batch := sampleBatch(now)
	src := &scriptedSource{batches: [][]models.Order{batch[:2], batch}}
	audio := &countingAudio{err: errors.New("autoplay blocked")}
	sched, store, notes := newTestScheduler(t, src, audio)

	assert.True(t, sched.Loading())
	res, err := sched.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, sched.Loading())
	assert.Len(t, res.NewOrderIDs, 2)
	assert.Empty(t, notes.messages())
	assert.Equal(t, int32(0), audio.plays.Load())

	res, err = sched.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{203}, res.NewOrderIDs)
	assert.Equal(t, []string{"🔔 1 new order ready!"}, notes.messages())
	assert.Equal(t, int32(1), audio.plays.Load())
	assert.Len(t, store.Orders(), 3)
}

func TestScheduler_FetchFailureNotifiesAndKeepsState(t *testing.T) {
	src := &scriptedSource{batches: [][]models.Order{sampleBatch(time.Now())}}
	sched, store, notes := newTestScheduler(t, src, nil)

	_, err := sched.Refresh(context.Background())
	require.NoError(t, err)

	src.mu.Lock()
	src.err = errors.New("connection refused")
	src.mu.Unlock()

	_, err = sched.Refresh(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, []string{"Failed to fetch orders"}, notes.messages())
	assert.Len(t, store.Orders(), 3)
	assert.False(t, sched.Loading())
	assert.False(t, sched.Refreshing())
}

func TestScheduler_SecondRefreshWhileInFlight(t *testing.T) {
	src := &scriptedSource{block: make(chan struct{})}
	sched, _, _ := newTestScheduler(t, src, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := sched.Refresh(context.Background())
		errc <- err
	}()

	require.Eventually(t, sched.Refreshing, time.Second, 5*time.Millisecond)

	_, err := sched.Refresh(context.Background())
	require.ErrorIs(t, err, ErrRefreshInProgress)

	// A tick that lands during the pull is skipped without calling the source.
	sched.tick(context.Background())
	assert.Equal(t, int32(1), src.calls.Load())

	close(src.block)
	require.NoError(t, <-errc)
	assert.False(t, sched.Refreshing())
}

func TestScheduler_TicksUntilStopped(t *testing.T) {
	src := &scriptedSource{batches: [][]models.Order{sampleBatch(time.Now())}}
	store, _, _, _ := newTestStore(t)
	sched := NewScheduler(src, store, SchedulerConfig{Interval: 5 * time.Millisecond})

	sched.Start(context.Background())
	sched.Start(context.Background())

	require.Eventually(t, func() bool { return src.calls.Load() >= 3 }, time.Second, time.Millisecond)
	assert.False(t, sched.Refreshing())
	sched.Stop()
	sched.Stop()

	calls := src.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, src.calls.Load())
	assert.Len(t, store.Orders(), 3)
}

func TestScheduler_RunReturnsOnCancel(t *testing.T) {
	src := &scriptedSource{}
	store, _, _, _ := newTestStore(t)
	sched := NewScheduler(src, store, SchedulerConfig{Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	require.Eventually(t, func() bool { return src.calls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
