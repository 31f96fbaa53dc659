package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrdine-backend/internal/models"
)

type memoryHistory struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
	saves   int
	err     error
}

func (m *memoryHistory) Load(context.Context) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memoryHistory) Save(_ context.Context, entries []models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.entries = entries
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Message
	}
	return out
}

var (
	amit    = Assignee{ID: "W123", Name: "Amit Kumar"}
	waiterA = Assignee{ID: "WA", Name: "A"}
	waiterB = Assignee{ID: "WB", Name: "B"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *memoryHistory, *recordingNotifier, *fakeClock) {
	t.Helper()
	hist := &memoryHistory{}
	notes := &recordingNotifier{}
	clock := &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)}
	store := NewStore(hist, StoreConfig{Notifier: notes, Now: clock.Now})
	return store, hist, notes, clock
}

func sampleBatch(now time.Time) []models.Order {
	ms := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }
	return []models.Order{
		{ID: 201, Table: 5, Priority: models.PriorityHigh, ReadyAt: ms(3 * time.Minute), Status: models.OrderStatusReady},
		{ID: 202, Table: 2, Priority: models.PriorityMedium, ReadyAt: ms(7 * time.Minute), Status: models.OrderStatusReady},
		{ID: 203, Table: 8, Priority: models.PriorityLow, ReadyAt: ms(1 * time.Minute), Status: models.OrderStatusReady},
	}
}

func TestStore_ReconcileRanksAndReportsNew(t *testing.T) {
	store, _, _, clock := newTestStore(t)

	res := store.Reconcile(sampleBatch(clock.Now()))

	assert.ElementsMatch(t, []int{201, 202, 203}, res.NewOrderIDs)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []int{201, 202, 203}, ids(store.Orders()))

	res = store.Reconcile(sampleBatch(clock.Now()))
	assert.Empty(t, res.NewOrderIDs)
}

func TestStore_ReconcileNewIDsAreExactDifference(t *testing.T) {
	store, _, _, clock := newTestStore(t)
	batch := sampleBatch(clock.Now())
	store.Reconcile(batch[:2])

	// 202 disappears and 203 appears: the count stays at 2 but one order is new.
	res := store.Reconcile([]models.Order{batch[0], batch[2]})

	assert.Equal(t, []int{203}, res.NewOrderIDs)
}

func TestStore_AssignThenServe(t *testing.T) {
	ctx := context.Background()
	store, hist, notes, clock := newTestStore(t)
	store.Reconcile(sampleBatch(clock.Now()))

	assigned, err := store.Assign(ctx, 202, amit)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, "Amit Kumar", *assigned.AssignedTo)
	assert.Equal(t, []int{202}, store.AssignedIDs())

	stats := store.Stats()
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 1, stats.AssignedOrders)

	entry, err := store.Serve(ctx, 202, amit)
	require.NoError(t, err)
	assert.Equal(t, 7, entry.DeliveryTime)
	assert.Equal(t, models.OrderStatusServed, entry.Status)
	assert.Equal(t, clock.Now().UnixMilli(), entry.ServedAt)

	_, active := store.Order(202)
	assert.False(t, active)
	assert.Empty(t, store.AssignedIDs())
	require.Len(t, store.History(), 1)
	assert.Equal(t, 1, hist.saves)
	assert.Len(t, hist.entries, 1)

	stats = store.Stats()
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 0, stats.AssignedOrders)
	assert.Equal(t, 1, stats.CompletedToday)
	assert.Equal(t, 7, stats.AvgDeliveryTime)

	assert.Equal(t, []string{
		"🎯 Order #202 assigned to you!",
		"🎉 Order #202 served successfully!",
	}, notes.messages())
}

func TestStore_ServeWithoutAssignIsAllowed(t *testing.T) {
	store, _, _, clock := newTestStore(t)
	store.Reconcile(sampleBatch(clock.Now()))

	entry, err := store.Serve(context.Background(), 203, amit)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.DeliveryTime)
	assert.Nil(t, entry.AssignedTo)
}

func TestStore_InvalidTransitionsChangeNothing(t *testing.T) {
	ctx := context.Background()
	store, _, _, clock := newTestStore(t)
	store.Reconcile(sampleBatch(clock.Now()))

	_, err := store.Assign(ctx, 201, waiterA)
	require.NoError(t, err)

	_, err = store.Assign(ctx, 201, waiterB)
	require.ErrorIs(t, err, ErrInvalidTransition)
	order, _ := store.Order(201)
	assert.Equal(t, "A", *order.AssignedTo)
	assert.Equal(t, []int{201}, store.AssignedIDs())

	_, err = store.Serve(ctx, 201, waiterA)
	require.NoError(t, err)

	_, err = store.Assign(ctx, 201, waiterA)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.OrderStatusServed, terr.From)

	_, err = store.Serve(ctx, 201, waiterA)
	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.Len(t, store.History(), 1)

	_, err = store.Assign(ctx, 999, waiterA)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestStore_ReconcileKeepsAssignmentsAndDropsServed(t *testing.T) {
	ctx := context.Background()
	store, _, _, clock := newTestStore(t)
	batch := sampleBatch(clock.Now())
	store.Reconcile(batch)

	_, err := store.Assign(ctx, 202, waiterA)
	require.NoError(t, err)
	_, err = store.Serve(ctx, 201, waiterA)
	require.NoError(t, err)

	// The kitchen still reports everything, including the served order.
	res := store.Reconcile(batch)
	assert.Empty(t, res.NewOrderIDs)
	assert.Equal(t, []int{202, 203}, ids(store.Orders()))
	order, _ := store.Order(202)
	assert.Equal(t, models.OrderStatusAssigned, order.Status)

	// The kitchen drops the assigned order: it stays until served.
	store.Reconcile(batch[2:])
	assert.Equal(t, []int{202, 203}, ids(store.Orders()))
	assert.Equal(t, 1, store.Stats().AssignedOrders)
}

func TestStore_Search(t *testing.T) {
	store, _, _, clock := newTestStore(t)
	store.Reconcile(sampleBatch(clock.Now()))

	assert.Equal(t, []int{201, 202, 203}, ids(store.Search("")))
	assert.Equal(t, []int{202}, ids(store.Search("202")))
	// table 8 and id 203 are both matched by different fields
	assert.Equal(t, []int{203}, ids(store.Search("8")))
	assert.Equal(t, []int{201, 202, 203}, ids(store.Search("20")))
	assert.Empty(t, store.Search("999"))
}

func TestStore_SearchMatchesEitherField(t *testing.T) {
	store, _, _, clock := newTestStore(t)
	now := clock.Now().UnixMilli()
	store.Reconcile([]models.Order{
		{ID: 201, Table: 5, Priority: models.PriorityHigh, ReadyAt: now},
		{ID: 202, Table: 2, Priority: models.PriorityHigh, ReadyAt: now - 1},
	})

	tests := []struct {
		text string
		want []int
	}{
		{"2", []int{201, 202}},
		{"5", []int{201}},
		{"202", []int{202}},
		{" 2", nil},
		{"7", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ids(store.Search(tt.text))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_ServeFiveMinutesAfterReady(t *testing.T) {
	ctx := context.Background()
	store, _, _, clock := newTestStore(t)
	now := clock.Now().UnixMilli()
	store.Reconcile([]models.Order{
		{ID: 301, Table: 1, Priority: models.PriorityHigh, ReadyAt: now},
		{ID: 302, Table: 4, Priority: models.PriorityLow, ReadyAt: now},
	})

	_, err := store.Assign(ctx, 301, amit)
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	_, err = store.Serve(ctx, 301, amit)
	require.NoError(t, err)

	stats := store.Stats()
	assert.Equal(t, 1, stats.CompletedToday)
	assert.Equal(t, 5, stats.AvgDeliveryTime)
	assert.Equal(t, []int{302}, ids(store.Orders()))
}

func TestStore_NotificationsTargetActingWaiter(t *testing.T) {
	ctx := context.Background()
	store, _, notes, clock := newTestStore(t)
	store.Reconcile(sampleBatch(clock.Now()))

	_, err := store.Assign(ctx, 201, amit)
	require.NoError(t, err)
	_, err = store.Serve(ctx, 201, amit)
	require.NoError(t, err)

	require.Len(t, notes.sent, 2)
	for _, n := range notes.sent {
		assert.Equal(t, "W123", n.WaiterID)
	}
}

func TestStore_AverageIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	serveAll := func(delays []time.Duration) int {
		store, _, _, clock := newTestStore(t)
		var batch []models.Order
		for i, d := range delays {
			batch = append(batch, models.Order{ID: i + 1, Priority: models.PriorityLow, ReadyAt: clock.Now().Add(-d).UnixMilli()})
		}
		store.Reconcile(batch)
		for i := range delays {
			_, err := store.Serve(ctx, i+1, waiterA)
			require.NoError(t, err)
		}
		return store.Stats().AvgDeliveryTime
	}

	forward := serveAll([]time.Duration{time.Minute, 0, 0})
	backward := serveAll([]time.Duration{0, 0, time.Minute})
	assert.Equal(t, forward, backward)
	assert.Equal(t, 0, forward)

	assert.Equal(t, 2, serveAll([]time.Duration{time.Minute, 2 * time.Minute, 3*time.Minute + 30*time.Second}))
	assert.Equal(t, 3, serveAll([]time.Duration{2 * time.Minute, 3 * time.Minute}))
}

func TestStore_CompletedTodayUsesLocalDay(t *testing.T) {
	ctx := context.Background()
	store, _, _, clock := newTestStore(t)
	store.Reconcile(sampleBatch(clock.Now()))

	_, err := store.Serve(ctx, 201, waiterA)
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	_, err = store.Serve(ctx, 202, waiterA)
	require.NoError(t, err)

	stats := store.Stats()
	assert.Equal(t, 1, stats.CompletedToday)
	assert.Len(t, store.History(), 2)
	assert.Equal(t, 202, store.History()[0].ID)
}

func TestStore_PersistenceFailureKeepsOrderServed(t *testing.T) {
	store, hist, notes, clock := newTestStore(t)
	hist.err = errors.New("disk full")
	store.Reconcile(sampleBatch(clock.Now()))

	_, err := store.Serve(context.Background(), 201, waiterA)
	require.NoError(t, err)

	_, active := store.Order(201)
	assert.False(t, active)
	assert.Len(t, store.History(), 1)
	assert.Contains(t, notes.messages(), "Failed to save order history")
}

func TestStore_LoadHistorySeedsStatsAndServedSet(t *testing.T) {
	store, hist, _, clock := newTestStore(t)
	hist.entries = []models.HistoryEntry{
		{Order: models.Order{ID: 201}, ServedAt: clock.Now().UnixMilli(), DeliveryTime: 4},
		{Order: models.Order{ID: 150}, ServedAt: clock.Now().Add(-48 * time.Hour).UnixMilli(), DeliveryTime: 6},
	}

	require.NoError(t, store.LoadHistory(context.Background()))

	stats := store.Stats()
	assert.Equal(t, 1, stats.CompletedToday)
	assert.Equal(t, 5, stats.AvgDeliveryTime)

	res := store.Reconcile(sampleBatch(clock.Now()))
	assert.ElementsMatch(t, []int{202, 203}, res.NewOrderIDs)
}

func TestStore_ConcurrentServeCountsOnce(t *testing.T) {
	store, _, _, clock := newTestStore(t)
	store.Reconcile(sampleBatch(clock.Now()))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Serve(context.Background(), 201, waiterA); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Len(t, store.History(), 1)
}

func TestDeliveryMinutes(t *testing.T) {
	assert.Equal(t, 0, deliveryMinutes(0, 59_999))
	assert.Equal(t, 1, deliveryMinutes(0, 60_000))
	assert.Equal(t, 7, deliveryMinutes(1_000, 1_000+7*60_000+30_000))
	assert.Equal(t, -1, deliveryMinutes(1_000, 0))
}
