package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"qrdine-backend/internal/models"
)

// HistoryStore persists the full served history under a single key.
// Save overwrites whatever was stored before.
type HistoryStore interface {
	Load(ctx context.Context) ([]models.HistoryEntry, error)
	Save(ctx context.Context, entries []models.HistoryEntry) error
}

// Notifier delivers transient messages to waiters. Implementations must not
// block the caller for long and never report failures back.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Notification) {}

type StoreConfig struct {
	Notifier Notifier
	Logger   *zap.Logger
	Now      func() time.Time
}

// Store owns the active order set, the assigned membership list and the
// served history. Every mutation and the stats it implies happen under mu.
type Store struct {
	mu       sync.RWMutex
	active   []models.Order // always ranked
	assigned []int
	served   map[int]struct{}
	history  []models.HistoryEntry // most recent first
	delivery runningMean

	historyStore HistoryStore
	notifier     Notifier
	logger       *zap.Logger
	now          func() time.Time
}

// Assignee identifies the waiter acting on an order. Name is what the
// order and history record; ID addresses their notifications.
type Assignee struct {
	ID   string
	Name string
}

// ReconcileResult describes the outcome of merging a fetched batch.
type ReconcileResult struct {
	NewOrderIDs []int `json:"newOrderIds"`
	Total       int   `json:"total"`
}

func NewStore(history HistoryStore, cfg StoreConfig) *Store {
	s := &Store{
		served:       make(map[int]struct{}),
		historyStore: history,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// LoadHistory replaces the in-memory history with the persisted one and
// recomputes the delivery average from it.
func (s *Store) LoadHistory(ctx context.Context) error {
	if s.historyStore == nil {
		return nil
	}
	entries, err := s.historyStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = entries
	s.delivery = runningMean{}
	for _, e := range entries {
		s.served[e.ID] = struct{}{}
		s.delivery.add(e.DeliveryTime)
	}
	s.logger.Info("📜 Loaded order history", zap.Int("entries", len(entries)))
	return nil
}

// Reconcile merges a freshly fetched batch into the active set. Served ids
// are dropped, tracked assigned orders keep their assignment (even when
// the batch no longer lists them) and the ready subset is replaced.
func (s *Store) Reconcile(batch []models.Order) ReconcileResult {
	ranked := RankOrders(batch)

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := make(map[int]models.Order, len(s.active))
	for _, o := range s.active {
		previous[o.ID] = o
	}

	next := make([]models.Order, 0, len(ranked)+len(s.assigned))
	seen := make(map[int]struct{}, len(ranked))
	var fresh []int

	for _, o := range ranked {
		if _, done := s.served[o.ID]; done {
			continue
		}
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}

		o = o.Clone()
		prev, tracked := previous[o.ID]
		if tracked && prev.Status == models.OrderStatusAssigned {
			o.Status = models.OrderStatusAssigned
			o.AssignedTo = prev.AssignedTo
		} else {
			o.Status = models.OrderStatusReady
			o.AssignedTo = nil
		}
		if !tracked {
			fresh = append(fresh, o.ID)
		}
		next = append(next, o)
	}

	for _, o := range s.active {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		if o.Status == models.OrderStatusAssigned {
			next = append(next, o)
		}
	}

	s.active = RankOrders(next)
	return ReconcileResult{NewOrderIDs: fresh, Total: len(s.active)}
}

// Assign marks a ready order as taken by waiter.
func (s *Store) Assign(ctx context.Context, orderID int, waiter Assignee) (models.Order, error) {
	s.mu.Lock()
	idx := s.indexOf(orderID)
	if idx < 0 {
		_, served := s.served[orderID]
		s.mu.Unlock()
		if served {
			return models.Order{}, &TransitionError{OrderID: orderID, From: models.OrderStatusServed, To: models.OrderStatusAssigned}
		}
		return models.Order{}, ErrOrderNotFound
	}

	order := &s.active[idx]
	if order.Status != models.OrderStatusReady {
		from := order.Status
		s.mu.Unlock()
		return models.Order{}, &TransitionError{OrderID: orderID, From: from, To: models.OrderStatusAssigned}
	}

	name := waiter.Name
	order.Status = models.OrderStatusAssigned
	order.AssignedTo = &name
	s.assigned = append(s.assigned, orderID)
	snapshot := order.Clone()
	s.mu.Unlock()

	s.logger.Info("🎯 Order assigned", zap.Int("order_id", orderID), zap.String("waiter", waiter.Name))
	s.notifier.Notify(ctx, models.Notification{
		WaiterID: waiter.ID,
		Message:  fmt.Sprintf("🎯 Order #%d assigned to you!", orderID),
		Kind:     models.NotificationSuccess,
		Icon:     "✅",
	})
	return snapshot, nil
}

// Serve moves an active order into the history and persists the history.
// A persistence failure is logged and reported to waiters but the order
// stays served.
func (s *Store) Serve(ctx context.Context, orderID int, waiter Assignee) (models.HistoryEntry, error) {
	s.mu.Lock()
	idx := s.indexOf(orderID)
	if idx < 0 {
		s.mu.Unlock()
		return models.HistoryEntry{}, ErrOrderNotFound
	}

	order := s.active[idx].Clone()
	s.active = append(s.active[:idx], s.active[idx+1:]...)
	s.assigned = removeID(s.assigned, orderID)

	servedAt := s.now().UnixMilli()
	order.Status = models.OrderStatusServed
	entry := models.HistoryEntry{
		Order:        order,
		ServedAt:     servedAt,
		Waiter:       waiter.Name,
		DeliveryTime: deliveryMinutes(order.ReadyAt, servedAt),
	}

	s.history = append([]models.HistoryEntry{entry}, s.history...)
	s.served[orderID] = struct{}{}
	s.delivery.add(entry.DeliveryTime)

	var persistErr error
	if s.historyStore != nil {
		snapshot := make([]models.HistoryEntry, len(s.history))
		copy(snapshot, s.history)
		if err := s.historyStore.Save(ctx, snapshot); err != nil {
			persistErr = &PersistenceError{Err: err}
		}
	}
	s.mu.Unlock()

	if persistErr != nil {
		s.logger.Error("❌ Failed to persist order history", zap.Int("order_id", orderID), zap.Error(persistErr))
		s.notifier.Notify(ctx, models.Notification{
			WaiterID: waiter.ID,
			Message:  "Failed to save order history",
			Kind:     models.NotificationError,
		})
	}

	s.logger.Info("🎉 Order served",
		zap.Int("order_id", orderID),
		zap.String("waiter", waiter.Name),
		zap.Int("delivery_minutes", entry.DeliveryTime))
	s.notifier.Notify(ctx, models.Notification{
		WaiterID: waiter.ID,
		Message:  fmt.Sprintf("🎉 Order #%d served successfully!", orderID),
		Kind:     models.NotificationSuccess,
		Icon:     "🍽️",
	})
	return entry, nil
}

// Search filters the active set by a substring of the order id or table
// number. Empty text returns every active order in ranked order.
func (s *Store) Search(text string) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Order, 0, len(s.active))
	for _, o := range s.active {
		if text == "" ||
			strings.Contains(strconv.Itoa(o.ID), text) ||
			strings.Contains(strconv.Itoa(o.Table), text) {
			out = append(out, o.Clone())
		}
	}
	return out
}

// Orders returns the active set in ranked order.
func (s *Store) Orders() []models.Order {
	return s.Search("")
}

// Order looks up a single active order.
func (s *Store) Order(orderID int) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(orderID)
	if idx < 0 {
		return models.Order{}, false
	}
	return s.active[idx].Clone(), true
}

// AssignedIDs returns the assigned membership list in assignment order.
func (s *Store) AssignedIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.assigned))
	copy(out, s.assigned)
	return out
}

// History returns served entries, most recent first.
func (s *Store) History() []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.HistoryEntry, len(s.history))
	for i, e := range s.history {
		out[i] = e
		out[i].Order = e.Order.Clone()
	}
	return out
}

func (s *Store) Stats() models.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.DashboardStats{
		TotalOrders:     len(s.active),
		AvgDeliveryTime: s.delivery.rounded(),
	}
	for _, o := range s.active {
		if o.Status == models.OrderStatusAssigned {
			stats.AssignedOrders++
		}
	}

	now := s.now()
	y, m, d := now.Date()
	for _, e := range s.history {
		ey, em, ed := time.UnixMilli(e.ServedAt).In(now.Location()).Date()
		if ey == y && em == m && ed == d {
			stats.CompletedToday++
		}
	}
	return stats
}

func (s *Store) indexOf(orderID int) int {
	for i := range s.active {
		if s.active[i].ID == orderID {
			return i
		}
	}
	return -1
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// deliveryMinutes is floor((servedAt - readyAt) / 1 minute).
func deliveryMinutes(readyAt, servedAt int64) int {
	const minute = int64(time.Minute / time.Millisecond)
	diff := servedAt - readyAt
	q := diff / minute
	if diff%minute != 0 && diff < 0 {
		q--
	}
	return int(q)
}

// runningMean tracks the exact sum so the rounded average does not depend
// on the order in which delivery times arrive.
type runningMean struct {
	count int64
	sum   int64
}

func (r *runningMean) add(minutes int) {
	r.count++
	r.sum += int64(minutes)
}

// rounded returns the mean rounded half up, 0 when empty.
func (r runningMean) rounded() int {
	if r.count == 0 {
		return 0
	}
	// floor((2*sum + count) / (2*count)) == floor(sum/count + 0.5)
	num := 2*r.sum + r.count
	den := 2 * r.count
	q := num / den
	if num%den != 0 && num < 0 {
		q--
	}
	return int(q)
}
