package kitchen

import (
	"context"
	"time"

	"qrdine-backend/internal/models"
)

// DemoSource serves a fixed batch of ready orders, timed relative to the
// moment of each fetch. It stands in for the kitchen service in local runs.
type DemoSource struct {
	Latency time.Duration
	Now     func() time.Time
}

func NewDemoSource() *DemoSource {
	return &DemoSource{Latency: 800 * time.Millisecond, Now: time.Now}
}

func (d *DemoSource) FetchReady(ctx context.Context) ([]models.Order, error) {
	if d.Latency > 0 {
		timer := time.NewTimer(d.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	ago := func(minutes int) int64 {
		return now.Add(-time.Duration(minutes) * time.Minute).UnixMilli()
	}

	return []models.Order{
		{
			ID:    201,
			Table: 5,
			Items: []models.OrderItem{
				{Name: "Paneer Butter Masala", Qty: 2},
				{Name: "Butter Naan", Qty: 4},
			},
			Notes:                 "No onion",
			Chef:                  "Chef Arjun",
			ReadyAt:               ago(3),
			Priority:              models.PriorityHigh,
			Status:                models.OrderStatusReady,
			EstimatedDeliveryTime: 5,
		},
		{
			ID:    202,
			Table: 2,
			Items: []models.OrderItem{
				{Name: "Chicken Biryani", Qty: 1},
			},
			Chef:                  "Chef Priya",
			ReadyAt:               ago(7),
			Priority:              models.PriorityMedium,
			Status:                models.OrderStatusReady,
			EstimatedDeliveryTime: 3,
		},
		{
			ID:    203,
			Table: 8,
			Items: []models.OrderItem{
				{Name: "Masala Dosa", Qty: 2},
				{Name: "Filter Coffee", Qty: 2},
			},
			Notes:                 "Extra sambar",
			Chef:                  "Chef Ravi",
			ReadyAt:               ago(1),
			Priority:              models.PriorityLow,
			Status:                models.OrderStatusReady,
			EstimatedDeliveryTime: 2,
		},
	}, nil
}
