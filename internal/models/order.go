package models

// Priority of a ready order as set by the kitchen.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank maps a priority to its sort weight. Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type OrderStatus string

const (
	OrderStatusReady    OrderStatus = "ready"
	OrderStatusAssigned OrderStatus = "assigned"
	OrderStatusServed   OrderStatus = "served"
)

type OrderItem struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// Order is a kitchen order that is ready to be carried to a table.
// ReadyAt is a Unix timestamp in milliseconds.
type Order struct {
	ID                    int         `json:"id"`
	Table                 int         `json:"table"`
	Items                 []OrderItem `json:"items"`
	Notes                 string      `json:"notes,omitempty"`
	Chef                  string      `json:"chef"`
	ReadyAt               int64       `json:"readyAt"`
	Priority              Priority    `json:"priority"`
	Status                OrderStatus `json:"status"`
	AssignedTo            *string     `json:"assignedTo"`
	EstimatedDeliveryTime int         `json:"estimatedDeliveryTime"`
}

// Clone returns a deep copy so callers never share the item slice or
// assignee pointer with the dashboard store.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	if o.AssignedTo != nil {
		name := *o.AssignedTo
		c.AssignedTo = &name
	}
	return c
}

// HistoryEntry is the immutable record written when an order is served.
// The order fields are flattened into the JSON object.
type HistoryEntry struct {
	Order
	ServedAt     int64  `json:"servedAt"`     // Unix ms
	Waiter       string `json:"waiter"`
	DeliveryTime int    `json:"deliveryTime"` // whole minutes between ready and served
}

// DashboardStats are derived from the active set and the served history.
type DashboardStats struct {
	TotalOrders     int `json:"totalOrders"`
	AssignedOrders  int `json:"assignedOrders"`
	CompletedToday  int `json:"completedToday"`
	AvgDeliveryTime int `json:"avgDeliveryTime"`
}

// AssignOrderRequest is the optional body for POST /api/orders/{id}/assign
type AssignOrderRequest struct {
	Waiter string `json:"waiter,omitempty"`
}
