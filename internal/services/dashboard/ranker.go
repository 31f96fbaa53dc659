package dashboard

import (
	"sort"

	"qrdine-backend/internal/models"
)

// RankOrders returns a copy of orders sorted by priority (high first) and
// then by ReadyAt, most recent first. Ties keep their input order.
func RankOrders(orders []models.Order) []models.Order {
	ranked := make([]models.Order, len(orders))
	copy(ranked, orders)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra > rb
		}
		return a.ReadyAt > b.ReadyAt
	})
	return ranked
}
