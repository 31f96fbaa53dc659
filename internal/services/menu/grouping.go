package menu

import "qrdine-backend/internal/models"

// OtherCategory collects items that arrive without a category.
const OtherCategory = "Other"

// GroupByCategory buckets items by category. Categories appear in the
// order they are first seen and items keep their input order.
func GroupByCategory(items []models.MenuItem) []models.MenuCategory {
	index := make(map[string]int)
	var groups []models.MenuCategory

	for _, item := range items {
		cat := item.Category
		if cat == "" {
			cat = OtherCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, models.MenuCategory{Category: cat})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// Categories returns the category names of grouped menu data in order.
func Categories(groups []models.MenuCategory) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Category
	}
	return out
}
