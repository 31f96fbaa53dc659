package models

type MenuItem struct {
	ID          string   `json:"_id,omitempty"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
	Description string   `json:"description,omitempty"`
	Addons      []string `json:"addons,omitempty"`
}

// Available reports whether the item can be ordered. Items without an
// explicit flag are treated as available.
func (m MenuItem) Available() bool {
	return m.IsAvailable == nil || *m.IsAvailable
}

type MenuCategory struct {
	Category string     `json:"category"`
	Items    []MenuItem `json:"items"`
}

// CategorySection is the measured position of a category header relative
// to the top of the menu viewport. Negative offsets are above the top.
type CategorySection struct {
	Category  string  `json:"category"`
	TopOffset float64 `json:"topOffset"`
}

// ActiveCategoryRequest is the body for POST /api/menu/active-category
type ActiveCategoryRequest struct {
	Sections  []CategorySection `json:"sections"`
	Threshold *float64          `json:"threshold,omitempty"`
}

type CartLine struct {
	Item MenuItem `json:"item"`
	Qty  int      `json:"qty"`
}

// CartItemRequest is the body for POST /api/tables/{table}/cart/items
type CartItemRequest struct {
	Name string `json:"name"`
}

type CartResponse struct {
	Table int        `json:"table"`
	Lines []CartLine `json:"lines"`
	Total float64    `json:"total"`
}
