package menu

import (
	"sync"

	"qrdine-backend/internal/models"
)

// DefaultScrollThreshold is how far below the top of the viewport, in
// pixels, a category header may sit and still count as reached.
const DefaultScrollThreshold = 60.0

// ActiveCategory picks the category whose header was most recently
// scrolled past: the last anchor, in definition order, with an offset at
// or above threshold. When no header has been reached the first anchor
// wins. Empty input yields "".
func ActiveCategory(anchors []models.CategorySection, threshold float64) string {
	if len(anchors) == 0 {
		return ""
	}
	if reached, ok := lastReached(anchors, threshold); ok {
		return reached
	}
	return anchors[0].Category
}

func lastReached(anchors []models.CategorySection, threshold float64) (string, bool) {
	for i := len(anchors) - 1; i >= 0; i-- {
		if anchors[i].TopOffset <= threshold {
			return anchors[i].Category, true
		}
	}
	return "", false
}

// Tracker keeps the active category for one menu view.
type Tracker struct {
	mu         sync.Mutex
	threshold  float64
	categories []string
	known      map[string]struct{}
	active     string
}

func NewTracker(threshold float64) *Tracker {
	if threshold == 0 {
		threshold = DefaultScrollThreshold
	}
	return &Tracker{threshold: threshold, known: map[string]struct{}{}}
}

// SetCategories installs a new category list and resets the active
// category to the first one.
func (t *Tracker) SetCategories(categories []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.categories = append([]string(nil), categories...)
	t.known = make(map[string]struct{}, len(categories))
	for _, c := range categories {
		t.known[c] = struct{}{}
	}
	t.active = ""
	if len(categories) > 0 {
		t.active = categories[0]
	}
}

// OnScroll re-evaluates the active category from measured header offsets.
// Categories without a measurement are skipped.
func (t *Tracker) OnScroll(offsets map[string]float64) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.categories) == 0 {
		return t.active
	}

	anchors := make([]models.CategorySection, 0, len(t.categories))
	for _, c := range t.categories {
		if top, ok := offsets[c]; ok {
			anchors = append(anchors, models.CategorySection{Category: c, TopOffset: top})
		}
	}

	if reached, ok := lastReached(anchors, t.threshold); ok {
		t.active = reached
	} else {
		t.active = t.categories[0]
	}
	return t.active
}

// Select sets the active category directly, as a tap on the category bar
// does before the scroll animation settles. Unknown categories are ignored.
func (t *Tracker) Select(category string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.known[category]; !ok {
		return false
	}
	t.active = category
	return true
}

func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Tracker) Threshold() float64 { return t.threshold }
