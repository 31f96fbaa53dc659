package menu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"qrdine-backend/internal/models"
	"qrdine-backend/pkg/utils"
)

const DefaultMenuURL = "http://localhost:5000/api/menu/available"

// Source lists the menu items currently offered.
type Source interface {
	FetchAvailable(ctx context.Context) ([]models.MenuItem, error)
}

// HTTPSource reads the available menu from the menu service.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPSource(url string, logger *zap.Logger) *HTTPSource {
	if url == "" {
		url = DefaultMenuURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (s *HTTPSource) FetchAvailable(ctx context.Context) ([]models.MenuItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("menu request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("menu service returned status %d", resp.StatusCode)
	}

	var items []models.MenuItem
	if err := utils.DecodeList(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse menu: %w", err)
	}
	s.logger.Debug("📋 Fetched menu", zap.Int("items", len(items)))
	return items, nil
}

// Catalog serves the menu through a TTL cache.
type Catalog struct {
	source Source
	cache  *ItemCache
	logger *zap.Logger
}

func NewCatalog(source Source, ttl time.Duration, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{source: source, cache: NewItemCache(ttl), logger: logger}
}

func (c *Catalog) Items(ctx context.Context) ([]models.MenuItem, error) {
	if items, ok := c.cache.Get(); ok {
		return items, nil
	}
	items, err := c.source.FetchAvailable(ctx)
	if err != nil {
		c.logger.Warn("⚠️  Menu fetch failed", zap.Error(err))
		return nil, err
	}
	c.cache.Set(items)
	return items, nil
}

// Grouped returns the menu bucketed by category.
func (c *Catalog) Grouped(ctx context.Context) ([]models.MenuCategory, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByCategory(items), nil
}

// Find looks an item up by name, ignoring case.
func (c *Catalog) Find(ctx context.Context, name string) (models.MenuItem, bool, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return models.MenuItem{}, false, err
	}
	for _, item := range items {
		if strings.EqualFold(item.Name, name) {
			return item, true, nil
		}
	}
	return models.MenuItem{}, false, nil
}

// Invalidate drops the cached menu, for when the kitchen changes
// availability and customers must see it before the ttl runs out.
func (c *Catalog) Invalidate() bool {
	dropped := c.cache.Invalidate()
	c.logger.Info("🧹 Menu cache invalidated", zap.Bool("dropped", dropped))
	return dropped
}

func (c *Catalog) CacheStats() map[string]interface{} {
	return c.cache.GetStats()
}
