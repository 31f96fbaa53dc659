package kitchen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"qrdine-backend/internal/models"
	"qrdine-backend/pkg/utils"
)

// HTTPSource reads ready orders from the kitchen service.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPSource(url string, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *HTTPSource) FetchReady(ctx context.Context) ([]models.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kitchen request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kitchen returned status %d: %s", resp.StatusCode, string(body))
	}

	var orders []models.Order
	if err := utils.DecodeList(body, &orders); err != nil {
		return nil, fmt.Errorf("failed to parse orders: %w", err)
	}

	s.logger.Debug("📥 Fetched ready orders", zap.Int("count", len(orders)))
	return orders, nil
}
