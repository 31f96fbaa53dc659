package menu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrdine-backend/internal/models"
)

const menuJSON = `[
	{"_id":"1","name":"Paneer Tikka","price":220,"category":"Starters","isAvailable":true},
	{"_id":"2","name":"Kulfi","price":90,"category":"Desserts","isAvailable":false},
	{"_id":"3","name":"Masala Chai","price":30}
]`

func TestCatalog_GroupsAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(menuJSON))
	}))
	defer srv.Close()

	catalog := NewCatalog(NewHTTPSource(srv.URL, nil), time.Minute, nil)

	groups, err := catalog.Grouped(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Starters", "Desserts", OtherCategory}, Categories(groups))
	assert.False(t, groups[1].Items[0].Available())
	assert.True(t, groups[2].Items[0].Available())

	item, ok, err := catalog.Find(context.Background(), "masala chai")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 30.0, item.Price)

	assert.Equal(t, int32(1), hits.Load())
	stats := catalog.CacheStats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}

func TestCatalog_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewCatalog(NewHTTPSource(srv.URL, nil), time.Minute, nil).Grouped(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestCatalog_InvalidateRefetches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(menuJSON))
	}))
	defer srv.Close()

	ctx := context.Background()
	catalog := NewCatalog(NewHTTPSource(srv.URL, nil), time.Hour, nil)

	assert.False(t, catalog.Invalidate())
	_, err := catalog.Items(ctx)
	require.NoError(t, err)
	_, err = catalog.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	assert.True(t, catalog.Invalidate())
	_, err = catalog.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int64(1), catalog.CacheStats()["invalidations"])
}

func TestItemCache_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewItemCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Set([]models.MenuItem{{Name: "Kulfi"}})
	items, ok := cache.Get()
	require.True(t, ok)
	assert.Len(t, items, 1)
	assert.Equal(t, 0, cache.GetStats()["age_seconds"])

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get()
	assert.False(t, ok)
	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats["expirations"])
	assert.Equal(t, false, stats["cached"])
}

func TestItemCache_DisabledWithZeroTTL(t *testing.T) {
	cache := NewItemCache(0)
	cache.Set([]models.MenuItem{{Name: "Kulfi"}})
	_, ok := cache.Get()
	assert.False(t, ok)
}
