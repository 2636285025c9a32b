package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom-backend/api/middleware"
	"github.com/angelmondragon/stockroom-backend/internal/inventory"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type memoryStore struct {
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (m *memoryStore) Ping(context.Context) error {
	return nil
}

type testServer struct {
	handler http.Handler
	store   *memoryStore
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	client := dbtest.Open(t)
	dbtest.SeedItem(t, client, "P1", "Widget", 10, "Tools", "Hand")
	dbtest.SeedItem(t, client, "P2", "Gadget", 0, "Tools", "Power")
	dbtest.SeedItem(t, client, "P3", "Phone", 4, "Electronics", "Phones")
	dbtest.SeedOrders(t, client, "P1", 2)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := inventory.NewService(inventory.NewRepository(client.DB()), client, pagination.DefaultLimits(), logg)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	store := &memoryStore{data: map[string]string{}}
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	handler := NewRouter(cfg, logg, client, store, store, svc, metrics.NewHTTPMetrics(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return testServer{handler: handler, store: store}
}

func (s testServer) do(t *testing.T, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t)

	live := srv.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, live.Code)
	assert.NotEmpty(t, live.Header().Get(middleware.RequestIDHeader))

	ready := srv.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"database":"ok","redis":"ok"}}`, ready.Body.String())
}

func TestListInventoryRoute(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/inventory?category=Tools&sort_by=order_count", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []inventory.ItemDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "P2", items[0].ProductID)
	assert.EqualValues(t, 0, *items[0].OrderCount)
	assert.Equal(t, "P1", items[1].ProductID)
	assert.EqualValues(t, 2, *items[1].OrderCount)
	assert.Len(t, items[1].Orders, 2)

	bad := srv.do(t, http.MethodGet, "/inventory?sort_by=price", "", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestUpdateInventoryRoute(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPut, "/inventory/P1", `{"quantity":5}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var item inventory.ItemDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&item))
	assert.Equal(t, "P1", item.ProductID)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, "Widget", item.ProductName)
	assert.Len(t, item.Orders, 2)
	assert.Nil(t, item.OrderCount)

	missing := srv.do(t, http.MethodPut, "/inventory/P999", `{"quantity":5}`, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	tooLarge := srv.do(t, http.MethodPut, "/inventory/P1", `{"quantity":2147483648}`, nil)
	assert.Equal(t, http.StatusBadRequest, tooLarge.Code)
	assert.Contains(t, tooLarge.Body.String(), "must be at most 2147483647")
}

func TestListInventoryRouteServesLargePages(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/inventory?per_page=150", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []inventory.ItemDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
	assert.Len(t, items, 3)
}

func TestBulkUpdateRouteIsNotCapturedByProductID(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPut, "/inventory/bulk_update", `[{"product_id":"P1","quantity":7},{"product_id":"P999","quantity":1}]`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Bulk update complete","successful updates":["P1"],"unsuccessful updates":["P999"]}`, rec.Body.String())

	list := srv.do(t, http.MethodGet, "/inventory?sub_category=Hand", "", nil)
	var items []inventory.ItemDTO
	require.NoError(t, json.NewDecoder(list.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestIdempotentReplayThroughRouter(t *testing.T) {
	srv := newTestServer(t)
	headers := map[string]string{middleware.IdempotencyKeyHeader: "k-1"}

	first := srv.do(t, http.MethodPut, "/inventory/P3", `{"quantity":9}`, headers)
	require.Equal(t, http.StatusOK, first.Code)
	require.Len(t, srv.store.data, 1)
	for _, stored := range srv.store.data {
		assert.NotContains(t, stored, `"pending":true`)
	}

	// a direct change after the first call must not leak into the replay
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPut, "/inventory/P3", `{"quantity":1}`, nil).Code)

	replay := srv.do(t, http.MethodPut, "/inventory/P3", `{"quantity":9}`, headers)
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(middleware.IdempotencyReplayed))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	conflict := srv.do(t, http.MethodPut, "/inventory/P3", `{"quantity":2}`, headers)
	assert.Equal(t, http.StatusConflict, conflict.Code)
}

func TestMetricsRoute(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/inventory", "", nil)

	rec := srv.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/inventory",status="200"} 1`)
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/orders", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
