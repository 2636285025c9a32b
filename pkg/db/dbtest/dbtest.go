// Package dbtest opens isolated, migrated SQLite stores for package tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Open returns a client over a fresh in-memory database with the schema applied.
func Open(t testing.TB) *db.Client {
	t.Helper()

	cfg := config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
	}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, migrate.Up(context.Background(), client))
	return client
}

// SeedItem inserts an inventory row.
func SeedItem(t testing.TB, client *db.Client, productID, name string, quantity int, category, subCategory string) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		ProductID:   productID,
		ProductName: name,
		Quantity:    quantity,
		Category:    category,
		SubCategory: subCategory,
	}
	require.NoError(t, client.DB().Create(&item).Error)
	return item
}

// SeedOrders inserts n orders for productID with deterministic values.
func SeedOrders(t testing.TB, client *db.Client, productID string, n int) []models.Order {
	t.Helper()
	base := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	out := make([]models.Order, 0, n)
	for i := 0; i < n; i++ {
		order := models.Order{
			OrderID:      fmt.Sprintf("%s-O%d", productID, i+1),
			ProductID:    productID,
			Currency:     "USD",
			Quantity:     i + 1,
			ShippingCost: decimal.RequireFromString("4.50"),
			Amount:       decimal.RequireFromString("19.99"),
			Channel:      "web",
			ChannelGroup: "direct",
			Campaign:     "spring",
			DateTime:     base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, client.DB().Create(&order).Error)
		out = append(out, order)
	}
	return out
}
