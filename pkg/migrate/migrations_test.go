package migrate_test

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func readMigration(t *testing.T, dialect, suffix string) string {
	t.Helper()
	dir := migrate.EmbeddedDir(dialect)
	matches, err := fs.Glob(migrate.Embedded(), path.Join(dir, "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one %s migration for %s", suffix, dialect)

	data, err := fs.ReadFile(migrate.Embedded(), matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	for _, dialect := range []string{db.DialectPostgres, db.DialectSQLite} {
		content := readMigration(t, dialect, "create_inventory_items")
		for _, sub := range []string{
			"CREATE TABLE IF NOT EXISTS inventory_items",
			"product_id   TEXT PRIMARY KEY",
			"CHECK (quantity >= 0)",
			"DROP TABLE IF EXISTS inventory_items",
		} {
			assert.Contains(t, content, sub, "%s migration", dialect)
		}
	}
}

func TestOrdersMigrationReferencesInventory(t *testing.T) {
	pg := readMigration(t, db.DialectPostgres, "create_orders")
	assert.Contains(t, pg, "FOREIGN KEY (product_id) REFERENCES inventory_items(product_id)")
	assert.Contains(t, pg, "NUMERIC(12,2)")
	assert.Contains(t, pg, "TIMESTAMPTZ")

	lite := readMigration(t, db.DialectSQLite, "create_orders")
	assert.Contains(t, lite, "REFERENCES inventory_items(product_id)")
	assert.Contains(t, lite, "INTEGER PRIMARY KEY AUTOINCREMENT")

	for _, content := range []string{pg, lite} {
		assert.Contains(t, content, "CREATE INDEX IF NOT EXISTS idx_orders_product_id ON orders (product_id)")
		assert.Contains(t, content, "DROP TABLE IF EXISTS orders")
	}
}

func TestValidateEmbedded(t *testing.T) {
	require.NoError(t, migrate.ValidateEmbedded())
}

func TestUpAppliesSQLiteSchema(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	client := db.NewFromGorm(conn)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, migrate.Up(context.Background(), client))
	// second run is a no-op
	require.NoError(t, migrate.Up(context.Background(), client))

	for _, table := range []string{"inventory_items", "orders"} {
		assert.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.True(t, conn.Migrator().HasIndex("orders", "idx_orders_product_id"))

	err = conn.Exec(`INSERT INTO orders (order_id, product_id, date_time) VALUES ('O1', 'missing', ?)`, time.Now().UTC()).Error
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(err))
}

func TestCreateSQLMigration(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	paths, err := migrate.CreateSQLMigration(root, "Add Order Notes!", now)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for _, p := range paths {
		assert.Equal(t, "20260304050607_add_order_notes.sql", filepath.Base(p))
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "-- +goose Up"))
		require.NoError(t, migrate.ValidateDir(filepath.Dir(p)))
	}

	_, err = migrate.CreateSQLMigration(root, "add order notes", now)
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create-things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}
