package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/asookemart/asooke-backend/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrationDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestEmbeddedMigrationsMatchSourceTree(t *testing.T) {
	fsys, err := migrate.Source(migrate.DefaultDir)
	require.NoError(t, err)
	require.NoError(t, migrate.ValidateFS(fsys))

	embedded, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	assert.Len(t, embedded, len(onDisk))
}

func TestValidateFSRejectsBrokenSets(t *testing.T) {
	up := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	cases := map[string]fstest.MapFS{
		"empty":        {},
		"bad name":     {"001_init.sql": {Data: []byte(up)}},
		"missing down": {"20260301090000_init.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")}},
		"duplicate": {
			"20260301090000_a.sql": {Data: []byte(up)},
			"20260301090000_b.sql": {Data: []byte(up)},
		},
		"not a timestamp": {"20261399999999_init.sql": {Data: []byte(up)}},
	}
	for name, fsys := range cases {
		assert.Error(t, migrate.ValidateFS(fsys), name)
	}
}

func TestOrdersMigrationCarriesIdempotencyBackstop(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TYPE tracking_status AS ENUM ('placed', 'processing', 'shipped', 'in_transit', 'delivered', 'cancelled')",
		"CREATE TABLE orders (",
		"CONSTRAINT ux_orders_payment_reference UNIQUE (payment_reference)",
		"CREATE TABLE order_tracking (",
		"status tracking_status NOT NULL",
		"CREATE TABLE order_feedback (",
		"CHECK (stars BETWEEN 1 AND 5)",
		"CONSTRAINT ux_order_feedback_order UNIQUE (order_id)",
		"DROP TYPE IF EXISTS tracking_status",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestApplySQLiteIsIdempotent(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_apply?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, migrate.ApplySQLite(conn))
	require.NoError(t, migrate.ApplySQLite(conn))

	var tables []string
	require.NoError(t, conn.Raw(`SELECT name FROM sqlite_master WHERE type = 'table'`).Scan(&tables).Error)
	joined := strings.Join(tables, ",")
	for _, name := range []string{"users", "carts", "cart_items", "orders", "order_tracking", "order_feedback", "id_sequences", "product_details"} {
		assert.Contains(t, joined, name)
	}
}

func TestApplySQLiteGeneratesUUIDDefault(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_uuid?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrate.ApplySQLite(conn))

	require.NoError(t, conn.Exec(`INSERT INTO categories (name) VALUES ('Aso Oke')`).Error)
	var id string
	require.NoError(t, conn.Raw(`SELECT id FROM categories WHERE name = 'Aso Oke'`).Scan(&id).Error)
	assert.Len(t, id, 36)
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Rider Ratings!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_rider_ratings.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}
