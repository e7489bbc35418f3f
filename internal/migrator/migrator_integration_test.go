package migrator_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/stagehand/internal/logging"
	"github.com/vvka-141/stagehand/internal/migrator"
	stagehandtesting "github.com/vvka-141/stagehand/internal/testing"
)

// freshDatabases recreates an isolated staging/warehouse database pair and
// returns pools connected to them. The migrator walks every base table in
// its staging database, so these tests cannot share a database with others.
func freshDatabases(t *testing.T) (staging, warehouse *pgxpool.Pool) {
	t.Helper()
	connString := stagehandtesting.RequireDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(admin.Close)

	for _, name := range []string{"stagehand_it_stg", "stagehand_it_dwh"} {
		if _, err := admin.Exec(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %s WITH (FORCE)`, name)); err != nil {
			t.Fatalf("failed to drop %s: %v", name, err)
		}
		if _, err := admin.Exec(ctx, fmt.Sprintf(`CREATE DATABASE %s`, name)); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return connectTo(t, connString, "stagehand_it_stg"), connectTo(t, connString, "stagehand_it_dwh")
}

func connectTo(t *testing.T, connString, database string) *pgxpool.Pool {
	t.Helper()

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	cfg.ConnConfig.Database = database

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to %s: %v", database, err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func stageTable(t *testing.T, pool *pgxpool.Pool, table string, rows [][]any) {
	t.Helper()
	ctx := context.Background()

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (id bigint, name text)`, table)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		t.Fatalf("failed to create %s: %v", table, err)
	}
	for _, row := range rows {
		if _, err := pool.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %q (id, name) VALUES ($1, $2)`, table), row...); err != nil {
			t.Fatalf("failed to seed %s: %v", table, err)
		}
	}
}

func TestMigrate_CreatesWarehouseHistory(t *testing.T) {
	staging, warehouse := freshDatabases(t)
	stageTable(t, staging, "eu_products", [][]any{
		{int64(1), "widget"},
		{int64(2), "gadget"},
	})

	m := migrator.NewMigrator(staging, warehouse, logging.NewNullLogger())
	ctx := context.Background()

	outcome, err := m.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if outcome.TablesProcessed != 1 || outcome.RowsMigrated != 2 {
		t.Errorf("outcome = %+v", outcome)
	}

	// Region prefix stripped from the warehouse table, kept as a column.
	var active int
	err = warehouse.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE is_active AND region_code = 'eu' AND valid_to IS NULL`).Scan(&active)
	if err != nil {
		t.Fatalf("warehouse query: %v", err)
	}
	if active != 2 {
		t.Errorf("active warehouse rows = %d, want 2", active)
	}
}

func TestMigrate_UnchangedSnapshotIsIdempotent(t *testing.T) {
	staging, warehouse := freshDatabases(t)
	stageTable(t, staging, "eu_products", [][]any{{int64(1), "widget"}})

	m := migrator.NewMigrator(staging, warehouse, logging.NewNullLogger())
	ctx := context.Background()

	if _, err := m.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}

	outcome, err := m.Migrate(ctx)
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if outcome.RowsMigrated != 0 {
		t.Errorf("second migration inserted %d rows, want 0", outcome.RowsMigrated)
	}

	var total int
	if err := warehouse.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total); err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("warehouse rows = %d, want 1", total)
	}
}

func TestMigrate_ChangedRowVersioned(t *testing.T) {
	staging, warehouse := freshDatabases(t)
	stageTable(t, staging, "eu_products", [][]any{{int64(1), "widget"}})

	m := migrator.NewMigrator(staging, warehouse, logging.NewNullLogger())
	ctx := context.Background()

	if _, err := m.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}

	// The next batch replaces the snapshot with a changed row.
	if _, err := staging.Exec(ctx, `UPDATE eu_products SET name = 'widget v2' WHERE id = 1`); err != nil {
		t.Fatal(err)
	}

	outcome, err := m.Migrate(ctx)
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if outcome.RowsMigrated != 1 {
		t.Errorf("RowsMigrated = %d, want 1", outcome.RowsMigrated)
	}

	var activeName string
	err = warehouse.QueryRow(ctx, `SELECT name FROM products WHERE is_active`).Scan(&activeName)
	if err != nil {
		t.Fatalf("active row query: %v", err)
	}
	if activeName != "widget v2" {
		t.Errorf("active name = %s, want widget v2", activeName)
	}

	var closed int
	err = warehouse.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE NOT is_active AND valid_to IS NOT NULL`).Scan(&closed)
	if err != nil {
		t.Fatal(err)
	}
	if closed != 1 {
		t.Errorf("closed versions = %d, want 1", closed)
	}
}

func TestMigrate_SkipsLoadLedger(t *testing.T) {
	staging, warehouse := freshDatabases(t)
	stageTable(t, staging, "eu_products", [][]any{{int64(1), "widget"}})

	// Simulate the loader's ledger sitting alongside the staging tables.
	_, err := staging.Exec(context.Background(), `CREATE TABLE stagehand_loaded_file (
		file_name text NOT NULL,
		checksum  text NOT NULL,
		batch_id  text NOT NULL,
		loaded_at timestamptz NOT NULL DEFAULT now(),
		archived  boolean NOT NULL DEFAULT false,
		PRIMARY KEY (file_name, checksum)
	)`)
	if err != nil {
		t.Fatal(err)
	}

	m := migrator.NewMigrator(staging, warehouse, logging.NewNullLogger())
	outcome, err := m.Migrate(context.Background())
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if outcome.TablesProcessed != 1 {
		t.Errorf("TablesProcessed = %d, want 1 (ledger excluded)", outcome.TablesProcessed)
	}
}

func TestMigrate_TableWithoutRegionPrefix(t *testing.T) {
	staging, warehouse := freshDatabases(t)
	stageTable(t, staging, "inventory", [][]any{{int64(1), "shelf"}})

	m := migrator.NewMigrator(staging, warehouse, logging.NewNullLogger())
	if _, err := m.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var count int
	err := warehouse.QueryRow(context.Background(),
		`SELECT count(*) FROM inventory WHERE region_code IS NULL AND is_active`).Scan(&count)
	if err != nil {
		t.Fatalf("warehouse query: %v", err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}
}
