// Package migrator moves staged rows into the warehouse as slowly changing
// dimension (type 2) history.
//
// Each staging base table maps to one warehouse table named after it minus a
// leading region prefix. Every staging row is hashed; hashes not present as
// an active warehouse row are inserted as new active versions, and active
// warehouse rows for the region whose hash left the staging snapshot are
// closed with a validity end timestamp.
package migrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/stagehand/internal/checksum"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// Migrator runs the staging-to-warehouse transformation across two pools.
type Migrator struct {
	staging    *pgxpool.Pool
	warehouse  *pgxpool.Pool
	calculator checksum.Calculator
	logger     stagehand.Logger
}

// NewMigrator creates a migrator reading from staging and writing to the
// warehouse. Panics if any argument is nil.
func NewMigrator(staging, warehouse *pgxpool.Pool, logger stagehand.Logger) *Migrator {
	if staging == nil {
		panic("staging pool cannot be nil")
	}
	if warehouse == nil {
		panic("warehouse pool cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Migrator{
		staging:    staging,
		warehouse:  warehouse,
		calculator: checksum.SHA256{},
		logger:     logger,
	}
}

// Migrate processes every staging base table once. Each table migrates in
// its own warehouse transaction; a failure on one table aborts the run and
// reports which table failed, leaving previously committed tables in place.
func (m *Migrator) Migrate(ctx context.Context) (stagehand.MigrationOutcome, error) {
	tables, err := m.stagingTables(ctx)
	if err != nil {
		return stagehand.MigrationOutcome{}, fmt.Errorf("%w: %v", stagehand.ErrMigration, err)
	}

	outcome := stagehand.MigrationOutcome{}
	for _, table := range tables {
		migrated, err := m.processTable(ctx, table)
		if err != nil {
			return outcome, fmt.Errorf("%w: table %s: %v", stagehand.ErrMigration, table, err)
		}
		outcome.TablesProcessed++
		outcome.RowsMigrated += migrated
		m.logger.Verbose("Migrated table %s: %d new rows", table, migrated)
	}

	return outcome, nil
}

// stagingTables lists the staging base tables to migrate, excluding the load
// ledger, in stable name order.
func (m *Migrator) stagingTables(ctx context.Context) ([]string, error) {
	rows, err := m.staging.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE' AND table_name <> $1
		ORDER BY table_name`,
		stagehand.LedgerTableName)
	if err != nil {
		return nil, fmt.Errorf("failed to list staging tables: %v", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan staging table name: %v", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// splitRegion derives the region code and warehouse table name from a
// staging table name. The first underscore-delimited token is the region;
// a name with no underscore has no region and maps to itself.
func splitRegion(stagingTable string) (regionCode, warehouseTable string) {
	if i := strings.IndexByte(stagingTable, '_'); i > 0 && i < len(stagingTable)-1 {
		return stagingTable[:i], stagingTable[i+1:]
	}
	return "", stagingTable
}

// processTable migrates one staging table inside a single warehouse
// transaction and returns the number of newly inserted rows.
func (m *Migrator) processTable(ctx context.Context, stagingTable string) (int64, error) {
	regionCode, warehouseTable := splitRegion(stagingTable)

	columns, err := m.tableColumns(ctx, stagingTable)
	if err != nil {
		return 0, err
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("staging table has no columns")
	}

	hashes, rowValues, err := m.readStagingRows(ctx, stagingTable, columns)
	if err != nil {
		return 0, err
	}

	tx, err := m.warehouse.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin warehouse transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := m.ensureWarehouseTable(ctx, tx, warehouseTable, columns); err != nil {
		return 0, err
	}

	activeHashes, err := m.activeHashes(ctx, tx, warehouseTable, regionCode)
	if err != nil {
		return 0, err
	}

	inserted, err := m.insertNewVersions(ctx, tx, warehouseTable, regionCode, columns, hashes, rowValues, activeHashes)
	if err != nil {
		return 0, err
	}

	if err := m.closeDepartedVersions(ctx, tx, warehouseTable, regionCode, hashes); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit warehouse transaction: %v", err)
	}
	return inserted, nil
}

type columnInfo struct {
	name     string
	dataType string
}

// tableColumns returns the staging table's columns in ordinal order.
func (m *Migrator) tableColumns(ctx context.Context, table string) ([]columnInfo, error) {
	rows, err := m.staging.Query(ctx, `
		SELECT column_name, data_type FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`,
		table)
	if err != nil {
		return nil, fmt.Errorf("failed to read staging schema: %v", err)
	}
	defer rows.Close()

	var columns []columnInfo
	for rows.Next() {
		var c columnInfo
		if err := rows.Scan(&c.name, &c.dataType); err != nil {
			return nil, fmt.Errorf("failed to scan staging column: %v", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// readStagingRows fetches every staging row as text values plus its content
// hash. Text form keeps hashing deterministic across column types.
func (m *Migrator) readStagingRows(ctx context.Context, table string, columns []columnInfo) ([]string, [][]*string, error) {
	selects := make([]string, len(columns))
	for i, c := range columns {
		selects[i] = quoteIdentifier(c.name) + "::text"
	}

	rows, err := m.staging.Query(ctx,
		fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), quoteIdentifier(table)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read staging rows: %v", err)
	}
	defer rows.Close()

	var hashes []string
	var values [][]*string
	for rows.Next() {
		row := make([]*string, len(columns))
		dests := make([]any, len(columns))
		for i := range row {
			dests[i] = &row[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan staging row: %v", err)
		}

		flat := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				flat[i] = *v
			}
		}
		hashes = append(hashes, m.calculator.CalculateRow(flat))
		values = append(values, row)
	}
	return hashes, values, rows.Err()
}

// ensureWarehouseTable creates the warehouse table if missing: the staging
// columns plus the history columns.
func (m *Migrator) ensureWarehouseTable(ctx context.Context, tx pgx.Tx, table string, columns []columnInfo) error {
	defs := make([]string, 0, len(columns)+5)
	for _, c := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdentifier(c.name), c.dataType))
	}
	defs = append(defs,
		"region_code text",
		"row_hash text NOT NULL",
		"is_active boolean NOT NULL DEFAULT true",
		"valid_from timestamptz NOT NULL DEFAULT now()",
		"valid_to timestamptz",
	)

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdentifier(table), strings.Join(defs, ", "))
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create warehouse table: %v", err)
	}
	return nil
}

// activeHashes returns the row hashes of the currently active warehouse rows
// for the region.
func (m *Migrator) activeHashes(ctx context.Context, tx pgx.Tx, table, regionCode string) (map[string]bool, error) {
	rows, err := tx.Query(ctx,
		fmt.Sprintf("SELECT row_hash FROM %s WHERE is_active AND region_code IS NOT DISTINCT FROM $1",
			quoteIdentifier(table)),
		nullableRegion(regionCode))
	if err != nil {
		return nil, fmt.Errorf("failed to read active warehouse rows: %v", err)
	}
	defer rows.Close()

	active := make(map[string]bool)
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse hash: %v", err)
		}
		active[h] = true
	}
	return active, rows.Err()
}

// insertNewVersions inserts every staging row whose hash has no active
// warehouse match, batching the inserts over a single round trip.
func (m *Migrator) insertNewVersions(ctx context.Context, tx pgx.Tx, table, regionCode string,
	columns []columnInfo, hashes []string, rowValues [][]*string, activeHashes map[string]bool) (int64, error) {

	names := make([]string, 0, len(columns)+2)
	placeholders := make([]string, 0, len(columns)+2)
	for i, c := range columns {
		names = append(names, quoteIdentifier(c.name))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	names = append(names, "region_code", "row_hash")
	placeholders = append(placeholders,
		fmt.Sprintf("$%d", len(columns)+1),
		fmt.Sprintf("$%d", len(columns)+2))

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table), strings.Join(names, ", "), strings.Join(placeholders, ", "))

	batch := &pgx.Batch{}
	seen := make(map[string]bool, len(hashes))
	var inserted int64
	for i, hash := range hashes {
		if activeHashes[hash] || seen[hash] {
			continue
		}
		seen[hash] = true

		args := make([]any, 0, len(columns)+2)
		for _, v := range rowValues[i] {
			if v == nil {
				args = append(args, nil)
			} else {
				args = append(args, *v)
			}
		}
		args = append(args, nullableRegion(regionCode), hash)
		batch.Queue(insertSQL, args...)
		inserted++
	}

	if batch.Len() == 0 {
		return 0, nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to insert warehouse rows: %v", err)
	}
	return inserted, nil
}

// closeDepartedVersions deactivates active warehouse rows for the region
// whose hash no longer appears in the staging snapshot.
func (m *Migrator) closeDepartedVersions(ctx context.Context, tx pgx.Tx, table, regionCode string, hashes []string) error {
	current := hashes
	if current == nil {
		current = []string{}
	}
	_, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET is_active = false, valid_to = now()
			WHERE is_active AND region_code IS NOT DISTINCT FROM $1 AND NOT (row_hash = ANY($2))`,
			quoteIdentifier(table)),
		nullableRegion(regionCode), current)
	if err != nil {
		return fmt.Errorf("failed to close departed warehouse rows: %v", err)
	}
	return nil
}

func nullableRegion(regionCode string) any {
	if regionCode == "" {
		return nil
	}
	return regionCode
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Verify Migrator implements the interface at compile time
var _ stagehand.BatchMigrator = (*Migrator)(nil)
