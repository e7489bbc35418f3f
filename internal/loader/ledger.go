package loader

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// ensureLedgerTable creates the load ledger if it does not exist. The ledger
// lives in the staging database alongside the staging tables.
func ensureLedgerTable(ctx context.Context, tx pgx.Tx) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		file_name text NOT NULL,
		checksum  text NOT NULL,
		batch_id  text NOT NULL,
		loaded_at timestamptz NOT NULL DEFAULT now(),
		archived  boolean NOT NULL DEFAULT false,
		PRIMARY KEY (file_name, checksum)
	)`, stagehand.LedgerTableName)

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create load ledger: %v", err)
	}
	return nil
}

// isAlreadyLoaded reports whether a file with this name and content checksum
// was already loaded. A file re-delivered with different content is treated
// as new data, not a duplicate.
func isAlreadyLoaded(ctx context.Context, tx pgx.Tx, fileName, sum string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE file_name = $1 AND checksum = $2)`,
			stagehand.LedgerTableName),
		fileName, sum).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query load ledger: %v", err)
	}
	return exists, nil
}

// recordLoad inserts the ledger entry inside the load transaction, so the
// entry becomes visible exactly when the loaded rows do.
func recordLoad(ctx context.Context, tx pgx.Tx, fileName, sum, batchID string) error {
	_, err := tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (file_name, checksum, batch_id) VALUES ($1, $2, $3)`,
			stagehand.LedgerTableName),
		fileName, sum, batchID)
	if err != nil {
		return fmt.Errorf("failed to record load in ledger: %v", err)
	}
	return nil
}
