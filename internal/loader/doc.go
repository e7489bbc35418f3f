// Package loader writes parsed record sets into staging tables.
//
// Each file loads inside a single transaction that also records the file in
// the load ledger, so a load is either fully visible (rows plus ledger entry)
// or absent. The ledger makes reprocessing safe: a file whose content was
// already loaded by a prior run is skipped instead of duplicated.
package loader
