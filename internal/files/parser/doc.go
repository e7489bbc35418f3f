// Package parser converts delimited data files into in-memory record sets.
//
// The parser derives the staging table name from the source file name,
// enforces a rectangular shape (every row carries the header's column
// count), and infers a PostgreSQL column type for each column from the data
// so the loader can create the staging table without a declared schema.
package parser
