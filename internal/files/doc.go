// Package files provides file-related functionality organized into sub-packages.
//
// This package has been refactored into the following sub-packages:
//   - filesystem: Filesystem abstraction interfaces and implementations (OS and in-memory)
//   - scanner: Marker-gated discovery of eligible data files
//   - parser: Delimited file parsing and column type inference
//
// # Usage
//
//	import (
//	    "github.com/vvka-141/stagehand/internal/files/filesystem"
//	    "github.com/vvka-141/stagehand/internal/files/scanner"
//	    "github.com/vvka-141/stagehand/internal/files/parser"
//	)
//
//	// Discover eligible files
//	fileScanner := scanner.NewScanner(".complete")
//	candidates, err := fileScanner.ListEligible("/data/incoming")
//
//	// Parse one into a typed record set
//	fileParser := parser.NewParser('|')
//	recordSet, err := fileParser.Parse(candidates[0])
//
// # Organization
//
// Each sub-package is focused on a specific concern:
//   - filesystem: Provides filesystem abstraction for testability
//   - scanner: Pairs data files with their markers and orders candidates
//   - parser: Produces record sets with inferred PostgreSQL column types
package files
