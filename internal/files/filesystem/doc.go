// Package filesystem provides filesystem abstraction interfaces and implementations.
//
// This package defines the operations the pipeline performs against a
// filesystem (directory listing, reads, and the move/copy primitives used
// when archiving processed files), enabling testability through an in-memory
// implementation while maintaining compatibility with the OS filesystem.
//
// Implementations:
//   - OSFileSystem: Production implementation using the OS filesystem
//   - MemoryFileSystem: In-memory implementation for testing
package filesystem
