package filesystem

import (
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
// This provides compatibility with the fs.FS ecosystem while maintaining
// a stable local type for our abstraction layer.
type FileInfo = fs.FileInfo

// FileSystemProvider abstracts the filesystem operations the pipeline needs:
// directory listing and file reads for the scanner and parser, and the
// mutation operations the archiver needs to relocate processed files.
type FileSystemProvider interface {
	// ReadDir reads the directory entries at the given path, sorted by name.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns file information for the given path
	Stat(path string) (FileInfo, error)

	// ReadFile reads a specific file at the given path
	ReadFile(path string) ([]byte, error)

	// MkdirAll creates the directory at path along with any missing parents.
	MkdirAll(path string) error

	// Rename atomically moves oldPath to newPath. Fails when the two paths
	// are on different filesystems; callers fall back to CopyFile + Remove.
	Rename(oldPath, newPath string) error

	// CopyFile copies src to dst and syncs dst to stable storage before
	// returning, so a crash after CopyFile never loses the copy.
	CopyFile(src, dst string) error

	// Remove deletes the file at path.
	Remove(path string) error
}
