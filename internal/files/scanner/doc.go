// Package scanner provides eligibility discovery for ingestible data files.
//
// A data file is eligible only when its companion marker file is present in
// the same directory; a lone data file is treated as still being written and
// skipped. Candidates are returned in lexicographic order by file name so
// repeated scans of an unchanged directory process files in the same order.
//
// The scanner is filesystem-agnostic through the filesystem.FileSystemProvider
// interface, enabling both production use with the OS filesystem and testing
// with in-memory filesystems.
package scanner
