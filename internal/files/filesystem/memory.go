package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// memoryFileInfo implements fs.FileInfo for in-memory files
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryFile struct {
	content []byte
	info    *memoryFileInfo
}

// MemoryFileSystem implements FileSystemProvider for in-memory testing.
// Paths are normalized to forward slashes. Not safe for concurrent use;
// tests drive it from a single goroutine.
type MemoryFileSystem struct {
	files map[string]*memoryFile // absolute path -> file or directory

	// FailRename forces Rename to return an error, letting tests exercise
	// the copy-then-delete fallback and archive failure paths.
	FailRename bool

	// FailRenamePath forces Rename to fail only for the given source path.
	FailRenamePath string

	// FailCopy forces CopyFile to return an error.
	FailCopy bool

	// FailCopyPath forces CopyFile to fail only for the given source path.
	FailCopyPath string

	// FailReadDir forces ReadDir to return an error (unreadable directory).
	FailReadDir bool
}

// NewMemoryFileSystem creates a new in-memory filesystem containing the
// given root directory.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	mfs := &MemoryFileSystem{
		files: make(map[string]*memoryFile),
	}
	mfs.addDir(mfs.abs(root))
	return mfs
}

func (mfs *MemoryFileSystem) abs(p string) string {
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func (mfs *MemoryFileSystem) addDir(absPath string) {
	if absPath == "/" || absPath == "." {
		return
	}
	if _, exists := mfs.files[absPath]; exists {
		return
	}
	mfs.files[absPath] = &memoryFile{
		info: &memoryFileInfo{
			name:    path.Base(absPath),
			mode:    0o755 | fs.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		},
	}
	mfs.addDir(path.Dir(absPath))
}

// AddFile adds a file to the in-memory filesystem, creating parent
// directories as needed.
func (mfs *MemoryFileSystem) AddFile(filePath string, content string) {
	absPath := mfs.abs(filePath)
	mfs.files[absPath] = &memoryFile{
		content: []byte(content),
		info: &memoryFileInfo{
			name:    path.Base(absPath),
			size:    int64(len(content)),
			mode:    0o644,
			modTime: time.Now(),
			isDir:   false,
		},
	}
	mfs.addDir(path.Dir(absPath))
}

// Exists reports whether a file or directory exists at the given path.
func (mfs *MemoryFileSystem) Exists(filePath string) bool {
	_, ok := mfs.files[mfs.abs(filePath)]
	return ok
}

func (mfs *MemoryFileSystem) ReadDir(dirPath string) ([]FileInfo, error) {
	if mfs.FailReadDir {
		return nil, fmt.Errorf("permission denied: %s", dirPath)
	}

	absPath := mfs.abs(dirPath)
	dir, exists := mfs.files[absPath]
	if !exists {
		return nil, fmt.Errorf("directory not found: %s", dirPath)
	}
	if !dir.info.isDir {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	var result []FileInfo
	for p, f := range mfs.files {
		if path.Dir(p) == absPath && p != absPath {
			result = append(result, f.info)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result, nil
}

func (mfs *MemoryFileSystem) Stat(statPath string) (FileInfo, error) {
	file, exists := mfs.files[mfs.abs(statPath)]
	if !exists {
		return nil, fmt.Errorf("path not found: %s", statPath)
	}
	return file.info, nil
}

func (mfs *MemoryFileSystem) ReadFile(filePath string) ([]byte, error) {
	file, exists := mfs.files[mfs.abs(filePath)]
	if !exists {
		return nil, fmt.Errorf("file not found: %s", filePath)
	}
	if file.info.isDir {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	return file.content, nil
}

func (mfs *MemoryFileSystem) MkdirAll(dirPath string) error {
	mfs.addDir(mfs.abs(dirPath))
	return nil
}

func (mfs *MemoryFileSystem) Rename(oldPath, newPath string) error {
	if mfs.FailRename || (mfs.FailRenamePath != "" && mfs.abs(oldPath) == mfs.abs(mfs.FailRenamePath)) {
		return fmt.Errorf("cross-device link: %s -> %s", oldPath, newPath)
	}

	absOld, absNew := mfs.abs(oldPath), mfs.abs(newPath)
	file, exists := mfs.files[absOld]
	if !exists {
		return fmt.Errorf("file not found: %s", oldPath)
	}
	if _, exists := mfs.files[path.Dir(absNew)]; !exists {
		return fmt.Errorf("destination directory not found: %s", path.Dir(absNew))
	}

	delete(mfs.files, absOld)
	renamed := *file
	info := *file.info
	info.name = path.Base(absNew)
	renamed.info = &info
	mfs.files[absNew] = &renamed
	return nil
}

func (mfs *MemoryFileSystem) CopyFile(src, dst string) error {
	if mfs.FailCopy || (mfs.FailCopyPath != "" && mfs.abs(src) == mfs.abs(mfs.FailCopyPath)) {
		return fmt.Errorf("copy failed: %s -> %s", src, dst)
	}

	content, err := mfs.ReadFile(src)
	if err != nil {
		return err
	}
	mfs.AddFile(dst, string(content))
	return nil
}

func (mfs *MemoryFileSystem) Remove(filePath string) error {
	absPath := mfs.abs(filePath)
	if _, exists := mfs.files[absPath]; !exists {
		return fmt.Errorf("file not found: %s", filePath)
	}
	delete(mfs.files, absPath)
	return nil
}

// Verify both providers implement the interface at compile time
var (
	_ FileSystemProvider = (*OSFileSystem)(nil)
	_ FileSystemProvider = (*MemoryFileSystem)(nil)
)
