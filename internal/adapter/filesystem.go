package adapter

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem defines an interface for file system operations to enable mocking
//
//go:generate mockgen -source=filesystem.go -destination=../mocks/filesystem.go -package=mocks -mock_names=FileSystem=MockFileSystem
type FileSystem interface {
	// OpenAppend opens the named file for appending, creating it and its parent directory if needed
	OpenAppend(name string) (File, error)

	// Stat returns the file info of the named file
	Stat(name string) (fs.FileInfo, error)
}

// File defines an interface for file operations
type File interface {
	io.Writer
	io.Closer
	Sync() error
}

// RealFileSystem implements FileSystem using the standard os package
type RealFileSystem struct{}

// NewFileSystem creates a new real file system
func NewFileSystem() FileSystem {
	return &RealFileSystem{}
}

// OpenAppend opens the named file for appending
func (f *RealFileSystem) OpenAppend(name string) (File, error) {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec,G304
}

// Stat returns the file info of the named file
func (f *RealFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}
