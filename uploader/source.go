package uploader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source is a random-access file to upload. Chunks are read with ReadAt, so only one
// chunk is ever held in memory.
type Source interface {
	io.ReaderAt
	Size() int64
	Name() string
}

// FileSource is a Source backed by a local file.
type FileSource struct {
	file *os.File
	size int64
	name string
}

// OpenFile opens path for upload. The caller must Close it.
func OpenFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %v", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("path is a directory, not a file")
	}
	return &FileSource{file: file, size: info.Size(), name: filepath.Base(path)}, nil
}

func (f *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return f.file.ReadAt(p, off)
}

func (f *FileSource) Size() int64 {
	return f.size
}

func (f *FileSource) Name() string {
	return f.name
}

// Path returns the file system path the source was opened from.
func (f *FileSource) Path() string {
	return f.file.Name()
}

func (f *FileSource) Close() error {
	return f.file.Close()
}

// BytesSource is an in-memory Source, used for recordings and tests.
type BytesSource struct {
	reader *bytes.Reader
	name   string
}

func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{reader: bytes.NewReader(data), name: name}
}

func (b *BytesSource) ReadAt(p []byte, off int64) (int, error) {
	return b.reader.ReadAt(p, off)
}

func (b *BytesSource) Size() int64 {
	return b.reader.Size()
}

func (b *BytesSource) Name() string {
	return b.name
}
