package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Writer packs files into a tar stream compressed with zstd
type Writer struct {
	encoder *zstd.Encoder
	tar     *tar.Writer
	entries int
}

// NewWriter creates a tar.zst writer on top of w
func NewWriter(w io.Writer) (*Writer, error) {
	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Writer{
		encoder: encoder,
		tar:     tar.NewWriter(encoder),
	}, nil
}

// AddDir adds a directory entry
func (a *Writer) AddDir(name string, mode os.FileMode) error {
	header := &tar.Header{
		Typeflag: tar.TypeDir,
		Name:     strings.TrimSuffix(name, "/") + "/",
		Mode:     int64(mode.Perm()),
	}
	if err := a.tar.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	a.entries++
	return nil
}

// AddFile adds a regular file of the given size read from r
func (a *Writer) AddFile(name string, mode os.FileMode, size int64, r io.Reader) error {
	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     int64(mode.Perm()),
		Size:     size,
	}
	if err := a.tar.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	if _, err := io.CopyN(a.tar, r, size); err != nil {
		return fmt.Errorf("failed to write %s to tar: %w", name, err)
	}
	a.entries++
	return nil
}

// Entries returns the number of entries written so far
func (a *Writer) Entries() int {
	return a.entries
}

// Close flushes the tar stream and the zstd frame
func (a *Writer) Close() error {
	if err := a.tar.Close(); err != nil {
		a.encoder.Close()
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := a.encoder.Close(); err != nil {
		return fmt.Errorf("failed to close zstd encoder: %w", err)
	}
	return nil
}
