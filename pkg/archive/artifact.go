package archive

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"github.com/ulikunitz/xz"
)

// Compression identifies how an artifact file is compressed
type Compression string

const (
	CompressionNone  Compression = ""
	CompressionZstd  Compression = "zstd"
	CompressionXz    Compression = "xz"
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
)

var extensions = map[string]Compression{
	".zst":  CompressionZstd,
	".zstd": CompressionZstd,
	".xz":   CompressionXz,
	".gz":   CompressionGzip,
	".bz2":  CompressionBzip2,
}

// DetectCompression infers the compression from the file extension
func DetectCompression(path string) Compression {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// OpenArtifact loads an executable artifact into memory, decompressing it
// when its extension names a supported compression
func OpenArtifact(path string) (*bytes.Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer file.Close()

	compression := DetectCompression(path)
	reader, closeFn, err := decompressor(file, compression)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	if compression != CompressionNone {
		log.Debugf("Decompressed %s artifact %s (%d bytes)", compression, path, len(data))
	}
	return bytes.NewReader(data), nil
}

func decompressor(r io.Reader, compression Compression) (io.Reader, func(), error) {
	noop := func() {}
	switch compression {
	case CompressionNone:
		return r, noop, nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, decoder.Close, nil
	case CompressionXz:
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, noop, nil
	case CompressionGzip:
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzipReader, func() { gzipReader.Close() }, nil
	case CompressionBzip2:
		return bzip2.NewReader(r), noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type: %s", compression)
	}
}
