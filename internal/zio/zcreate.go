package zio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

// Compression is the format a sink compresses its output with
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionXz
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionXz:
		return "xz"
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

func (c Compression) Validate() error {
	if c < CompressionNone || c > CompressionXz {
		return fmt.Errorf("invalid compression %d", int(c))
	}
	return nil
}

// CompressionFromFilename picks a compression format based on the file name
// extension. Unknown extensions mean no compression.
func CompressionFromFilename(filename string) Compression {
	switch {
	case strings.HasSuffix(filename, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(filename, ".zst"), strings.HasSuffix(filename, ".zstd"):
		return CompressionZstd
	case strings.HasSuffix(filename, ".xz"):
		return CompressionXz
	}
	return CompressionNone
}

// ZCreate opens a file for writing with the given os.OpenFile() flags, and
// compresses everything written to it.
//
// Appending to a compressed file adds a new compressed stream after the
// existing one(s). All of gzip, zstd and xz readers handle concatenated
// streams, ZOpen() included.
//
// Closing the returned writer finishes the compressed stream and then closes
// the file.
func ZCreate(filename string, flag int, compression Compression) (io.WriteCloser, error) {
	if err := compression.Validate(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filename, flag, 0o666)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for writing: %w", filename, err)
	}

	if compression == CompressionNone {
		return file, nil
	}

	compressor, err := ZWriter(file, compression)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to start compressing %s: %w", filename, err)
	}

	log.Debugf("Compressing %s using %s", filename, compression)
	return &compressingWriteCloser{compressor: compressor, file: file}, nil
}

// ZWriter compresses everything written to it into output. Closing it finishes
// the compressed stream but leaves output open.
func ZWriter(output io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone:
		return nopWriteCloser{output}, nil
	case CompressionGzip:
		return gzip.NewWriter(output), nil
	case CompressionZstd:
		return zstd.NewWriter(output)
	case CompressionXz:
		return xz.NewWriter(output)
	}
	return nil, compression.Validate()
}

type compressingWriteCloser struct {
	compressor io.WriteCloser
	file       io.Closer
}

func (w *compressingWriteCloser) Write(p []byte) (int, error) {
	return w.compressor.Write(p)
}

// The file gets closed even if finishing the compressed stream fails
func (w *compressingWriteCloser) Close() error {
	return errors.Join(w.compressor.Close(), w.file.Close())
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
