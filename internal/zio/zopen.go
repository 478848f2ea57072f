// Package zio opens byte sources and sinks, transparently handling compressed
// files.
package zio

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

var gzipMagic = []byte{0x1f, 0x8b}
var bzip2Magic = []byte{0x42, 0x5a, 0x68}
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
var xzMagic = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}

// Long enough for the longest magic number above
const magicLength = 6

// Open opens a file for reading, without any decompression.
func Open(filename string) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for reading: %w", filename, err)
	}
	return file, nil
}

// ZOpen opens a file for reading, decompressing it if it starts with a gzip,
// bzip2, zstd or xz magic number.
//
// The second return value is the file name with any compression extension
// removed.
func ZOpen(filename string) (io.ReadCloser, string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s for reading: %w", filename, err)
	}

	firstBytes := make([]byte, magicLength)
	n, err := io.ReadFull(file, firstBytes)
	if err == io.EOF {
		// File was empty
		return file, filename, nil
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		_ = file.Close()
		return nil, "", fmt.Errorf("failed to read %s: %w", filename, err)
	}
	firstBytes = firstBytes[:n]

	// Reset file reader to start of file
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		_ = file.Close()
		return nil, "", fmt.Errorf("failed to seek to start of %s: %w", filename, err)
	}

	switch {
	case bytes.HasPrefix(firstBytes, gzipMagic):
		log.Debug("File is gzip compressed: ", filename)
		reader, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, "", fmt.Errorf("failed to start gunzipping %s: %w", filename, err)
		}

		return readCloser(reader, file), strings.TrimSuffix(filename, ".gz"), nil

	case bytes.HasPrefix(firstBytes, bzip2Magic):
		log.Debug("File is bzip2 compressed: ", filename)
		return readCloser(bzip2.NewReader(file), file), strings.TrimSuffix(filename, ".bz2"), nil

	case bytes.HasPrefix(firstBytes, zstdMagic):
		log.Debug("File is zstd compressed: ", filename)
		decoder, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, "", fmt.Errorf("failed to start zstd decompressing %s: %w", filename, err)
		}

		newName := strings.TrimSuffix(filename, ".zst")
		newName = strings.TrimSuffix(newName, ".zstd")
		return readCloser(decoder.IOReadCloser(), file), newName, nil

	case bytes.HasPrefix(firstBytes, xzMagic):
		log.Debug("File is xz compressed: ", filename)
		xzReader, err := xz.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, "", fmt.Errorf("failed to start xz decompressing %s: %w", filename, err)
		}

		return readCloser(xzReader, file), strings.TrimSuffix(filename, ".xz"), nil
	}

	return file, filename, nil
}

// ZReader returns a reader that decompresses the input stream. Any input stream
// compression will be automatically detected. Uncompressed streams will be
// returned as-is.
func ZReader(input io.Reader) (io.Reader, error) {
	firstBytes := make([]byte, magicLength)
	n, err := io.ReadFull(input, firstBytes)
	if err == io.EOF {
		// Stream was empty
		return input, nil
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	firstBytes = firstBytes[:n]

	// Put the magic bytes back in front of the rest of the stream
	input = io.MultiReader(bytes.NewReader(firstBytes), input)

	switch {
	case bytes.HasPrefix(firstBytes, gzipMagic):
		log.Debug("Input stream is gzip compressed")
		return gzip.NewReader(input)
	case bytes.HasPrefix(firstBytes, zstdMagic):
		log.Debug("Input stream is zstd compressed")
		return zstd.NewReader(input)
	case bytes.HasPrefix(firstBytes, bzip2Magic):
		log.Debug("Input stream is bzip2 compressed")
		return bzip2.NewReader(input), nil
	case bytes.HasPrefix(firstBytes, xzMagic):
		log.Debug("Input stream is xz compressed")
		return xz.NewReader(input)
	default:
		// No magic numbers matched
		log.Trace("Input stream is assumed to be uncompressed")
		return input, nil
	}
}

// Reads from the decompressor, closes both the decompressor (if it can be
// closed) and the file.
func readCloser(decompressor io.Reader, file io.Closer) io.ReadCloser {
	return &decompressingReadCloser{decompressor: decompressor, file: file}
}

type decompressingReadCloser struct {
	decompressor io.Reader
	file         io.Closer
}

func (r *decompressingReadCloser) Read(p []byte) (int, error) {
	return r.decompressor.Read(p)
}

func (r *decompressingReadCloser) Close() error {
	var decompressorErr error
	if closer, ok := r.decompressor.(io.Closer); ok {
		decompressorErr = closer.Close()
	}

	fileErr := r.file.Close()
	if decompressorErr != nil {
		return decompressorErr
	}
	return fileErr
}
