package zio

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"gotest.tools/v3/assert"
)

func init() {
	// Info logs clutter test output
	log.SetLevel(log.WarnLevel)
}

// Test that ZReader works with an empty stream
func TestZReaderEmpty(t *testing.T) {
	bytesReader := bytes.NewReader([]byte{})

	zReader, err := ZReader(bytesReader)
	assert.NilError(t, err)

	all, err := io.ReadAll(zReader)
	assert.NilError(t, err)

	assert.Equal(t, 0, len(all))
}

// Test that ZReader works with a one-byte stream
func TestZReaderOneByte(t *testing.T) {
	bytesReader := bytes.NewReader([]byte{42})

	zReader, err := ZReader(bytesReader)
	assert.NilError(t, err)

	all, err := io.ReadAll(zReader)
	assert.NilError(t, err)

	assert.Equal(t, 1, len(all))
	assert.Equal(t, byte(42), all[0])
}

func TestZReaderCompressed(t *testing.T) {
	for _, compression := range []Compression{CompressionGzip, CompressionZstd, CompressionXz} {
		var compressed bytes.Buffer
		compressor, err := ZWriter(&compressed, compression)
		assert.NilError(t, err)
		_, err = compressor.Write([]byte("This is a compressed stream\n"))
		assert.NilError(t, err)
		assert.NilError(t, compressor.Close())

		zReader, err := ZReader(&compressed)
		assert.NilError(t, err, "%s", compression)

		all, err := io.ReadAll(zReader)
		assert.NilError(t, err, "%s", compression)
		assert.Equal(t, string(all), "This is a compressed stream\n", "%s", compression)
	}
}

func TestZOpenMissing(t *testing.T) {
	_, _, err := ZOpen(filepath.Join(t.TempDir(), "nonesuch"))
	assert.Assert(t, errors.Is(err, fs.ErrNotExist), "%v", err)

	_, err = Open(filepath.Join(t.TempDir(), "nonesuch"))
	assert.Assert(t, errors.Is(err, fs.ErrNotExist), "%v", err)
}

func TestZOpenUncompressed(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "short.txt")
	assert.NilError(t, os.WriteFile(filename, []byte("BZ"), 0o600))

	reader, name, err := ZOpen(filename)
	assert.NilError(t, err)
	defer reader.Close() //nolint:errcheck
	assert.Equal(t, name, filename)

	all, err := io.ReadAll(reader)
	assert.NilError(t, err)
	assert.Equal(t, string(all), "BZ")
}

func testCompressedRoundTrip(t *testing.T, filename string) {
	compression := CompressionFromFilename(filename)
	assert.Assert(t, compression != CompressionNone, filename)

	filenameWithPath := filepath.Join(t.TempDir(), filename)

	writer, err := ZCreate(filenameWithPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, compression)
	assert.NilError(t, err)
	_, err = writer.Write([]byte("This is a compressed file\n"))
	assert.NilError(t, err)
	assert.NilError(t, writer.Close())

	// Appending should add another stream that readers pick up
	writer, err = ZCreate(filenameWithPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, compression)
	assert.NilError(t, err)
	_, err = writer.Write([]byte("Appended\n"))
	assert.NilError(t, err)
	assert.NilError(t, writer.Close())

	reader, name, err := ZOpen(filenameWithPath)
	assert.NilError(t, err)
	defer reader.Close() //nolint:errcheck
	assert.Equal(t, name, filepath.Join(filepath.Dir(filenameWithPath), "compressed.txt"))

	all, err := io.ReadAll(reader)
	assert.NilError(t, err, filename)
	assert.Equal(t, string(all), "This is a compressed file\nAppended\n", filename)
}

func TestCompressedFiles(t *testing.T) {
	testCompressedRoundTrip(t, "compressed.txt.gz")
	testCompressedRoundTrip(t, "compressed.txt.xz")
	testCompressedRoundTrip(t, "compressed.txt.zst")
	testCompressedRoundTrip(t, "compressed.txt.zstd")
}

func TestCompressionFromFilename(t *testing.T) {
	assert.Equal(t, CompressionFromFilename("a.txt"), CompressionNone)
	assert.Equal(t, CompressionFromFilename("a.txt.gz"), CompressionGzip)
	assert.Equal(t, CompressionFromFilename("a.zst"), CompressionZstd)
	assert.Equal(t, CompressionFromFilename("a.xz"), CompressionXz)
}

func TestZCreateInvalidCompression(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "never-created")
	_, err := ZCreate(filename, os.O_WRONLY|os.O_CREATE, Compression(42))
	assert.ErrorContains(t, err, "invalid compression")

	_, err = os.Stat(filename)
	assert.Assert(t, errors.Is(err, fs.ErrNotExist))
}
