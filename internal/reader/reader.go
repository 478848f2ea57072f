package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"

	"github.com/walles/linefile/internal/codec"
	"github.com/walles/linefile/internal/linemetadata"
	"github.com/walles/linefile/internal/zio"
)

var bomBytes = []byte(string(codec.BOM))

// Reader turns a byte stream into lines of text, one line per GetLine() call.
//
// Input is read and decoded lazily, in chunks, so arbitrarily large streams
// are fine. There is no way to rewind a Reader.
type Reader struct {
	// File name, or empty for streams
	name string

	options   Options
	delimiter []byte

	source io.Reader

	// nil if we aren't supposed to close the source
	closer io.Closer

	decoder *codec.Decoder

	// Read from the source but not yet decoded. Normally empty or a partial
	// multi-byte sequence.
	raw []byte

	// Decoded but not yet returned
	text []byte

	// How far into text we have already looked for a line ending
	scanned int

	// The number of the next line to come out of the text buffer
	number linemetadata.Number

	bomChecked bool
	eof        bool

	// A problem found after the text currently in the buffer. It is reported
	// when the line it affects is requested.
	pendingErr error

	done bool
	err  error
}

// Open starts reading lines from a file.
//
// Unless options.PretendMissing is set, failing to open the file is an error.
// With it set, you get a Reader without any lines.
func Open(filename string, options Options) (*Reader, error) {
	if err := options.validate(); err != nil {
		return nil, err
	}

	decoderCodec, err := codec.Lookup(options.Codec)
	if err != nil {
		return nil, err
	}

	var stream io.ReadCloser
	if options.Decompress {
		stream, _, err = zio.ZOpen(filename)
	} else {
		stream, err = zio.Open(filename)
	}
	if err != nil {
		if options.PretendMissing {
			log.Debugf("Pretending %s is empty: %v", filename, err)
			return &Reader{name: filename, options: options, done: true}, nil
		}
		return nil, err
	}

	log.Debugf("Reading %s lines from %s", decoderCodec, filename)
	reader := newReader(filename, stream, decoderCodec, options)
	reader.closer = stream
	return reader, nil
}

// New reads lines from an already open stream. The stream will not be closed
// by the Reader.
func New(stream io.Reader, options Options) (*Reader, error) {
	if err := options.validate(); err != nil {
		return nil, err
	}

	decoderCodec, err := codec.Lookup(options.Codec)
	if err != nil {
		return nil, err
	}

	if options.Decompress {
		stream, err = zio.ZReader(stream)
		if err != nil {
			return nil, err
		}
	}

	return newReader("", stream, decoderCodec, options), nil
}

func newReader(name string, stream io.Reader, decoderCodec *codec.Codec, options Options) *Reader {
	return &Reader{
		name:      name,
		options:   options,
		delimiter: []byte(options.Delimiter),
		source:    stream,
		decoder:   decoderCodec.NewDecoder(options.Errors),
	}
}

// GetLine returns the next line, or nil after the last one.
//
// Errors are terminal. Once GetLine has returned an error, or nil, it will
// keep returning that.
func (r *Reader) GetLine() (*NumberedLine, error) {
	for {
		if r.done {
			return nil, r.err
		}

		rawLine, found := r.cutLine()
		if !found {
			if r.pendingErr != nil {
				// The problem is in the line we were about to return
				r.finish(r.attribute(r.pendingErr))
				continue
			}

			if !r.eof {
				r.fill()
				continue
			}

			if len(r.text) == 0 {
				r.finish(nil)
				continue
			}

			// INVARIANT: We are at the end of the stream, and there's some
			// text left that didn't end with a line terminator
			rawLine = string(r.text)
			r.text = r.text[:0]
			r.scanned = 0
		}

		number := r.number
		r.number = r.number.Next()

		body, terminator := r.splitTerminator(rawLine)
		if r.options.SkipEmpty && r.strip(body, "") == "" {
			continue
		}
		line := r.strip(body, terminator)

		return &NumberedLine{Number: number, Text: line}, nil
	}
}

// Close releases the source before the end of the stream has been reached.
// After this GetLine() returns nil.
//
// Reading until GetLine() returns nil or an error closes the source as well,
// so calling Close is only required when stopping early. It is always safe
// though.
func (r *Reader) Close() error {
	if !r.done {
		r.finish(nil)
		return r.err
	}
	return nil
}

// Name of the file being read, or empty if reading from a stream
func (r *Reader) Name() string {
	return r.name
}

// Reads one more chunk from the source and decodes it into r.text
func (r *Reader) fill() {
	chunkSize := r.options.chunkSize()
	start := len(r.raw)
	r.raw = slices.Grow(r.raw, chunkSize)
	n, readErr := r.source.Read(r.raw[start : start+chunkSize])
	r.raw = r.raw[:start+n]

	if readErr == io.EOF {
		// This is not an error
		readErr = nil
		r.eof = true
	}

	text, consumed, decodeErr := r.decoder.Decode(r.raw, r.eof)

	// Keep any unconsumed bytes at the start of the buffer
	r.raw = r.raw[:copy(r.raw, r.raw[consumed:])]

	if !r.bomChecked && len(text) > 0 {
		r.bomChecked = true
		if r.options.DetectBOM && bytes.HasPrefix(text, bomBytes) {
			log.Trace("Skipping byte order mark in ", r.describe())
			text = text[len(bomBytes):]
		}
	}
	r.text = append(r.text, text...)

	// A decoding problem comes before a read problem in the stream
	if decodeErr != nil {
		r.pendingErr = decodeErr
	} else if readErr != nil {
		r.pendingErr = fmt.Errorf("failed to read %s: %w", r.describe(), readErr)
	}
}

// Removes the first complete line from the decoded text and returns it. The
// line terminator, if any, is still attached.
func (r *Reader) cutLine() (string, bool) {
	end := r.findLineEnd()
	if end < 0 {
		return "", false
	}

	line := string(r.text[:end])
	r.text = r.text[end:]
	r.scanned = 0
	return line, true
}

// Returns the index just past the first line terminator in r.text, or -1 if
// there isn't one yet.
func (r *Reader) findLineEnd() int {
	if len(r.delimiter) > 0 {
		// The previous scan may have stopped in the middle of a delimiter
		from := max(0, r.scanned-len(r.delimiter)+1)
		i := bytes.Index(r.text[from:], r.delimiter)
		if i < 0 {
			r.scanned = len(r.text)
			return -1
		}
		return from + i + len(r.delimiter)
	}

	i := bytes.IndexAny(r.text[r.scanned:], "\r\n")
	if i < 0 {
		r.scanned = len(r.text)
		return -1
	}
	i += r.scanned

	if r.text[i] == '\n' {
		return i + 1
	}

	// INVARIANT: We found a '\r', is it the start of a "\r\n"?
	if i+1 < len(r.text) {
		if r.text[i+1] == '\n' {
			return i + 2
		}
		return i + 1
	}
	if r.eof || r.pendingErr != nil {
		// Nothing more is coming before the end or the error
		return i + 1
	}

	// Can't tell before we have seen the next character
	r.scanned = i
	return -1
}

// Splits a line into its contents and its terminator, normalizing the
// terminator if we've been asked to.
func (r *Reader) splitTerminator(line string) (string, string) {
	if len(r.delimiter) > 0 {
		if strings.HasSuffix(line, r.options.Delimiter) {
			return line[:len(line)-len(r.options.Delimiter)], r.options.Delimiter
		}
		return line, ""
	}

	body := line
	terminator := ""
	switch {
	case strings.HasSuffix(line, "\r\n"):
		body = line[:len(line)-2]
		terminator = "\r\n"
	case strings.HasSuffix(line, "\n"), strings.HasSuffix(line, "\r"):
		body = line[:len(line)-1]
		terminator = line[len(line)-1:]
	}

	if terminator == "" {
		return body, terminator
	}

	switch r.options.Split {
	case SplitForceLF:
		terminator = "\n"
	case SplitForceCRLF:
		terminator = "\r\n"
	}
	return body, terminator
}

func (r *Reader) strip(body string, terminator string) string {
	switch r.options.Strip {
	case StripTerminator:
		return body
	case StripTrailingWhitespace:
		return strings.TrimRightFunc(body, unicode.IsSpace)
	case StripWhitespace:
		return strings.TrimSpace(body)
	}
	return body + terminator
}

// Put line information into encoding errors
func (r *Reader) attribute(err error) error {
	var encodingError *codec.EncodingError
	if errors.As(err, &encodingError) && encodingError.Line == 0 {
		encodingError.Line = r.number.AsOneBased()
	}
	return err
}

func (r *Reader) finish(err error) {
	r.done = true
	r.err = err
	r.raw = nil
	r.text = nil

	if r.closer != nil {
		closeErr := r.closer.Close()
		r.closer = nil
		if r.err == nil && closeErr != nil {
			r.err = fmt.Errorf("failed to close %s: %w", r.describe(), closeErr)
		}
	}

	if err != nil {
		log.Debugf("Reading %s failed at line %s: %v", r.describe(), r.number.Format(), err)
	} else {
		log.Debugf("Done reading %s, %d lines", r.describe(), r.number.AsZeroBased())
	}
}

func (r *Reader) describe() string {
	if r.name == "" {
		return "stream"
	}
	return r.name
}
