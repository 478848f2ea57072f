package writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/walles/linefile/internal/codec"
	"github.com/walles/linefile/internal/zio"
)

// ErrClosed is returned when appending to a Writer that isn't bound to any
// sink
var ErrClosed = errors.New("writer is closed")

var bomString = string(codec.BOM)

// Writer encodes lines of text into a file or a stream.
//
// Output is buffered. It reaches the sink on Flush() or Close(), or when the
// buffer fills up.
type Writer struct {
	// File name, or empty for streams
	name string

	options Options
	codec   *codec.Codec
	encoder *codec.Encoder

	// nil when closed
	sink     io.WriteCloser
	buffered *bufio.Writer

	// Has anything been written since the sink was opened?
	wroteFirst bool

	lineCount int
}

// Create opens a file for writing lines to. Depending on options.Open an
// existing file is truncated, appended to or makes this fail.
func Create(filename string, options Options) (*Writer, error) {
	writer, err := NewClosed(options)
	if err != nil {
		return nil, err
	}

	err = writer.open(filename)
	if err != nil {
		return nil, err
	}

	return writer, nil
}

// NewFromStream writes lines to an already open stream. Closing the Writer
// flushes everything to the stream but doesn't close it.
//
// options.Open is ignored.
func NewFromStream(stream io.Writer, options Options) (*Writer, error) {
	writer, err := NewClosed(options)
	if err != nil {
		return nil, err
	}

	sink, err := zio.ZWriter(stream, options.Compression)
	if err != nil {
		return nil, err
	}
	writer.bind("", sink)

	return writer, nil
}

// NewClosed creates a Writer that isn't bound to anything. Appending to it
// fails with ErrClosed until it is bound using Reopen().
func NewClosed(options Options) (*Writer, error) {
	if err := options.validate(); err != nil {
		return nil, err
	}

	encoderCodec, err := codec.Lookup(options.Codec)
	if err != nil {
		return nil, err
	}

	if err := checkBOM(encoderCodec, options); err != nil {
		return nil, err
	}

	return &Writer{
		options: options,
		codec:   encoderCodec,
	}, nil
}

// Reopen closes the current sink, if any, and then starts writing to a file
// using new options.
//
// If closing the current sink fails the new file is opened anyway, and the
// close error is returned together with any open error.
func (w *Writer) Reopen(filename string, options Options) error {
	if err := options.validate(); err != nil {
		return err
	}

	encoderCodec, err := codec.Lookup(options.Codec)
	if err != nil {
		return err
	}

	if err := checkBOM(encoderCodec, options); err != nil {
		return err
	}

	closeErr := w.Close()

	w.options = options
	w.codec = encoderCodec
	return errors.Join(closeErr, w.open(filename))
}

// Append writes one line.
//
// Depending on Options.Newline and Options.Terminator the line's terminator
// may be added, replaced or rewritten on the way out.
//
// With the codec.Strict policy, a line that can't be encoded gives an
// *codec.EncodingError. Nothing of that line is written, but the Writer is
// still usable.
func (w *Writer) Append(line string) error {
	if w.sink == nil {
		return ErrClosed
	}

	line = w.shape(line)

	prefix := ""
	if w.options.EmitBOM && !w.wroteFirst && !w.codec.AddsBOM() && !strings.HasPrefix(line, bomString) {
		prefix = bomString
	}

	encoded, err := w.encoder.Encode(prefix + line)
	if err != nil {
		var encodingError *codec.EncodingError
		if errors.As(err, &encodingError) {
			encodingError.Line = w.lineCount + 1
			if encodingError.Offset >= int64(len(prefix)) {
				encodingError.Offset -= int64(len(prefix))
			}
		}
		return err
	}

	_, err = w.buffered.Write(encoded)
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", w.describe(), err)
	}

	w.wroteFirst = true
	w.lineCount++
	return nil
}

// Flush pushes buffered output to the sink.
//
// Compressed output may still be held back by the compressor until Close().
func (w *Writer) Flush() error {
	if w.sink == nil {
		return nil
	}

	if err := w.buffered.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", w.describe(), err)
	}
	return nil
}

// Close flushes everything and releases the sink. Closing an already closed
// Writer does nothing.
func (w *Writer) Close() error {
	if w.sink == nil {
		return nil
	}

	var errs []error

	tail, err := w.encoder.Finish()
	if err != nil {
		errs = append(errs, err)
	} else if len(tail) > 0 {
		_, err = w.buffered.Write(tail)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to write to %s: %w", w.describe(), err))
		}
	}

	errs = append(errs, w.Flush())

	if err := w.sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close %s: %w", w.describe(), err))
	}

	log.Debugf("Closed %s after %d lines", w.describe(), w.lineCount)

	w.name = ""
	w.sink = nil
	w.buffered = nil
	w.encoder = nil
	return errors.Join(errs...)
}

// IsOpen tells whether the Writer is bound to a sink
func (w *Writer) IsOpen() bool {
	return w.sink != nil
}

// LineCount is the number of lines appended since the sink was opened
func (w *Writer) LineCount() int {
	return w.lineCount
}

// Name of the file being written, or empty if writing to a stream or closed
func (w *Writer) Name() string {
	return w.name
}

func (w *Writer) open(filename string) error {
	sink, err := zio.ZCreate(filename, w.options.Open.flag(), w.options.Compression)
	if err != nil {
		return err
	}

	log.Debugf("Writing %s lines to %s, %s", w.codec, filename, w.options.Open)
	w.bind(filename, sink)
	return nil
}

func (w *Writer) bind(name string, sink io.WriteCloser) {
	w.name = name
	w.sink = sink
	w.buffered = bufio.NewWriter(sink)
	w.encoder = w.codec.NewEncoder(w.options.Errors)
	w.wroteFirst = false
	w.lineCount = 0
}

// Under the strict policy, a BOM the codec can't encode would fail every
// Append on a fresh sink
func checkBOM(c *codec.Codec, options Options) error {
	if !options.EmitBOM || options.Errors != codec.Strict || c.AddsBOM() {
		return nil
	}

	if _, err := c.NewEncoder(codec.Strict).Encode(bomString); err != nil {
		return fmt.Errorf("%s can't encode a byte order mark: %w", c, err)
	}
	return nil
}

// Applies the newline and terminator modes to a line
func (w *Writer) shape(line string) string {
	body, terminator := splitTerminator(line)

	switch w.options.Newline {
	case NewlineAlways:
		return body + w.newline()
	case NewlineIfMissing:
		if terminator == "" {
			return body + w.newline()
		}
		// Existing terminators are left alone
		return body + terminator
	}

	if terminator == "" {
		return body
	}

	switch w.options.Terminator {
	case TerminatorForceLF:
		terminator = "\n"
	case TerminatorForceCRLF:
		terminator = "\r\n"
	}
	return body + terminator
}

// The terminator we add to lines that lack one
func (w *Writer) newline() string {
	if w.options.Terminator == TerminatorForceCRLF {
		return "\r\n"
	}
	return "\n"
}

func splitTerminator(line string) (string, string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"), strings.HasSuffix(line, "\r"):
		return line[:len(line)-1], line[len(line)-1:]
	}
	return line, ""
}

func (w *Writer) describe() string {
	if w.name == "" {
		return "stream"
	}
	return w.name
}
