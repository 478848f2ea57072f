// Package linefile reads and writes text files one line at a time, in any
// codec golang.org/x/text knows about.
//
// Reading:
//
//	err := linefile.EachLine("input.txt", linefile.ReaderOptions{}, func(line linefile.Line) error {
//		fmt.Println(line.Number.Format(), line.Text)
//		return nil
//	})
//
// Writing:
//
//	err := linefile.WriteLines("output.txt", linefile.WriterOptions{Newline: linefile.NewlineAlways}, "Hello", "World")
package linefile

import (
	"io"

	"github.com/walles/linefile/internal/codec"
	"github.com/walles/linefile/internal/reader"
	"github.com/walles/linefile/internal/writer"
	"github.com/walles/linefile/internal/zio"
)

type (
	Line          = reader.NumberedLine
	Reader        = reader.Reader
	ReaderOptions = reader.Options
	SplitMode     = reader.SplitMode
	StripMode     = reader.StripMode

	Writer         = writer.Writer
	WriterOptions  = writer.Options
	OpenMode       = writer.OpenMode
	TerminatorMode = writer.TerminatorMode
	NewlineMode    = writer.NewlineMode

	Policy        = codec.Policy
	EncodingError = codec.EncodingError
	Compression   = zio.Compression
)

// Codec used when none is given
const DefaultCodec = codec.DefaultName

const (
	Replace = codec.Replace
	Strict  = codec.Strict

	SplitNative    = reader.SplitNative
	SplitForceLF   = reader.SplitForceLF
	SplitForceCRLF = reader.SplitForceCRLF

	StripNone               = reader.StripNone
	StripTerminator         = reader.StripTerminator
	StripTrailingWhitespace = reader.StripTrailingWhitespace
	StripWhitespace         = reader.StripWhitespace

	OpenTruncate  = writer.OpenTruncate
	OpenAppend    = writer.OpenAppend
	OpenExclusive = writer.OpenExclusive

	TerminatorVerbatim  = writer.TerminatorVerbatim
	TerminatorForceLF   = writer.TerminatorForceLF
	TerminatorForceCRLF = writer.TerminatorForceCRLF

	NewlineAsGiven   = writer.NewlineAsGiven
	NewlineAlways    = writer.NewlineAlways
	NewlineIfMissing = writer.NewlineIfMissing

	CompressionNone = zio.CompressionNone
	CompressionGzip = zio.CompressionGzip
	CompressionZstd = zio.CompressionZstd
	CompressionXz   = zio.CompressionXz
)

var (
	ErrClosed       = writer.ErrClosed
	ErrUnknownCodec = codec.ErrUnknownCodec

	ErrInvalidSequence = codec.ErrInvalidSequence
	ErrUnencodable     = codec.ErrUnencodable
	ErrInvalidUTF8     = codec.ErrInvalidUTF8
)

// Open a file for reading lines. Remember to Close() the Reader if you stop
// before GetLine() returns nil.
func Open(name string, options ReaderOptions) (*Reader, error) {
	return reader.Open(name, options)
}

func NewReader(stream io.Reader, options ReaderOptions) (*Reader, error) {
	return reader.New(stream, options)
}

// Create a file for writing lines. Remember to Close() the Writer.
func Create(name string, options WriterOptions) (*Writer, error) {
	return writer.Create(name, options)
}

func NewWriter(stream io.Writer, options WriterOptions) (*Writer, error) {
	return writer.NewFromStream(stream, options)
}

func NewClosedWriter(options WriterOptions) (*Writer, error) {
	return writer.NewClosed(options)
}

// CompressionFromFilename picks a compression based on the file name
// extension: .gz, .zst, .zstd or .xz
func CompressionFromFilename(name string) Compression {
	return zio.CompressionFromFilename(name)
}

// EachLine calls handleLine for each line of a file. The file is closed
// when EachLine returns, even if handleLine panics.
//
// Iteration stops at the first error, from reading or from handleLine, and
// that error is returned.
func EachLine(name string, options ReaderOptions, handleLine func(line Line) error) error {
	lines, err := reader.Open(name, options)
	if err != nil {
		return err
	}
	defer lines.Close() //nolint:errcheck

	return eachLine(lines, handleLine)
}

// EachLineFromStream is like EachLine, but for an already open stream. The
// stream is not closed.
func EachLineFromStream(stream io.Reader, options ReaderOptions, handleLine func(line Line) error) error {
	lines, err := reader.New(stream, options)
	if err != nil {
		return err
	}
	defer lines.Close() //nolint:errcheck

	return eachLine(lines, handleLine)
}

func eachLine(lines *Reader, handleLine func(line Line) error) error {
	for {
		line, err := lines.GetLine()
		if err != nil {
			return err
		}
		if line == nil {
			return nil
		}

		err = handleLine(*line)
		if err != nil {
			return err
		}
	}
}

// ReadLines returns the text of all lines in a file
func ReadLines(name string, options ReaderOptions) ([]string, error) {
	result := []string{}
	err := EachLine(name, options, func(line Line) error {
		result = append(result, line.Text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CountLines counts the lines in a file. Lines dropped because of
// ReaderOptions.SkipEmpty are not counted.
func CountLines(name string, options ReaderOptions) (int, error) {
	count := 0
	err := EachLine(name, options, func(_ Line) error {
		count++
		return nil
	})
	return count, err
}

// WithWriter creates a file and passes a Writer for it to useWriter. The
// Writer is closed when WithWriter returns, even if useWriter panics.
//
// If useWriter fails, that error is returned. Otherwise any error from closing
// the Writer is.
func WithWriter(name string, options WriterOptions, useWriter func(lines *Writer) error) (err error) {
	lines, err := writer.Create(name, options)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := lines.Close()
		if err == nil {
			err = closeErr
		}
	}()

	return useWriter(lines)
}

// WriteLines creates a file and writes all lines to it
func WriteLines(name string, options WriterOptions, lines ...string) error {
	return WithWriter(name, options, func(output *Writer) error {
		for _, line := range lines {
			if err := output.Append(line); err != nil {
				return err
			}
		}
		return nil
	})
}
