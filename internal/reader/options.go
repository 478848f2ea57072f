package reader

import (
	"fmt"

	"github.com/walles/linefile/internal/codec"
)

const defaultChunkSize = 4096

// SplitMode decides which terminator, if any, read lines end with
type SplitMode int

const (
	// Lines end with \n, \r\n or \r, whichever the input had
	SplitNative SplitMode = iota

	// Like SplitNative, but all terminators are rewritten to \n
	SplitForceLF

	// Like SplitNative, but all terminators are rewritten to \r\n
	SplitForceCRLF
)

func (s SplitMode) String() string {
	switch s {
	case SplitNative:
		return "native"
	case SplitForceLF:
		return "force-LF"
	case SplitForceCRLF:
		return "force-CRLF"
	}
	return fmt.Sprintf("SplitMode(%d)", int(s))
}

// StripMode decides what is removed from each line after splitting
type StripMode int

const (
	StripNone StripMode = iota

	// Remove the terminator (or delimiter), nothing else
	StripTerminator

	// Remove all trailing whitespace, terminator included
	StripTrailingWhitespace

	// Remove all leading and trailing whitespace, terminator included
	StripWhitespace
)

func (s StripMode) String() string {
	switch s {
	case StripNone:
		return "none"
	case StripTerminator:
		return "strip-terminator"
	case StripTrailingWhitespace:
		return "strip-trailing-whitespace"
	case StripWhitespace:
		return "strip-whitespace"
	}
	return fmt.Sprintf("StripMode(%d)", int(s))
}

// Options controls how a Reader turns bytes into lines. The zero value reads
// UTF-8, replaces invalid input with U+FFFD and yields every line with its
// terminator intact.
type Options struct {
	// Codec name, like "UTF-8" or "windows-1252". Empty means UTF-8.
	Codec string

	// What to do about invalid input, see codec.Policy
	Errors codec.Policy

	// If the source can't be opened, yield no lines rather than failing
	PretendMissing bool

	Split SplitMode

	// If set, lines are split on this string and nothing else. The delimiter
	// is kept verbatim at the end of each line, regardless of Split.
	Delimiter string

	Strip StripMode

	// Don't yield lines that are empty once their terminator and any
	// stripped whitespace are gone. They are still counted, so line numbers
	// match the input.
	SkipEmpty bool

	// Remove a byte order mark from the start of the stream
	DetectBOM bool

	// Transparently decompress gzip, bzip2, zstd and xz input
	Decompress bool

	// How many bytes to read at a time. Zero means a reasonable default.
	ChunkSize int
}

func (o Options) validate() error {
	if err := o.Errors.Validate(); err != nil {
		return err
	}

	switch o.Split {
	case SplitNative, SplitForceLF, SplitForceCRLF:
	default:
		return fmt.Errorf("invalid split mode %d", int(o.Split))
	}

	switch o.Strip {
	case StripNone, StripTerminator, StripTrailingWhitespace, StripWhitespace:
	default:
		return fmt.Errorf("invalid strip mode %d", int(o.Strip))
	}

	if o.ChunkSize < 0 {
		return fmt.Errorf("chunk size must be at least 0, got %d", o.ChunkSize)
	}

	return nil
}

func (o Options) chunkSize() int {
	if o.ChunkSize == 0 {
		return defaultChunkSize
	}
	return o.ChunkSize
}
