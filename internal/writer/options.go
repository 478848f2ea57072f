package writer

import (
	"fmt"
	"os"

	"github.com/walles/linefile/internal/codec"
	"github.com/walles/linefile/internal/zio"
)

// OpenMode decides what happens to an already existing file
type OpenMode int

const (
	// Replace any existing contents
	OpenTruncate OpenMode = iota

	// Add to the end of any existing contents
	OpenAppend

	// Fail if the file already exists
	OpenExclusive
)

func (m OpenMode) String() string {
	switch m {
	case OpenTruncate:
		return "truncate"
	case OpenAppend:
		return "append"
	case OpenExclusive:
		return "exclusive"
	}
	return fmt.Sprintf("OpenMode(%d)", int(m))
}

func (m OpenMode) flag() int {
	switch m {
	case OpenAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case OpenExclusive:
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
}

// TerminatorMode decides how existing line terminators are written
type TerminatorMode int

const (
	// Write terminators exactly as given
	TerminatorVerbatim TerminatorMode = iota

	// Rewrite any trailing \n, \r\n or \r into \n
	TerminatorForceLF

	// Rewrite any trailing \n, \r\n or \r into \r\n
	TerminatorForceCRLF
)

func (m TerminatorMode) String() string {
	switch m {
	case TerminatorVerbatim:
		return "verbatim"
	case TerminatorForceLF:
		return "force-LF"
	case TerminatorForceCRLF:
		return "force-CRLF"
	}
	return fmt.Sprintf("TerminatorMode(%d)", int(m))
}

// NewlineMode decides whether the writer adds terminators of its own
type NewlineMode int

const (
	// Lines are written as given, a line without a terminator continues on
	// the next Append()
	NewlineAsGiven NewlineMode = iota

	// Every line gets exactly one terminator, replacing any it already had
	NewlineAlways

	// Lines without a terminator get one, others are left alone
	NewlineIfMissing
)

func (m NewlineMode) String() string {
	switch m {
	case NewlineAsGiven:
		return "as-given"
	case NewlineAlways:
		return "always"
	case NewlineIfMissing:
		return "if-missing"
	}
	return fmt.Sprintf("NewlineMode(%d)", int(m))
}

// Options controls how a Writer turns lines into bytes. The zero value
// truncates, writes UTF-8 and writes lines exactly as given.
type Options struct {
	// Codec name, like "UTF-8" or "windows-1252". Empty means UTF-8.
	Codec string

	// What to do about text the codec can't represent, see codec.Policy
	Errors codec.Policy

	Open OpenMode

	Terminator TerminatorMode

	Newline NewlineMode

	// Start the output with a byte order mark
	EmitBOM bool

	Compression zio.Compression
}

func (o Options) validate() error {
	if err := o.Errors.Validate(); err != nil {
		return err
	}

	if o.Open < OpenTruncate || o.Open > OpenExclusive {
		return fmt.Errorf("invalid open mode %d", int(o.Open))
	}

	if o.Terminator < TerminatorVerbatim || o.Terminator > TerminatorForceCRLF {
		return fmt.Errorf("invalid terminator mode %d", int(o.Terminator))
	}

	if o.Newline < NewlineAsGiven || o.Newline > NewlineIfMissing {
		return fmt.Errorf("invalid newline mode %d", int(o.Newline))
	}

	return o.Compression.Validate()
}
