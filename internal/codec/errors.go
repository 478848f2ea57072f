package codec

import (
	"errors"
	"fmt"

	"github.com/walles/linefile/internal/util"
)

var (
	ErrInvalidSequence = errors.New("invalid byte sequence")
	ErrUnencodable     = errors.New("code point not representable")
	ErrInvalidUTF8     = errors.New("invalid UTF-8 in text")
)

// EncodingError is returned under the Strict policy when input cannot be
// decoded, or text cannot be encoded.
//
// It is never returned for I/O problems, use errors.As() to tell the two
// apart.
type EncodingError struct {
	Codec string

	// One-based number of the line the problem was found on, or 0 if not
	// known
	Line int

	// Decoding: offset in the input stream of the first bad byte.
	// Encoding: byte offset of the bad code point in the line.
	Offset int64

	// The code point that could not be encoded. Not set when decoding.
	Rune rune

	// ErrInvalidSequence, ErrUnencodable or ErrInvalidUTF8
	Err error
}

func (e *EncodingError) Error() string {
	message := e.Codec + ": " + e.Err.Error()
	if e.Rune != 0 {
		message += fmt.Sprintf(" %U", e.Rune)
	}
	message += " at offset " + util.FormatInt(int(e.Offset))
	if e.Line > 0 {
		message += " on line " + util.FormatInt(e.Line)
	}
	return message
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// IsEncodingError tells whether any error in err's chain is an *EncodingError
func IsEncodingError(err error) bool {
	var encodingError *EncodingError
	return errors.As(err, &encodingError)
}
