// Package codec converts between raw bytes in some named text encoding and
// UTF-8 text.
//
// The encoding tables themselves come from golang.org/x/text. This package adds
// name lookup, a strict error policy (x/text decoders silently substitute
// U+FFFD) and incremental decoding that never splits a multi-byte sequence.
package codec

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// BOM is the byte order mark code point. It is the same regardless of codec,
// only its encoded bytes differ.
const BOM = '\uFEFF'

// DefaultName is used when no codec name is given
const DefaultName = "UTF-8"

const replacementChar = utf8.RuneError

var ErrUnknownCodec = errors.New("unknown codec")

// Policy decides what happens to byte sequences that are invalid in, or code
// points that cannot be represented by, a codec.
type Policy int

const (
	// Replace invalid input with U+FFFD when decoding, and unencodable code
	// points with the codec's substitution byte when encoding.
	Replace Policy = iota

	// Strict makes invalid input an *EncodingError
	Strict
)

func (p Policy) String() string {
	switch p {
	case Replace:
		return "replace"
	case Strict:
		return "strict"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

func (p Policy) Validate() error {
	if p != Replace && p != Strict {
		return fmt.Errorf("invalid error policy %d", int(p))
	}
	return nil
}

// Codec is a named text encoding
type Codec struct {
	name     string
	encoding encoding.Encoding

	// UTF-8 input is validated directly, since the decoder output would be
	// byte identical to its input anyway
	isUTF8 bool

	// If the codec cannot represent U+FFFD, any U+FFFD coming out of its
	// decoder must be a substitution for invalid input.
	canEncodeReplacement bool

	// The encoded form of one U+FFFD, without any BOM the encoder might
	// prefix. Only set if canEncodeReplacement is true.
	encodedReplacement []byte

	// Length of the BOM the encoder writes by itself at the start of the
	// stream, 0 if it doesn't do that
	bomLength int
}

// Lookup finds a codec by its IANA name or alias, falling back to the WHATWG
// labels used on the web. Matching is case insensitive. An empty name means
// UTF-8.
//
// IANA names are tried first so that "ASCII" means 7 bit US-ASCII rather than
// windows-1252, which is what WHATWG maps it to.
func Lookup(name string) (*Codec, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = DefaultName
	}

	enc, err := ianaindex.IANA.Encoding(trimmed)
	if err != nil || enc == nil {
		enc, err = htmlindex.Get(trimmed)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
		}
	}

	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		// Known to x/text but not to IANA, keep whatever the caller said
		canonical = trimmed
	}

	codec := &Codec{
		name:     canonical,
		encoding: enc,
		isUTF8:   enc == unicode.UTF8,
	}

	one, err := enc.NewEncoder().String(string(replacementChar))
	if err == nil {
		codec.canEncodeReplacement = true

		// Two minus one leaves exactly one encoded U+FFFD, with any BOM the
		// encoder adds at the start cancelled out.
		two, err := enc.NewEncoder().String(string(replacementChar) + string(replacementChar))
		if err == nil && len(two) > len(one) {
			codec.encodedReplacement = []byte(two[len(one):])
			codec.bomLength = len(one) - len(codec.encodedReplacement)
		}
	}

	log.Debugf("Codec %q resolved to %s", name, codec.name)
	return codec, nil
}

// Name is the canonical name of the codec, "UTF-8", "windows-1252", ...
func (c *Codec) Name() string {
	return c.name
}

// AddsBOM tells whether the codec's encoder starts its output with a BOM all
// by itself, like UTF-16 does.
func (c *Codec) AddsBOM() bool {
	return c.bomLength > 0
}

func (c *Codec) String() string {
	return c.name
}
