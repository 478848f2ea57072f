package codec

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

var replacementBytes = []byte(string(replacementChar))

// Decoder turns consecutive chunks of one byte stream into UTF-8 text. It
// carries codec state from one chunk to the next, so don't share it between
// streams.
//
// After Decode has returned an error the Decoder must not be used again.
type Decoder struct {
	codec       *Codec
	policy      Policy
	transformer transform.Transformer

	// Number of input bytes consumed so far
	offset int64
}

func (c *Codec) NewDecoder(policy Policy) *Decoder {
	return &Decoder{
		codec:       c,
		policy:      policy,
		transformer: c.encoding.NewDecoder(),
	}
}

// Decode converts as much of src as it can into UTF-8 text.
//
// Unless atEOF is set, an incomplete multi-byte sequence at the end of src is
// left unconsumed. Pass those bytes again, followed by more input, on the next
// call.
//
// Under the Strict policy an invalid sequence gives an *EncodingError. The text
// decoded before the invalid sequence is returned together with the error.
func (d *Decoder) Decode(src []byte, atEOF bool) (text []byte, consumed int, err error) {
	if d.policy == Strict && d.codec.isUTF8 {
		return d.decodeStrictUTF8(src, atEOF)
	}

	text, consumed, err = transformAll(d.transformer, src, atEOF)
	if err != nil {
		// x/text decoders substitute rather than fail, so this is unexpected
		d.offset += int64(consumed)
		return text, consumed, d.invalid()
	}

	if d.policy == Strict {
		bad := d.firstSubstitution(text, src[:consumed])
		if bad >= 0 {
			valid := text[:bad]
			validBytes := d.encodedLength(valid, consumed)
			d.offset += int64(validBytes)
			return valid, validBytes, d.invalid()
		}
	}

	d.offset += int64(consumed)
	return text, consumed, nil
}

// Offset is the number of input bytes consumed so far
func (d *Decoder) Offset() int64 {
	return d.offset
}

func (d *Decoder) decodeStrictUTF8(src []byte, atEOF bool) ([]byte, int, error) {
	n := 0
	for n < len(src) {
		if src[n] < utf8.RuneSelf {
			n++
			continue
		}

		if !atEOF && !utf8.FullRune(src[n:]) {
			// Wait for the rest of this character
			break
		}

		char, size := utf8.DecodeRune(src[n:])
		if char == utf8.RuneError && size == 1 {
			text := bytes.Clone(src[:n])
			d.offset += int64(n)
			return text, n, d.invalid()
		}
		n += size
	}

	d.offset += int64(n)
	return bytes.Clone(src[:n]), n, nil
}

// Returns the index in text of the first U+FFFD that the decoder made up, or -1
// if the text is clean.
func (d *Decoder) firstSubstitution(text []byte, src []byte) int {
	first := bytes.Index(text, replacementBytes)
	if first < 0 {
		return -1
	}

	if !d.codec.canEncodeReplacement {
		// Nothing in the input could have decoded into U+FFFD, so this one
		// must be a substitution
		return first
	}

	if len(d.codec.encodedReplacement) == 0 {
		return first
	}

	// The input may contain genuine U+FFFDs. If there are as many of those
	// as there are U+FFFDs in the output, the input was fine.
	//
	// FIXME: When there are both genuine and substituted U+FFFDs we report
	// the first one, which may be a genuine one.
	decodedCount := bytes.Count(text, replacementBytes)
	genuineCount := bytes.Count(src, d.codec.encodedReplacement)
	if decodedCount <= genuineCount {
		return -1
	}

	return first
}

// How many input bytes went into producing text? Exact for stateless codecs,
// an estimate for the others. Never more than limit.
func (d *Decoder) encodedLength(text []byte, limit int) int {
	encoded, _, err := transform.Bytes(d.codec.encoding.NewEncoder(), text)
	if err != nil {
		return 0
	}

	length := len(encoded)
	if d.offset > 0 {
		// Only the start of the stream has the BOM the encoder just added
		length -= d.codec.bomLength
	}
	if length < 0 {
		return 0
	}
	if length > limit {
		return limit
	}
	return length
}

func (d *Decoder) invalid() *EncodingError {
	return &EncodingError{
		Codec:  d.codec.name,
		Offset: d.offset,
		Err:    ErrInvalidSequence,
	}
}

// Runs all of src through t, growing the destination as needed. A trailing
// incomplete sequence is not an error, it's just not consumed.
func transformAll(t transform.Transformer, src []byte, atEOF bool) ([]byte, int, error) {
	dst := make([]byte, 2*len(src)+utf8.UTFMax)
	nDst := 0
	nSrc := 0
	for {
		dn, sn, err := t.Transform(dst[nDst:], src[nSrc:], atEOF)
		nDst += dn
		nSrc += sn

		switch err {
		case nil:
			return dst[:nDst], nSrc, nil

		case transform.ErrShortSrc:
			if atEOF {
				return dst[:nDst], nSrc, err
			}
			return dst[:nDst], nSrc, nil

		case transform.ErrShortDst:
			grown := make([]byte, 2*len(dst))
			copy(grown, dst[:nDst])
			dst = grown

		default:
			return dst[:nDst], nSrc, err
		}
	}
}
