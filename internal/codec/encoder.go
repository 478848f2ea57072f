package codec

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Encoder turns consecutive pieces of UTF-8 text into bytes of one output
// stream. Like Decoder it carries codec state between calls.
type Encoder struct {
	codec       *Codec
	policy      Policy
	transformer transform.Transformer
}

func (c *Codec) NewEncoder(policy Policy) *Encoder {
	encoder := c.encoding.NewEncoder()
	if policy == Replace {
		encoder = encoding.ReplaceUnsupported(encoder)
	}

	return &Encoder{
		codec:       c,
		policy:      policy,
		transformer: encoder,
	}
}

// Encode converts text into the codec's bytes.
//
// Under the Strict policy, text with invalid UTF-8 or with code points the
// codec cannot represent gives an *EncodingError, and the encoder state is
// left as if Encode had never been called.
func (e *Encoder) Encode(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		if e.policy == Strict {
			return nil, &EncodingError{
				Codec:  e.codec.name,
				Offset: int64(firstInvalidUTF8(text)),
				Err:    ErrInvalidUTF8,
			}
		}
		text = strings.ToValidUTF8(text, string(replacementChar))
	}

	if e.policy == Strict {
		// Dry run on a throwaway encoder so that a failure half way through
		// the text doesn't touch the state of the stream encoder
		_, n, err := transform.String(e.codec.encoding.NewEncoder(), text)
		if err != nil {
			char, _ := utf8.DecodeRuneInString(text[n:])
			return nil, &EncodingError{
				Codec:  e.codec.name,
				Offset: int64(n),
				Rune:   char,
				Err:    ErrUnencodable,
			}
		}
	}

	encoded, _, err := transformAll(e.transformer, []byte(text), false)
	if err != nil {
		return nil, &EncodingError{
			Codec: e.codec.name,
			Err:   ErrUnencodable,
		}
	}
	return encoded, nil
}

// Finish returns whatever the codec needs to end the stream with. For stateful
// codecs like ISO-2022-JP that may be an escape sequence back to ASCII, for
// most others it's nothing.
func (e *Encoder) Finish() ([]byte, error) {
	encoded, _, err := transformAll(e.transformer, nil, true)
	if err != nil {
		return nil, &EncodingError{
			Codec: e.codec.name,
			Err:   ErrUnencodable,
		}
	}
	return encoded, nil
}

func firstInvalidUTF8(text string) int {
	for i := 0; i < len(text); {
		char, size := utf8.DecodeRuneInString(text[i:])
		if char == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(text)
}
