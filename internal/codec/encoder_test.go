package codec

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func encoderFor(t *testing.T, name string, policy Policy) *Encoder {
	codec, err := Lookup(name)
	assert.NilError(t, err)
	return codec.NewEncoder(policy)
}

func TestEncodeUTF8(t *testing.T) {
	encoder := encoderFor(t, "", Strict)
	encoded, err := encoder.Encode("Hello €urope\n")
	assert.NilError(t, err)
	assert.Equal(t, string(encoded), "Hello €urope\n")
}

func TestEncodeWindows1252(t *testing.T) {
	encoder := encoderFor(t, "windows-1252", Strict)
	encoded, err := encoder.Encode("€uro\n")
	assert.NilError(t, err)
	assert.DeepEqual(t, encoded, []byte("\x80uro\n"))
}

func TestEncodeStrictUnencodable(t *testing.T) {
	encoder := encoderFor(t, "ascii", Strict)

	_, err := encoder.Encode("Hello €urope\n")
	var encodingError *EncodingError
	assert.Assert(t, errors.As(err, &encodingError), "%v", err)
	assert.Equal(t, encodingError.Rune, '€')
	assert.Equal(t, encodingError.Offset, int64(6))
	assert.Assert(t, errors.Is(err, ErrUnencodable))

	// The encoder should still be usable after a failure
	encoded, err := encoder.Encode("Goodbye\n")
	assert.NilError(t, err)
	assert.Equal(t, string(encoded), "Goodbye\n")
}

func TestEncodeReplaceUnencodable(t *testing.T) {
	encoder := encoderFor(t, "ascii", Replace)
	encoded, err := encoder.Encode("€uro")
	assert.NilError(t, err)
	assert.DeepEqual(t, encoded, []byte("\x1auro"))
}

func TestEncodeInvalidUTF8(t *testing.T) {
	encoder := encoderFor(t, "UTF-8", Strict)
	_, err := encoder.Encode("ab\xffc")
	assert.Assert(t, errors.Is(err, ErrInvalidUTF8), "%v", err)

	var encodingError *EncodingError
	assert.Assert(t, errors.As(err, &encodingError))
	assert.Equal(t, encodingError.Offset, int64(2))

	encoder = encoderFor(t, "UTF-8", Replace)
	encoded, err := encoder.Encode("ab\xffc")
	assert.NilError(t, err)
	assert.Equal(t, string(encoded), "ab�c")
}

// UTF-16 writes its BOM once per stream, not once per line
func TestEncodeUTF16Stream(t *testing.T) {
	encoder := encoderFor(t, "UTF-16", Strict)

	first, err := encoder.Encode("a")
	assert.NilError(t, err)
	assert.DeepEqual(t, first, []byte{0xfe, 0xff, 0x00, 'a'})

	second, err := encoder.Encode("b")
	assert.NilError(t, err)
	assert.DeepEqual(t, second, []byte{0x00, 'b'})

	tail, err := encoder.Finish()
	assert.NilError(t, err)
	assert.Equal(t, len(tail), 0)
}
