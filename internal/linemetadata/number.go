package linemetadata

import (
	"fmt"
	"math"

	"github.com/walles/linefile/internal/util"
)

// Number is the position of a line in its stream. Lines are counted from the
// start of the stream, including lines the reader later decides not to yield.
//
// The zero value is the first line.
type Number struct {
	number int
}

func (l Number) AsOneBased() int {
	if l.number == math.MaxInt {
		return math.MaxInt
	}

	return l.number + 1
}

func (l Number) AsZeroBased() int {
	return l.number
}

func NumberFromOneBased(oneBased int) Number {
	if oneBased < 1 {
		panic(fmt.Errorf("one-based line numbers must be at least 1, got %d", oneBased))
	}
	return Number{number: oneBased - 1}
}

// The number of the line following this one. Saturates at the highest possible
// line number rather than wrapping.
func (l Number) Next() Number {
	if l.number == math.MaxInt {
		return l
	}
	return Number{number: l.number + 1}
}

// "1", "2", ... "10_000"
func (l Number) Format() string {
	return util.FormatInt(l.AsOneBased())
}

func (l Number) String() string {
	return l.Format()
}
