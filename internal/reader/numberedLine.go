package reader

import (
	"github.com/walles/linefile/internal/linemetadata"
)

// A NumberedLine is a line of text plus its position in the input
type NumberedLine struct {
	Number linemetadata.Number
	Text   string
}

func (nl *NumberedLine) String() string {
	return nl.Number.Format() + ": " + nl.Text
}
