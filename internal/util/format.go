package util

import (
	"strconv"
	"strings"
)

// Formats a number into a string with _ between each three-group of digits, for
// numbers >= 10_000.
//
// Regarding the >= 10_000 exception:
// https://en.wikipedia.org/wiki/Decimal_separator#Exceptions_to_digit_grouping
func FormatInt(number int) string {
	digits := strconv.Itoa(number)
	if number > -10_000 && number < 10_000 {
		return digits
	}

	sign := ""
	if number < 0 {
		sign = "-"
		digits = digits[1:]
	}

	var result strings.Builder
	result.WriteString(sign)

	// Length of the leading group, 1-3 digits
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	result.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		result.WriteByte('_')
		result.WriteString(digits[i : i+3])
	}

	return result.String()
}
