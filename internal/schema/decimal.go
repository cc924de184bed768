package schema

import (
	"strconv"
	"strings"

	"main/pkg/exception"
)

// ParseScaled converts a decimal text like "42000.5" into a scaled integer
// at the given scale. Excess fractional digits are rejected rather than
// silently truncated.
func ParseScaled(text string, scale Scale) (int64, error) {
	if text == "" {
		return 0, exception.ErrInvalidArgument
	}

	neg := false
	switch text[0] {
	case '-':
		neg = true
		text = text[1:]
	case '+':
		text = text[1:]
	}
	if text == "" {
		return 0, exception.ErrInvalidArgument
	}

	intPart := text
	fracPart := ""
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		intPart, fracPart = text[:idx], text[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > int(scale) {
		return 0, exception.ErrInvalidArgument
	}

	digits := intPart + fracPart + strings.Repeat("0", int(scale)-len(fracPart))
	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, exception.ErrInvalidArgument
	}
	if neg {
		value = -value
	}
	return value, nil
}

// AppendScaled renders a scaled integer as decimal text into buf.
func AppendScaled(buf []byte, value int64, scale Scale) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

	neg := value < 0
	u := uint64(value)
	if neg {
		u = uint64(^value) + 1
	}

	var tmp [32]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}

	if len(digits) <= int(scale) {
		buf = append(buf, '0', '.')
		for i := 0; i < int(scale)-len(digits); i++ {
			buf = append(buf, '0')
		}
		return append(buf, digits...)
	}

	idx := len(digits) - int(scale)
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	return append(buf, digits[idx:]...)
}
