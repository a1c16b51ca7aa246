package assembler

import (
	"fmt"
	"strconv"
	"strings"
)

// registerNumber returns the register index for tokens like "r0".."r7".
func registerNumber(tok string) (int, bool) {
	tok = strings.ToLower(tok)
	if len(tok) != 2 || tok[0] != 'r' {
		return 0, false
	}
	n := int(tok[1] - '0')
	if n < 0 || n > 7 {
		return 0, false
	}
	return n, true
}

// isRegister reports whether tok looks like a register operand.
func isRegister(tok string) bool {
	_, ok := registerNumber(tok)
	return ok
}

// parseImmediate parses an immediate operand in any of the forms spec.md section
// 4.1.1 describes: "#<decimal>", "x<hex>", "b<binary>", or bare decimal. signed
// controls whether the literal is range-checked as two's complement or unsigned;
// width is the field width in bits the value must fit.
func parseImmediate(tok string, signed bool, width uint) (int64, error) {
	if tok == "" {
		return 0, fmt.Errorf("empty operand")
	}

	neg := false
	body := tok
	base := 10

	switch {
	case strings.HasPrefix(body, "#"):
		body = body[1:]
	case strings.HasPrefix(strings.ToLower(body), "x"):
		body = body[1:]
		base = 16
	case strings.HasPrefix(strings.ToLower(body), "b") && isBinaryBody(body[1:]):
		body = body[1:]
		base = 2
	}

	if base == 10 && strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	} else if base == 10 && strings.HasPrefix(body, "+") {
		body = body[1:]
	}

	if body == "" {
		return 0, fmt.Errorf("invalid immediate: %q", tok)
	}

	val, err := strconv.ParseUint(body, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate: %q", tok)
	}

	v := int64(val)
	if neg {
		v = -v
	}

	if signed {
		lo := -(int64(1) << (width - 1))
		hi := (int64(1) << (width - 1)) - 1
		if v < lo || v > hi {
			return 0, fmt.Errorf("immediate out of range: %s (must fit in %d signed bits)", tok, width)
		}
	} else {
		hi := (int64(1) << width) - 1
		if v < 0 || v > hi {
			return 0, fmt.Errorf("immediate out of range: %s (must fit in %d unsigned bits)", tok, width)
		}
	}

	return v, nil
}

// isBinaryBody reports whether s looks like a run of binary digits, used to
// disambiguate a leading 'b' immediate from a label that happens to start with 'b'.
func isBinaryBody(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return false
		}
	}
	return true
}

// isImmediateToken reports whether tok is recognisable as an immediate rather than
// a label, without validating range.
func isImmediateToken(tok string) bool {
	if tok == "" {
		return false
	}
	if strings.HasPrefix(tok, "#") {
		return true
	}
	lower := strings.ToLower(tok)
	if strings.HasPrefix(lower, "x") && len(lower) > 1 && isHexBody(lower[1:]) {
		return true
	}
	if strings.HasPrefix(lower, "b") && isBinaryBody(lower[1:]) {
		return true
	}
	if _, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return true
	}
	return false
}

func isHexBody(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 16, 64)
	return err == nil
}

// parseStringLiteral strips the surrounding quotes from a .STRINGZ operand and
// processes standard backslash escapes (\n \t \\ \").
func parseStringLiteral(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", tok)
	}
	body := tok[1 : len(tok)-1]

	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '0':
				sb.WriteByte(0)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(body[i])
			}
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String(), nil
}
