package assembler

import "strings"

// canonicalLine strips a trailing comment (everything from ';' to end of line,
// outside double quotes) and trims surrounding whitespace. It does not change
// letter case.
func canonicalLine(raw string) string {
	line := stripComment(raw)
	return strings.TrimSpace(line)
}

// stripComment removes a ';'-introduced comment, but only outside double quotes.
func stripComment(raw string) string {
	inQuotes := false
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '"':
			inQuotes = !inQuotes
		case ';':
			if !inQuotes {
				return raw[:i]
			}
		}
	}
	return raw
}

// tokenizeLine splits a canonicalised line on whitespace and commas into tokens,
// preserving a double-quoted string (for .STRINGZ) as a single token.
func tokenizeLine(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case inQuotes:
			cur.WriteByte(c)
		case c == ' ' || c == '\t' || c == ',':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

// splitSourceLines splits source text into lines on any run of line terminators,
// per spec.md section 4.1.1.
func splitSourceLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	return strings.Split(source, "\n")
}

// foldCase lower-cases everything in a line except the contents of a .STRINGZ
// string literal, which must preserve case.
func foldCase(line string) string {
	var sb strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '"' {
			inQuotes = !inQuotes
			sb.WriteByte(c)
			continue
		}
		if inQuotes {
			sb.WriteByte(c)
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
