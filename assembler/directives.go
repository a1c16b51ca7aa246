package assembler

import "fmt"

// directiveResult is what handleDirective hands back to pass one.
type directiveResult struct {
	words     []uint16 // words to emit at the current offset
	fixups    []*Fixup // fixups against those words, if any reference a label
	terminate bool     // never set: .end is handled by Assemble, not handleDirective
}

// handleDirective processes one of .fill/.blkw/.stringz (.orig and .end are handled
// by the caller directly, since they don't fit the emit-N-words shape). offset is
// the image offset at which this directive's words will be placed.
func handleDirective(name string, ops []string, offset int, lineNum int, raw string) (directiveResult, error) {
	switch name {
	case ".fill":
		return encodeFill(ops[0], offset, lineNum, raw)
	case ".blkw":
		return encodeBlkw(ops, offset, lineNum, raw)
	case ".stringz":
		return encodeStringz(ops[0])
	}
	return directiveResult{}, fmt.Errorf("unsupported directive: %s", name)
}

func encodeFill(tok string, offset int, lineNum int, raw string) (directiveResult, error) {
	if isImmediateToken(tok) {
		val, err := parseFillWord(tok)
		if err != nil {
			return directiveResult{}, err
		}
		return directiveResult{words: []uint16{val}}, nil
	}
	fx := &Fixup{Kind: FixupFillLabel, Label: tok, Offset: offset, Count: 1, Line: lineNum, Source: raw}
	return directiveResult{words: []uint16{0}, fixups: []*Fixup{fx}}, nil
}

// encodeBlkw implements ".blkw N" or ".blkw N L". Per spec.md's design notes, a
// label operand fills *all* N words with the label's absolute address — preserved
// verbatim even though it reads oddly, rather than silently reinterpreted as
// "fill with label, then N-1 zeros".
func encodeBlkw(ops []string, offset int, lineNum int, raw string) (directiveResult, error) {
	count, err := parseImmediate(ops[0], false, 32)
	if err != nil {
		return directiveResult{}, fmt.Errorf("invalid .blkw count: %s", ops[0])
	}
	if count < 0 || count > 0xFFFF {
		return directiveResult{}, fmt.Errorf(".blkw count out of range: %s", ops[0])
	}
	words := make([]uint16, count)

	if len(ops) == 1 {
		return directiveResult{words: words}, nil
	}

	label := ops[1]
	var fixups []*Fixup
	if isImmediateToken(label) {
		val, err := parseFillWord(label)
		if err != nil {
			return directiveResult{}, err
		}
		for i := range words {
			words[i] = val
		}
		return directiveResult{words: words}, nil
	}

	fx := &Fixup{Kind: FixupBlkwLabel, Label: label, Offset: offset, Count: int(count), Line: lineNum, Source: raw}
	fixups = append(fixups, fx)
	return directiveResult{words: words, fixups: fixups}, nil
}

func encodeStringz(tok string) (directiveResult, error) {
	str, err := parseStringLiteral(tok)
	if err != nil {
		return directiveResult{}, err
	}
	words := make([]uint16, 0, len(str)+1)
	for i := 0; i < len(str); i++ {
		words = append(words, uint16(str[i]))
	}
	words = append(words, 0)
	return directiveResult{words: words}, nil
}

// parseFillWord parses a .fill/.blkw literal: decimal may be signed (wraps into
// 16 bits two's-complement), hex/binary are unsigned bit patterns. A value that
// doesn't fit in 16 bits either way is an "exceeds 16 bits" diagnostic.
func parseFillWord(tok string) (uint16, error) {
	signed := !looksLikeHexOrBinary(tok)
	width := uint(16)
	if signed {
		v, err := parseImmediate(tok, true, width)
		if err != nil {
			return 0, fmt.Errorf("value exceeds 16 bits: %s", tok)
		}
		return uint16(uint64(v) & 0xFFFF), nil
	}
	v, err := parseImmediate(tok, false, width)
	if err != nil {
		return 0, fmt.Errorf("value exceeds 16 bits: %s", tok)
	}
	return uint16(v), nil
}

func looksLikeHexOrBinary(tok string) bool {
	if len(tok) == 0 {
		return false
	}
	lower := tok
	if lower[0] == 'x' && len(lower) > 1 && isHexBody(lower[1:]) {
		return true
	}
	if lower[0] == 'b' && len(lower) > 1 && isBinaryBody(lower[1:]) {
		return true
	}
	return false
}
