package assembler

import (
	"fmt"
	"strings"
)

// Assemble runs the two-pass assembler described in spec.md section 4.1 over
// source text. On success it returns the object image, the address->source
// map, and the label table resolved to absolute addresses (origin + offset);
// on any diagnostic it returns a nil image and the accumulated diagnostics as
// the error (spec.md section 7: "any diagnostic at all causes assemble to
// yield no object image").
func Assemble(source, filename string) (*Image, SourceMap, map[string]uint16, error) {
	diags := &DiagnosticList{}

	lines := splitSourceLines(source)
	if allBlank(lines) {
		diags.Add(&Diagnostic{Kind: DiagEmptySource, Line: 0, Message: "empty source"})
		return nil, nil, nil, diags
	}

	st := NewSymbolTable()
	words := make([]uint16, 0, 256)
	sourceMap := make(SourceMap)
	var fixups []*Fixup

	var origin uint16
	pc := 0

	seenFirstLine := false

	for i, raw := range lines {
		lineNum := i + 1
		canon := canonicalLine(raw)
		folded := foldCase(canon)
		if folded == "" {
			continue
		}

		tokens := tokenizeLine(folded)
		if len(tokens) == 0 {
			continue
		}

		if !seenFirstLine {
			seenFirstLine = true
			if tokens[0] != ".orig" {
				diags.Add(&Diagnostic{
					Kind: DiagMissingOrig, Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
					Message: "first line must be .ORIG",
				})
				return nil, nil, nil, diags
			}
		}

		idx := 0
		var label string
		if !isMnemonicOrDirective(tokens[0]) {
			label = tokens[0]
			idx = 1
			if err := st.Define(label, pc); err != nil {
				diags.Add(&Diagnostic{
					Kind: DiagDuplicateLabel, Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
					Message: err.Error(),
				})
			}
		}

		remainder := tokens[idx:]
		if len(remainder) == 0 {
			continue
		}

		first := remainder[0]
		ops := remainder[1:]

		if first == ".orig" {
			if len(ops) != 1 {
				diags.Add(&Diagnostic{Kind: DiagBadOperandCount, Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
					Message: "bad operand count for .ORIG"})
				continue
			}
			val, err := parseImmediate(ops[0], false, 16)
			if err != nil {
				diags.Add(&Diagnostic{Kind: DiagImmediateOutOfRange, Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
					Message: err.Error()})
				continue
			}
			origin = uint16(val)
			continue
		}

		if first == ".end" {
			break
		}

		if directives[first] {
			wantCount := operandCounts[first]
			if first == ".blkw" {
				if len(ops) != 1 && len(ops) != 2 {
					diags.Add(&Diagnostic{Kind: DiagBadOperandCount, Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
						Message: "bad operand count for .BLKW"})
					continue
				}
			} else if len(ops) != wantCount {
				diags.Add(&Diagnostic{Kind: DiagBadOperandCount, Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
					Message: fmt.Sprintf("bad operand count for %s: expected %d, got %d", strings.ToUpper(first), wantCount, len(ops))})
				continue
			}

			res, err := handleDirective(first, ops, pc, lineNum, raw)
			if err != nil {
				diags.Add(&Diagnostic{Kind: classifyDirectiveError(err), Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
					Message: err.Error()})
				continue
			}
			words = append(words, res.words...)
			fixups = append(fixups, res.fixups...)
			pc += len(res.words)
			continue
		}

		// Instruction.
		mnemonic := first
		wantCount, known := operandCounts[mnemonic]
		if isBRMnemonic(mnemonic) {
			wantCount, known = 1, true
		}
		if !known {
			diags.Add(&Diagnostic{Kind: DiagUnknownMnemonic, Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
				Message: fmt.Sprintf("unknown mnemonic: %s", mnemonic)})
			continue
		}
		if len(ops) != wantCount {
			diags.Add(&Diagnostic{Kind: DiagBadOperandCount, Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
				Message: fmt.Sprintf("bad operand count for %s: expected %d, got %d", strings.ToUpper(mnemonic), wantCount, len(ops))})
			continue
		}

		res, err := encodeInstruction(mnemonic, ops, pc, lineNum, strings.TrimSpace(raw))
		if err != nil {
			diags.Add(&Diagnostic{Kind: DiagImmediateOutOfRange, Line: lineNum, Source: strings.TrimSpace(raw), File: filename,
				Message: err.Error()})
			// Still advance: an instruction that failed encoding for a bad
			// immediate still occupies a word, so later labels resolve correctly.
			words = append(words, 0)
			pc++
			continue
		}

		words = append(words, res.word)
		if res.fixup != nil {
			fixups = append(fixups, res.fixup)
		}
		sourceMap[origin+uint16(pc)] = strings.TrimSpace(raw)
		pc++
	}

	if diags.HasErrors() {
		return nil, nil, nil, diags
	}

	// Pass two: resolve fixups.
	for _, fx := range fixups {
		resolveFixup(fx, st, origin, words, diags, filename)
	}

	if diags.HasErrors() {
		return nil, nil, nil, diags
	}

	img := &Image{Words: make([]uint16, 0, len(words)+1)}
	img.Words = append(img.Words, origin)
	img.Words = append(img.Words, words...)

	symbols := make(map[string]uint16, len(st.All()))
	for name, offset := range st.All() {
		symbols[name] = origin + uint16(offset)
	}

	return img, sourceMap, symbols, nil
}

func resolveFixup(fx *Fixup, st *SymbolTable, origin uint16, words []uint16, diags *DiagnosticList, filename string) {
	labelOffset, ok := st.Lookup(fx.Label)
	if !ok {
		diags.Add(&Diagnostic{Kind: DiagUndefinedLabel, Line: fx.Line, Source: fx.Source, File: filename,
			Message: fmt.Sprintf("undefined label: %s", fx.Label)})
		return
	}

	switch fx.Kind {
	case FixupFillLabel:
		words[fx.Offset] = origin + uint16(labelOffset)

	case FixupBlkwLabel:
		addr := origin + uint16(labelOffset)
		for i := 0; i < fx.Count; i++ {
			words[fx.Offset+i] = addr
		}

	case FixupInstrOffset9, FixupInstrOffset11:
		width := uint(9)
		if fx.Kind == FixupInstrOffset11 {
			width = 11
		}
		// The "+1" accounts for the PC increment that precedes effective-address
		// computation (spec.md section 4.1.3).
		dist := labelOffset - (fx.Offset + 1)
		lo := -(1 << (width - 1))
		hi := (1 << (width - 1)) - 1
		if dist < lo || dist > hi {
			diags.Add(&Diagnostic{Kind: DiagOffsetTooLarge, Line: fx.Line, Source: fx.Source, File: filename,
				Message: fmt.Sprintf("offset too large for field: %s (distance %d does not fit in %d bits)", fx.Label, dist, width)})
			return
		}
		words[fx.Offset] |= uint16(dist) & mask(width)
	}
}

func classifyDirectiveError(err error) DiagnosticKind {
	msg := err.Error()
	if strings.Contains(msg, "exceeds 16 bits") {
		return DiagValueTooLarge
	}
	if strings.Contains(msg, "out of range") {
		return DiagImmediateOutOfRange
	}
	return DiagSyntax
}

func allBlank(lines []string) bool {
	for _, l := range lines {
		if canonicalLine(l) != "" {
			return false
		}
	}
	return true
}
