package assembler

import (
	"fmt"
	"strings"
)

// DiagnosticKind categorizes the kind of problem a diagnostic reports.
type DiagnosticKind int

const (
	DiagUnknownMnemonic DiagnosticKind = iota
	DiagBadOperandCount
	DiagImmediateOutOfRange
	DiagUndefinedLabel
	DiagOffsetTooLarge
	DiagValueTooLarge
	DiagMissingOrig
	DiagEmptySource
	DiagDuplicateLabel
	DiagSyntax
)

// Diagnostic carries a line number, the rendered source line, and a human message,
// per spec.md section 4.1.5.
type Diagnostic struct {
	Kind    DiagnosticKind
	Line    int
	Source  string
	File    string
	Message string
}

// Error renders the diagnostic the way spec.md section 6.5 specifies:
// "<file>:<line>: <message>\n\t<source>"
func (d *Diagnostic) Error() string {
	var sb strings.Builder
	file := d.File
	if file == "" {
		file = "asm"
	}
	sb.WriteString(fmt.Sprintf("%s:%d: %s\n", file, d.Line, d.Message))
	if d.Source != "" {
		sb.WriteString(fmt.Sprintf("\t%s\n", d.Source))
	}
	return sb.String()
}

// DiagnosticList collects every diagnostic raised during assembly. Assembly never
// stops at the first error (spec.md section 7): diagnostics accumulate per line.
type DiagnosticList struct {
	Items []*Diagnostic
}

func (dl *DiagnosticList) Add(d *Diagnostic) {
	dl.Items = append(dl.Items, d)
}

func (dl *DiagnosticList) HasErrors() bool {
	return len(dl.Items) > 0
}

func (dl *DiagnosticList) Error() string {
	var sb strings.Builder
	for _, d := range dl.Items {
		sb.WriteString(d.Error())
	}
	return sb.String()
}
