package tools_test

import (
	"strings"
	"testing"

	"github.com/go-lc3/lc3sim/tools"
	"github.com/stretchr/testify/assert"
)

func TestFormatSymbolTable_SortsByAddress(t *testing.T) {
	out := tools.FormatSymbolTable(map[string]uint16{
		"loop":  0x3005,
		"start": 0x3000,
		"end":   0x300A,
	})

	startIdx := strings.Index(out, "start")
	loopIdx := strings.Index(out, "loop")
	endIdx := strings.Index(out, "end")
	assert.True(t, startIdx < loopIdx)
	assert.True(t, loopIdx < endIdx)
	assert.Contains(t, out, "x3000")
	assert.Contains(t, out, "x3005")
	assert.Contains(t, out, "x300A")
}

func TestFormatSymbolTable_EmptyTableStillHasHeader(t *testing.T) {
	out := tools.FormatSymbolTable(map[string]uint16{})
	assert.Contains(t, out, "SYMBOL")
	assert.Contains(t, out, "ADDRESS")
}
