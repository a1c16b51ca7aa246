package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-lc3/lc3sim/vm"
)

// Debugger is the line-oriented front end over a vm.VM: it owns breakpoint
// metadata, history, and symbol/source-map lookups, and translates typed
// commands into calls on the VM's own Run/StepIn/StepOver/StepOut (spec.md
// section 4.2.4) and inspection API (section 4.2.5). The stepping/depth
// logic itself lives in vm.VM, not here — see DESIGN.md.
type Debugger struct {
	VM *vm.VM

	Breakpoints *BreakpointManager
	History     *CommandHistory

	Symbols   map[string]uint16
	SourceMap map[uint16]string

	LastCommand string
	Output      strings.Builder
}

func NewDebugger(machine *vm.VM) *Debugger {
	return &Debugger{
		VM:          machine,
		Breakpoints: NewBreakpointManager(machine),
		History:     NewCommandHistory(),
		Symbols:     make(map[string]uint16),
		SourceMap:   make(map[uint16]string),
	}
}

// LoadSymbols installs the assembler's label table for ResolveAddress.
func (d *Debugger) LoadSymbols(symbols map[string]uint16) {
	d.Symbols = symbols
}

// LoadSourceMap installs the assembler's address->source-line map.
func (d *Debugger) LoadSourceMap(sourceMap map[uint16]string) {
	d.SourceMap = sourceMap
}

// ResolveAddress resolves a label to its address, or parses a numeric one
// ("x3000", "3000", "#12288").
func (d *Debugger) ResolveAddress(tok string) (uint16, error) {
	if addr, ok := d.Symbols[strings.ToLower(tok)]; ok {
		return addr, nil
	}

	body := tok
	base := 10
	switch {
	case strings.HasPrefix(body, "#"):
		body = body[1:]
	case strings.HasPrefix(strings.ToLower(body), "x"):
		body = body[1:]
		base = 16
	}
	v, err := strconv.ParseUint(body, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address or unknown label: %s", tok)
	}
	return uint16(v), nil
}

// ExecuteCommand parses and runs one line of debugger input.
func (d *Debugger) ExecuteCommand(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		line = d.LastCommand
	}
	if line != "" {
		d.History.Add(line)
		d.LastCommand = line
	}

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)
	case "finish", "fin":
		return d.cmdFinish(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "x", "examine":
		return d.cmdExamine(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "list", "l":
		return d.cmdList(args)

	case "set":
		return d.cmdSet(args)

	case "load":
		return d.cmdLoad(args)
	case "reset":
		return d.cmdReset(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// GetOutput returns and clears everything printed since the last call.
func (d *Debugger) GetOutput() string {
	out := d.Output.String()
	d.Output.Reset()
	return out
}

func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

func (d *Debugger) Println(args ...interface{}) {
	fmt.Fprintln(&d.Output, args...)
}

// afterStop reports a breakpoint hit, if the VM is currently sitting on one,
// and returns a short reason string for the caller to print.
func (d *Debugger) afterStop() string {
	if bp := d.Breakpoints.RecordHit(d.VM.CPU.PC); bp != nil {
		return fmt.Sprintf("breakpoint %d at x%04X", bp.ID, bp.Address)
	}
	if !d.VM.Mem.ClockEnabled() {
		return "clock disabled"
	}
	return ""
}
