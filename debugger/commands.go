package debugger

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-lc3/lc3sim/assembler"
	"github.com/go-lc3/lc3sim/loader"
	"github.com/go-lc3/lc3sim/vm"
)

func (d *Debugger) cmdRun(args []string) error {
	d.VM.Run()
	if reason := d.afterStop(); reason != "" {
		d.Println(reason)
	}
	d.printStopLocation()
	return nil
}

func (d *Debugger) cmdContinue(args []string) error {
	return d.cmdRun(args)
}

func (d *Debugger) cmdStep(args []string) error {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	var res vm.CycleResult
	for i := 0; i < n; i++ {
		res = d.VM.StepIn()
	}
	_ = res
	d.printStopLocation()
	return nil
}

func (d *Debugger) cmdNext(args []string) error {
	d.VM.StepOver()
	if reason := d.afterStop(); reason != "" {
		d.Println(reason)
	}
	d.printStopLocation()
	return nil
}

func (d *Debugger) cmdFinish(args []string) error {
	d.VM.StepOut()
	if reason := d.afterStop(); reason != "" {
		d.Println(reason)
	}
	d.printStopLocation()
	return nil
}

func (d *Debugger) cmdBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: break <address|label>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr, false)
	d.Printf("breakpoint %d set at x%04X\n", bp.ID, bp.Address)
	return nil
}

func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tbreak <address|label>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr, true)
	d.Printf("temporary breakpoint %d set at x%04X\n", bp.ID, bp.Address)
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) != 1 {
		d.Breakpoints.Clear()
		d.Println("all breakpoints deleted")
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("usage: delete [id]")
	}
	if err := d.Breakpoints.Delete(id); err != nil {
		return err
	}
	d.Printf("breakpoint %d deleted\n", id)
	return nil
}

func (d *Debugger) cmdEnable(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: enable <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("usage: enable <id>")
	}
	return d.Breakpoints.Enable(id)
}

func (d *Debugger) cmdDisable(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: disable <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("usage: disable <id>")
	}
	return d.Breakpoints.Disable(id)
}

func (d *Debugger) cmdPrint(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: print <reg|address>")
	}
	tok := strings.ToUpper(args[0])
	if tok == "PC" {
		d.Printf("PC = x%04X\n", d.VM.CPU.PC)
		return nil
	}
	if tok == "PSR" {
		d.Printf("PSR = x%04X\n", d.VM.CPU.PSR.Encode())
		return nil
	}
	if len(tok) == 2 && tok[0] == 'R' && tok[1] >= '0' && tok[1] <= '7' {
		n := int(tok[1] - '0')
		d.Printf("R%d = x%04X (%d)\n", n, d.VM.CPU.R[n], int16(d.VM.CPU.R[n]))
		return nil
	}

	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	v := d.VM.Mem.ReadRaw(addr)
	d.Printf("x%04X: x%04X (%d)\n", addr, v, int16(v))
	return nil
}

func (d *Debugger) cmdExamine(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: x <address> [count]")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	count := 1
	if len(args) > 1 {
		if v, err := strconv.Atoi(args[1]); err == nil && v > 0 {
			count = v
		}
	}
	for i := 0; i < count; i++ {
		a := addr + uint16(i)
		v := d.VM.Mem.ReadRaw(a)
		line := d.SourceMap[a]
		if line != "" {
			d.Printf("x%04X: x%04X  %d  %s\n", a, v, int16(v), line)
		} else {
			d.Printf("x%04X: x%04X  %d\n", a, v, int16(v))
		}
	}
	return nil
}

func (d *Debugger) cmdInfo(args []string) error {
	topic := "registers"
	if len(args) > 0 {
		topic = args[0]
	}
	switch topic {
	case "registers", "reg", "regs":
		for i := 0; i < 8; i++ {
			d.Printf("R%d = x%04X (%d)\n", i, d.VM.CPU.R[i], int16(d.VM.CPU.R[i]))
		}
		d.Printf("PC  = x%04X\n", d.VM.CPU.PC)
		d.Printf("PSR = x%04X  mode=%s priority=%d N=%v Z=%v P=%v\n",
			d.VM.CPU.PSR.Encode(), modeString(d.VM.CPU.PSR.Mode), d.VM.CPU.PSR.Priority,
			d.VM.CPU.PSR.N, d.VM.CPU.PSR.Z, d.VM.CPU.PSR.P)
	case "breakpoints", "break":
		for _, bp := range d.Breakpoints.All() {
			d.Printf("%d: x%04X hits=%d temporary=%v\n", bp.ID, bp.Address, bp.HitCount, bp.Temporary)
		}
	default:
		return fmt.Errorf("unknown info topic: %s", topic)
	}
	return nil
}

func modeString(m vm.Mode) string {
	if m == vm.ModeUser {
		return "user"
	}
	return "supervisor"
}

func (d *Debugger) cmdList(args []string) error {
	center := d.VM.CPU.PC
	if len(args) > 0 {
		addr, err := d.ResolveAddress(args[0])
		if err != nil {
			return err
		}
		center = addr
	}
	const radius = 5
	start := center
	if int(start) > radius {
		start -= radius
	} else {
		start = 0
	}
	for a := start; a <= center+radius; a++ {
		marker := "  "
		if a == d.VM.CPU.PC {
			marker = "=>"
		}
		if line, ok := d.SourceMap[a]; ok {
			d.Printf("%s x%04X: %s\n", marker, a, line)
		}
		if a == 0xFFFF {
			break
		}
	}
	return nil
}

func (d *Debugger) cmdSet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <reg|address> <value>")
	}
	val, err := d.ResolveAddress(args[1])
	if err != nil {
		return fmt.Errorf("invalid value: %s", args[1])
	}

	tok := strings.ToUpper(args[0])
	if tok == "PC" {
		d.VM.CPU.PC = val
		return nil
	}
	if len(tok) == 2 && tok[0] == 'R' && tok[1] >= '0' && tok[1] <= '7' {
		d.VM.CPU.R[int(tok[1]-'0')] = val
		return nil
	}

	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	d.VM.Mem.WriteRaw(addr, val)
	return nil
}

func (d *Debugger) cmdLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <file.asm>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	img, sourceMap, symbols, err := assembler.Assemble(string(data), args[0])
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	if err := loader.LoadAndResetVM(d.VM, img); err != nil {
		return err
	}
	d.LoadSourceMap(sourceMap)
	d.LoadSymbols(symbols)
	d.Printf("loaded %s at x%04X (%d words)\n", args[0], img.Origin(), len(img.Program()))
	return nil
}

// cmdReset dispatches the four reset modes of spec.md section 4.2.6: reload
// (re-copy the last-loaded image and restore PSR defaults), restart (PC only),
// memory (zero everything, reload the built-in OS), and randomize (fill with
// random words, reload the built-in OS).
func (d *Debugger) cmdReset(args []string) error {
	mode := "reload"
	if len(args) > 0 {
		mode = args[0]
	}
	switch mode {
	case "reload":
		if d.VM.LastImage == nil {
			return fmt.Errorf("reset reload: no image has been loaded yet")
		}
		if err := loader.LoadAndResetVM(d.VM, d.VM.LastImage); err != nil {
			return err
		}
	case "restart":
		d.VM.Restart()
		return nil
	case "memory":
		d.VM.ResetMemory()
		d.VM.CPU.ResetDefaults()
	case "randomize", "randomise":
		d.VM.RandomizeMemory()
		d.VM.CPU.ResetDefaults()
	default:
		return fmt.Errorf("unknown reset mode: %s (expected reload, restart, memory, or randomize)", mode)
	}
	d.Breakpoints.Clear()
	return nil
}

func (d *Debugger) cmdHelp(args []string) error {
	d.Println("commands: run/continue, step [n], next, finish, break <addr>, tbreak <addr>,")
	d.Println("          delete [id], enable <id>, disable <id>, print <reg|addr>,")
	d.Println("          x <addr> [count], info registers|breakpoints, list [addr],")
	d.Println("          set <reg|addr> <value>, load <file>, reset [reload|restart|memory|randomize]")
	return nil
}

func (d *Debugger) printStopLocation() {
	pc := d.VM.CPU.PC
	if line, ok := d.SourceMap[pc]; ok {
		d.Printf("x%04X: %s\n", pc, line)
	} else {
		d.Printf("x%04X\n", pc)
	}
}
