package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the full-screen front end over a Debugger: a source/register/memory/
// breakpoints layout redrawn after every command, the same panel-and-command-
// input shape the teacher's tcell/tview debugger uses. Grounded on
// debugger/tui.go, trimmed from six panels to four — LC-3 has no separate
// disassembly pass (the source map already carries the assembled mnemonic
// text) and no call stack worth a dedicated pane at this scale.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex

	SourceView      *tview.TextView
	RegisterView    *tview.TextView
	MemoryView      *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress uint16
}

func NewTUI(d *Debugger) *TUI {
	t := &TUI{
		Debugger: d,
		App:      tview.NewApplication(),
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.SourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 10, 0, false).
		AddItem(t.MemoryView, 0, 2, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.SourceView, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF9:
			t.executeCommand("break")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd != "" {
		t.executeCommand(cmd)
		t.CommandInput.SetText("")
	}
}

func (t *TUI) executeCommand(cmd string) {
	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}
	t.RefreshAll()
}

func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

func (t *TUI) RefreshAll() {
	t.updateSourceView()
	t.updateRegisterView()
	t.updateMemoryView()
	t.updateBreakpointsView()
	t.App.Draw()
}

func (t *TUI) updateSourceView() {
	t.SourceView.Clear()
	if len(t.Debugger.SourceMap) == 0 {
		t.SourceView.SetText("[yellow]no program loaded[white]")
		return
	}

	pc := t.Debugger.VM.CPU.PC
	var start uint16
	if pc > 10 {
		start = pc - 10
	}

	var lines []string
	for addr := start; addr < start+40 && addr != 0xFFFF; addr++ {
		line, ok := t.Debugger.SourceMap[addr]
		if !ok {
			continue
		}
		marker, color := "  ", "white"
		if addr == pc {
			marker, color = "->", "yellow"
		}
		if t.Debugger.Breakpoints.Get(addr) != nil {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("[%s]%s x%04X: %s[white]", color, marker, addr, line))
	}
	t.SourceView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateRegisterView() {
	t.RegisterView.Clear()
	cpu := t.Debugger.VM.CPU

	var lines []string
	for row := 0; row < 2; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			reg := row*4 + col
			cols = append(cols, fmt.Sprintf("R%d: x%04X", reg, cpu.R[reg]))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("PC: x%04X   PSR: x%04X", cpu.PC, cpu.PSR.Encode()))

	flags := flagGlyph(cpu.PSR.N, "N", "n") + flagGlyph(cpu.PSR.Z, "Z", "z") + flagGlyph(cpu.PSR.P, "P", "p")
	lines = append(lines, fmt.Sprintf("mode: %s  priority: %d  flags: %s", modeString(cpu.PSR.Mode), cpu.PSR.Priority, flags))
	lines = append(lines, fmt.Sprintf("cycles: %d", cpu.Cycles))

	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func flagGlyph(set bool, upper, lower string) string {
	if set {
		return upper
	}
	return lower
}

func (t *TUI) updateMemoryView() {
	t.MemoryView.Clear()

	addr := t.MemoryAddress
	if addr == 0 {
		addr = t.Debugger.VM.CPU.PC
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]address: x%04X[white]", addr))
	for row := 0; row < 16; row++ {
		rowAddr := addr + uint16(row*8)
		var words []string
		for col := 0; col < 8; col++ {
			words = append(words, fmt.Sprintf("%04X", t.Debugger.VM.Mem.ReadRaw(rowAddr+uint16(col))))
		}
		lines = append(lines, fmt.Sprintf("x%04X: %s", rowAddr, strings.Join(words, " ")))
	}
	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateBreakpointsView() {
	t.BreakpointsView.Clear()
	var lines []string
	for _, bp := range t.Debugger.Breakpoints.All() {
		tag := ""
		if bp.Temporary {
			tag = " (temp)"
		}
		lines = append(lines, fmt.Sprintf("%d: x%04X hits=%d%s", bp.ID, bp.Address, bp.HitCount, tag))
	}
	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the full-screen TUI; it blocks until the user quits.
func (t *TUI) Run() error {
	t.RefreshAll()
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}
