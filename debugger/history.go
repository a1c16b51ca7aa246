package debugger

import "sync"

// CommandHistory keeps the line-oriented CLI's recent command buffer, the
// same shape as the teacher's but without the separate Search/position
// navigation the arrow-key REPL needed — the TUI handles cursor history
// itself (spec.md never asks for readline-style editing).
type CommandHistory struct {
	mu       sync.RWMutex
	commands []string
	maxSize  int
}

func NewCommandHistory() *CommandHistory {
	return &CommandHistory{
		commands: make([]string, 0, 100),
		maxSize:  1000,
	}
}

// Add appends cmd, collapsing an immediate repeat of the last command.
func (h *CommandHistory) Add(cmd string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cmd == "" {
		return
	}
	if n := len(h.commands); n > 0 && h.commands[n-1] == cmd {
		return
	}

	h.commands = append(h.commands, cmd)
	if len(h.commands) > h.maxSize {
		h.commands = h.commands[len(h.commands)-h.maxSize:]
	}
}

// GetLast returns the most recently added command, or "".
func (h *CommandHistory) GetLast() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.commands) == 0 {
		return ""
	}
	return h.commands[len(h.commands)-1]
}

// GetAll returns a copy of every recorded command, oldest first.
func (h *CommandHistory) GetAll() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]string, len(h.commands))
	copy(result, h.commands)
	return result
}

func (h *CommandHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = h.commands[:0]
}

func (h *CommandHistory) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.commands)
}

// SetMaxSize changes the retained command cap, trimming the oldest entries if
// the history already exceeds it. Wired from config.Config.Debugger.HistorySize.
func (h *CommandHistory) SetMaxSize(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxSize = n
	if n > 0 && len(h.commands) > n {
		h.commands = h.commands[len(h.commands)-n:]
	}
}
