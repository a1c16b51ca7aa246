package debugger

import (
	"fmt"
	"sync"

	"github.com/go-lc3/lc3sim/vm"
)

// Breakpoint is a single address the debugger should pause execution at.
// Unlike the teacher's, there is no Condition field: spec.md's inspection API
// (section 4.2.5) only describes add/remove/clear, with no expression
// language to evaluate against (see DESIGN.md for the dropped expr_* files).
type Breakpoint struct {
	ID        int
	Address   uint16
	Temporary bool // auto-deleted after its first hit
	HitCount  int
}

// BreakpointManager tracks breakpoint metadata (ID, hit counts, temporary
// flag) and keeps the VM's own address set (vm.VM.Breakpoints, which Run
// consults directly) in sync with it.
type BreakpointManager struct {
	mu          sync.RWMutex
	machine     *vm.VM
	breakpoints map[uint16]*Breakpoint
	nextID      int
}

func NewBreakpointManager(machine *vm.VM) *BreakpointManager {
	return &BreakpointManager{
		machine:     machine,
		breakpoints: make(map[uint16]*Breakpoint),
		nextID:      1,
	}
}

// Add creates or replaces the breakpoint at address and enables it in the VM.
func (bm *BreakpointManager) Add(address uint16, temporary bool) *Breakpoint {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bp, exists := bm.breakpoints[address]; exists {
		bp.Temporary = temporary
		bm.machine.Breakpoints[address] = true
		return bp
	}

	bp := &Breakpoint{ID: bm.nextID, Address: address, Temporary: temporary}
	bm.breakpoints[address] = bp
	bm.nextID++
	bm.machine.Breakpoints[address] = true
	return bp
}

// Delete removes a breakpoint by ID.
func (bm *BreakpointManager) Delete(id int) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for addr, bp := range bm.breakpoints {
		if bp.ID == id {
			delete(bm.breakpoints, addr)
			delete(bm.machine.Breakpoints, addr)
			return nil
		}
	}
	return fmt.Errorf("breakpoint %d not found", id)
}

// Enable re-arms a previously disabled breakpoint.
func (bm *BreakpointManager) Enable(id int) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	for addr, bp := range bm.breakpoints {
		if bp.ID == id {
			bm.machine.Breakpoints[addr] = true
			return nil
		}
	}
	return fmt.Errorf("breakpoint %d not found", id)
}

// Disable removes the address from the VM's active set but keeps the
// metadata, so it can be re-enabled later without losing its ID/hit count.
func (bm *BreakpointManager) Disable(id int) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	for addr, bp := range bm.breakpoints {
		if bp.ID == id {
			delete(bm.machine.Breakpoints, addr)
			return nil
		}
	}
	return fmt.Errorf("breakpoint %d not found", id)
}

// Get returns the breakpoint at address, or nil.
func (bm *BreakpointManager) Get(address uint16) *Breakpoint {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.breakpoints[address]
}

// GetByID returns the breakpoint with the given ID, or nil.
func (bm *BreakpointManager) GetByID(id int) *Breakpoint {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	for _, bp := range bm.breakpoints {
		if bp.ID == id {
			return bp
		}
	}
	return nil
}

// All returns every known breakpoint, in no particular order.
func (bm *BreakpointManager) All() []*Breakpoint {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	result := make([]*Breakpoint, 0, len(bm.breakpoints))
	for _, bp := range bm.breakpoints {
		result = append(result, bp)
	}
	return result
}

// Clear removes every breakpoint, from both the manager and the VM.
func (bm *BreakpointManager) Clear() {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.breakpoints = make(map[uint16]*Breakpoint)
	bm.machine.Breakpoints = make(map[uint16]bool)
}

// RecordHit bumps the hit count for the breakpoint at address (called after
// VM.Run/StepOver/StepOut return with the PC sitting on a breakpoint) and
// deletes it if it was temporary. Returns nil if address isn't a breakpoint.
func (bm *BreakpointManager) RecordHit(address uint16) *Breakpoint {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	bp, exists := bm.breakpoints[address]
	if !exists {
		return nil
	}
	bp.HitCount++
	result := *bp
	if bp.Temporary {
		delete(bm.breakpoints, address)
		delete(bm.machine.Breakpoints, address)
	}
	return &result
}
