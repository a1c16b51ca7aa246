package api

import "time"

// SessionCreateResponse is returned from POST /api/v1/session.
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStatusResponse reports a session's current run state.
type SessionStatusResponse struct {
	SessionID string `json:"sessionId"`
	PC        uint16 `json:"pc"`
	Cycles    uint64 `json:"cycles"`
	Running   bool   `json:"running"`
}

// LoadProgramRequest carries assembly source text to assemble and load.
type LoadProgramRequest struct {
	Source string `json:"source"`
}

// LoadProgramResponse reports the outcome of an assemble+load.
type LoadProgramResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Origin  uint16            `json:"origin,omitempty"`
	Symbols map[string]uint16 `json:"symbols,omitempty"`
}

// RegistersResponse is the current CPU register file (spec.md section 3).
type RegistersResponse struct {
	R        [8]uint16 `json:"r"`
	PC       uint16    `json:"pc"`
	PSR      uint16    `json:"psr"`
	Mode     string    `json:"mode"`
	Priority uint8     `json:"priority"`
	N        bool      `json:"n"`
	Z        bool      `json:"z"`
	P        bool      `json:"p"`
	Cycles   uint64    `json:"cycles"`
}

// MemoryRequest describes a read range for GET .../memory.
type MemoryRequest struct {
	Address uint16 `json:"address"`
	Length  uint16 `json:"length"`
}

// MemoryResponse is a raw word range read back from memory.
type MemoryResponse struct {
	Address uint16   `json:"address"`
	Words   []uint16 `json:"words"`
}

// DisassemblyRequest describes a disassembly range.
type DisassemblyRequest struct {
	Address uint16 `json:"address"`
	Count   uint16 `json:"count"`
}

// InstructionInfo is a single disassembled word.
type InstructionInfo struct {
	Address     uint16 `json:"address"`
	Word        uint16 `json:"word"`
	Disassembly string `json:"disassembly"`
}

// DisassemblyResponse is a run of disassembled instructions.
type DisassemblyResponse struct {
	Instructions []InstructionInfo `json:"instructions"`
}

// BreakpointRequest adds or removes a breakpoint at an address.
type BreakpointRequest struct {
	Address   uint16 `json:"address"`
	Temporary bool   `json:"temporary,omitempty"`
}

// BreakpointsResponse lists the currently set breakpoints.
type BreakpointsResponse struct {
	Breakpoints []BreakpointInfo `json:"breakpoints"`
}

// BreakpointInfo mirrors debugger.Breakpoint for the wire.
type BreakpointInfo struct {
	ID        int    `json:"id"`
	Address   uint16 `json:"address"`
	Temporary bool   `json:"temporary"`
	HitCount  int    `json:"hitCount"`
}

// KeyboardRequest delivers ASCII bytes from a remote client's keyboard
// (spec.md section 1's "keyboard source").
type KeyboardRequest struct {
	Data string `json:"data"`
}

// ErrorResponse is the JSON body written on any non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse is a simple acknowledgement body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
