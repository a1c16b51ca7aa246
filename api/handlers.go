package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-lc3/lc3sim/assembler"
	"github.com/go-lc3/lc3sim/loader"
	"github.com/go-lc3/lc3sim/tools"
	"github.com/go-lc3/lc3sim/vm"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseHexOrDec accepts "x3000"-style and bare-decimal address strings, two of
// the numeric forms debugger.Debugger.ResolveAddress accepts.
func parseHexOrDec(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "x") {
		return strconv.ParseUint(s[1:], 16, 16)
	}
	return strconv.ParseUint(s, 10, 16)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.CreateSession()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create session: %v", err))
		return
	}
	writeJSON(w, http.StatusCreated, SessionCreateResponse{SessionID: session.ID, CreatedAt: session.CreatedAt})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.ListSessions()
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": ids, "count": len(ids)})
}

func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, SessionStatusResponse{
		SessionID: sessionID,
		PC:        session.VM.CPU.PC,
		Cycles:    session.VM.CPU.Cycles,
		Running:   session.VM.Mem.ClockEnabled(),
	})
}

func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "session destroyed"})
}

// handleLoadProgram assembles req.Source and loads it into the session's VM,
// per spec.md sections 4.1.4 (assembler output) and 6.1 (loading an image).
func (s *Server) handleLoadProgram(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req LoadProgramRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	img, sourceMap, symbols, asmErr := assembler.Assemble(req.Source, sessionID)
	if asmErr != nil {
		writeJSON(w, http.StatusBadRequest, LoadProgramResponse{Success: false, Error: asmErr.Error()})
		return
	}

	if err := loader.LoadAndResetVM(session.VM, img); err != nil {
		writeJSON(w, http.StatusBadRequest, LoadProgramResponse{Success: false, Error: err.Error()})
		return
	}
	session.Debugger.LoadSourceMap(sourceMap)
	session.Debugger.LoadSymbols(symbols)

	writeJSON(w, http.StatusOK, LoadProgramResponse{Success: true, Origin: img.Origin(), Symbols: symbols})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	go func() {
		session.VM.Run()
		s.broadcastState(sessionID, session)
		s.broadcaster.BroadcastExecutionEvent(sessionID, "stopped", nil)
	}()

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "run started"})
}

// handleStop clears MCR's clock-enable bit, the only cross-goroutine signal
// Run's loop observes between cycles (spec.md section 5).
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	session.VM.Mem.SetClockEnabled(false)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "stop requested"})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.stepLike(w, r, sessionID, func(sess *Session) { sess.VM.StepIn() })
}

func (s *Server) handleStepOver(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.stepLike(w, r, sessionID, func(sess *Session) { sess.VM.StepOver() })
}

func (s *Server) handleStepOut(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.stepLike(w, r, sessionID, func(sess *Session) { sess.VM.StepOut() })
}

func (s *Server) stepLike(w http.ResponseWriter, r *http.Request, sessionID string, step func(*Session)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	step(session)
	s.broadcastState(sessionID, session)
	writeJSON(w, http.StatusOK, toRegistersResponse(session))
}

// handleReset dispatches the four reset modes of spec.md section 4.2.6 via
// a ?mode= query parameter (reload, restart, memory, randomize).
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "reload"
	}
	switch mode {
	case "reload":
		if session.VM.LastImage == nil {
			writeError(w, http.StatusConflict, "reset reload: no image has been loaded yet")
			return
		}
		if err := loader.LoadAndResetVM(session.VM, session.VM.LastImage); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	case "restart":
		session.VM.Restart()
	case "memory":
		session.VM.ResetMemory()
		session.VM.CPU.ResetDefaults()
	case "randomize", "randomise":
		session.VM.RandomizeMemory()
		session.VM.CPU.ResetDefaults()
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown reset mode: %s", mode))
		return
	}
	session.Debugger.Breakpoints.Clear()

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: fmt.Sprintf("reset (%s)", mode)})
}

func toRegistersResponse(session *Session) RegistersResponse {
	cpu := session.VM.CPU
	return RegistersResponse{
		R:        cpu.R,
		PC:       cpu.PC,
		PSR:      cpu.PSR.Encode(),
		Mode:     modeString(cpu.PSR.Mode),
		Priority: cpu.PSR.Priority,
		N:        cpu.PSR.N,
		Z:        cpu.PSR.Z,
		P:        cpu.PSR.P,
		Cycles:   cpu.Cycles,
	}
}

func modeString(m vm.Mode) string {
	if m == vm.ModeUser {
		return "user"
	}
	return "supervisor"
}

func (s *Server) handleRegisters(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toRegistersResponse(session))
	case http.MethodPut:
		var req map[string]uint16
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		for name, v := range req {
			applyRegisterWrite(session, name, v)
		}
		writeJSON(w, http.StatusOK, toRegistersResponse(session))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func applyRegisterWrite(session *Session, name string, v uint16) {
	upper := strings.ToUpper(name)
	switch {
	case upper == "PC":
		session.VM.CPU.PC = v
	case upper == "PSR":
		session.VM.CPU.PSR = vm.DecodePSR(v)
	case len(upper) == 2 && upper[0] == 'R' && upper[1] >= '0' && upper[1] <= '7':
		session.VM.CPU.SetRegister(int(upper[1]-'0'), v)
	}
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		addr64, err := parseHexOrDec(query.Get("address"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid address parameter")
			return
		}
		length, err := strconv.ParseUint(query.Get("length"), 10, 32)
		if err != nil || length == 0 {
			length = 1
		}
		const maxRead = 65536
		if length > maxRead {
			length = maxRead
		}
		addr := uint16(addr64)
		words := make([]uint16, length)
		for i := range words {
			words[i] = session.VM.Mem.ReadRaw(addr + uint16(i))
		}
		writeJSON(w, http.StatusOK, MemoryResponse{Address: addr, Words: words})

	case http.MethodPut:
		var req struct {
			Address uint16   `json:"address"`
			Words   []uint16 `json:"words"`
		}
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		for i, word := range req.Words {
			session.VM.Mem.WriteRaw(req.Address+uint16(i), word)
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleDisassembly(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	query := r.URL.Query()
	addr64, err := parseHexOrDec(query.Get("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address parameter")
		return
	}
	count, err := strconv.ParseUint(query.Get("count"), 10, 32)
	if err != nil || count == 0 {
		count = 10
	}
	const maxCount = 1000
	if count > maxCount {
		count = maxCount
	}

	addr := uint16(addr64)
	instructions := make([]InstructionInfo, 0, count)
	for i := uint64(0); i < count; i++ {
		a := addr + uint16(i)
		word := session.VM.Mem.ReadRaw(a)
		instructions = append(instructions, InstructionInfo{
			Address:     a,
			Word:        word,
			Disassembly: tools.Disassemble(word, a),
		})
	}
	writeJSON(w, http.StatusOK, DisassemblyResponse{Instructions: instructions})
}

func (s *Server) handleBreakpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		var infos []BreakpointInfo
		for _, bp := range session.Debugger.Breakpoints.All() {
			infos = append(infos, BreakpointInfo{ID: bp.ID, Address: bp.Address, Temporary: bp.Temporary, HitCount: bp.HitCount})
		}
		writeJSON(w, http.StatusOK, BreakpointsResponse{Breakpoints: infos})

	case http.MethodPost:
		var req BreakpointRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		bp := session.Debugger.Breakpoints.Add(req.Address, req.Temporary)
		writeJSON(w, http.StatusCreated, BreakpointInfo{ID: bp.ID, Address: bp.Address, Temporary: bp.Temporary, HitCount: bp.HitCount})

	case http.MethodDelete:
		idStr := r.URL.Query().Get("id")
		if idStr == "" {
			session.Debugger.Breakpoints.Clear()
			writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "all breakpoints cleared"})
			return
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid breakpoint id")
			return
		}
		if err := session.Debugger.Breakpoints.Delete(id); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleKeyboardInput realizes spec.md section 1's "keyboard source" contract
// for a polling (non-websocket) client: bytes are queued, and a keyboard
// interrupt is raised per byte exactly as KeyboardInterrupt specifies
// (section 4.2.5).
func (s *Server) handleKeyboardInput(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var req KeyboardRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session.Keyboard.Push(req.Data)
	for i := 0; i < len(req.Data); i++ {
		session.VM.KeyboardInterrupt(req.Data[i])
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleOutput drains the session's buffered display sink, the polling
// equivalent of the websocket output event stream.
func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"data": session.Display.Drain()})
}

func (s *Server) broadcastState(sessionID string, session *Session) {
	regs := toRegistersResponse(session)
	s.broadcaster.BroadcastState(sessionID, map[string]interface{}{
		"pc": regs.PC, "psr": regs.PSR, "r": regs.R, "cycles": regs.Cycles,
	})
}
