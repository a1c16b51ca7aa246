package api

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/go-lc3/lc3sim/debugger"
	"github.com/go-lc3/lc3sim/vm"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// Session is one active simulator instance exposed over the API: a VM, its
// debugger front end (for breakpoints and command dispatch), a buffered
// display sink, and a byte queue standing in for spec.md section 1's
// "keyboard source" when driven remotely.
type Session struct {
	ID        string
	VM        *vm.VM
	Debugger  *debugger.Debugger
	Display   *bufferedDisplay
	Keyboard  *queuedKeyboard
	CreatedAt time.Time
}

// bufferedDisplay implements vm.DisplaySink, buffering output for polling
// clients and notifying the broadcaster for websocket clients.
type bufferedDisplay struct {
	mu          sync.Mutex
	buf         bytes.Buffer
	sessionID   string
	broadcaster *Broadcaster
}

func (d *bufferedDisplay) WriteByte(b byte) {
	d.mu.Lock()
	d.buf.WriteByte(b)
	d.mu.Unlock()
	if d.broadcaster != nil {
		d.broadcaster.BroadcastOutput(d.sessionID, string(b))
	}
}

func (d *bufferedDisplay) Drain() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.buf.String()
	d.buf.Reset()
	return s
}

// queuedKeyboard implements vm.KeyboardSource over a byte queue fed by
// incoming stdin/keyboard API requests.
type queuedKeyboard struct {
	mu    sync.Mutex
	bytes []byte
}

func (k *queuedKeyboard) ReadByte() (byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.bytes) == 0 {
		return 0, false
	}
	b := k.bytes[0]
	k.bytes = k.bytes[1:]
	return b, true
}

func (k *queuedKeyboard) Push(data string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.bytes = append(k.bytes, []byte(data)...)
}

// SessionManager owns every active Session, keyed by a random ID. Grounded
// on api/session_manager.go, with the teacher's filesystem-root/temp-dir
// bookkeeping dropped — this simulator has no filesystem-backed syscalls to
// sandbox.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	broadcaster *Broadcaster
}

func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
	}
}

func (sm *SessionManager) CreateSession() (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	machine := vm.NewVM()
	display := &bufferedDisplay{sessionID: id, broadcaster: sm.broadcaster}
	keyboard := &queuedKeyboard{}
	machine.Mem.Display = display
	machine.Mem.Keyboard = keyboard

	session := &Session{
		ID:        id,
		VM:        machine,
		Debugger:  debugger.NewDebugger(machine),
		Display:   display,
		Keyboard:  keyboard,
		CreatedAt: time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, exists := sm.sessions[id]; exists {
		return nil, ErrSessionAlreadyExists
	}
	sm.sessions[id] = session
	return session, nil
}

func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (sm *SessionManager) DestroySession(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(sm.sessions, id)
	return nil
}

func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
