// Package session holds per-operator UI and recording state.
package session

import (
	"sync"
	"time"

	"github.com/ppiankov/hostwarden/internal/intent"
	"github.com/ppiankov/hostwarden/internal/transport"
)

// Session is the mutable context of one operator. Sessions are created
// lazily on first authorized interaction and live for the process lifetime.
type Session struct {
	OperatorID int64
	CreatedAt  time.Time
	Recorder   *Recorder

	mu        sync.Mutex
	menu      intent.Menu
	renders   map[intent.Menu]transport.Render
	displayed map[int]transport.Render
}

func newSession(operatorID int64, rec *Recorder) *Session {
	return &Session{
		OperatorID: operatorID,
		CreatedAt:  time.Now().UTC(),
		Recorder:   rec,
		menu:       intent.MenuMain,
		renders:    make(map[intent.Menu]transport.Render),
		displayed:  make(map[int]transport.Render),
	}
}

// Menu returns the current menu context.
func (s *Session) Menu() intent.Menu {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.menu
}

// Enter moves to menu m and records r as its last-known render.
func (s *Session) Enter(m intent.Menu, r transport.Render) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu = m
	s.renders[m] = r
}

// SetMenu moves to m without touching stored renders.
func (s *Session) SetMenu(m intent.Menu) {
	s.mu.Lock()
	s.menu = m
	s.mu.Unlock()
}

// LastRender returns the most recent render computed for m.
func (s *Session) LastRender(m intent.Menu) (transport.Render, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.renders[m]
	return r, ok
}

// Displayed returns what message messageID currently shows, as far as
// this process knows.
func (s *Session) Displayed(messageID int) (transport.Render, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.displayed[messageID]
	return r, ok
}

// MarkDisplayed records that messageID now shows r.
func (s *Session) MarkDisplayed(messageID int, r transport.Render) {
	s.mu.Lock()
	s.displayed[messageID] = r
	s.mu.Unlock()
}

// Store maps operator ids to sessions.
type Store struct {
	device     CaptureDevice
	sampleRate int

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore creates a store whose sessions record from device at sampleRate.
// A nil device disables recording.
func NewStore(device CaptureDevice, sampleRate int) *Store {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Store{
		device:     device,
		sampleRate: sampleRate,
		sessions:   make(map[int64]*Session),
	}
}

// Get returns the operator's session, creating it on first use.
func (s *Store) Get(operatorID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[operatorID]
	if !ok {
		sess = newSession(operatorID, NewRecorder(s.device, s.sampleRate))
		s.sessions[operatorID] = sess
	}
	return sess
}

// Len returns the number of sessions created so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
