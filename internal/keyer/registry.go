// internal/keyer/registry.go
package keyer

import (
	"fmt"
	"reflect"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/cw"
	"github.com/ColonelBlimp/cwkeyer/internal/sched"
	"github.com/google/uuid"
)

// SessionID identifies a registered target for the lifetime of its session.
type SessionID uuid.UUID

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

// State is the decode state of a session.
type State int

const (
	// Idle means no press is held and no timer is pending
	Idle State = iota
	// Pressed means a press-down was recorded and its release is awaited
	Pressed
	// AwaitingLetter means the letter gap timer is pending
	AwaitingLetter
	// AwaitingWord means a letter was decoded and the word gap timer is pending
	AwaitingWord
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case AwaitingLetter:
		return "awaiting-letter"
	case AwaitingWord:
		return "awaiting-word"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the timing and decode state of one registered target.
type Session struct {
	id     SessionID
	target any
	out    Appender
	timing cw.Timing

	pattern    cw.Pattern
	pressed    bool
	pressStart time.Time

	letterTimer sched.Handle
	spaceTimer  sched.Handle
}

func (s *Session) ID() SessionID { return s.id }

// Target returns the element the session was registered for.
func (s *Session) Target() any { return s.target }

// Timing returns the cached timing derived from the session's speed.
func (s *Session) Timing() cw.Timing { return s.timing }

// WPM returns the speed fixed at registration.
func (s *Session) WPM() int { return s.timing.WPM }

// Pattern returns the symbols buffered since the last decode.
func (s *Session) Pattern() cw.Pattern { return s.pattern }

// State reports where the session is in the press/letter/word cycle.
// A pattern that stalled without a match reports Idle.
func (s *Session) State() State {
	switch {
	case s.pressed:
		return Pressed
	case s.letterTimer != nil && s.letterTimer.Active():
		return AwaitingLetter
	case s.spaceTimer != nil && s.spaceTimer.Active():
		return AwaitingWord
	default:
		return Idle
	}
}

// Registry maps targets to their sessions. It is owned by a Keyer and,
// like the Keyer, must only be used from the scheduler's goroutine.
type Registry struct {
	sched    sched.Scheduler
	byID     map[SessionID]*Session
	byTarget map[any]SessionID
}

// NewRegistry creates an empty registry whose timers run on s.
func NewRegistry(s sched.Scheduler) *Registry {
	return &Registry{
		sched:    s,
		byID:     make(map[SessionID]*Session),
		byTarget: make(map[any]SessionID),
	}
}

// Register creates a session for target at the given speed.
func (r *Registry) Register(target any, wpm int) (SessionID, error) {
	out, err := resolveAppender(target)
	if err != nil {
		return SessionID{}, err
	}
	if !reflect.TypeOf(target).Comparable() {
		return SessionID{}, fmt.Errorf("%w: %T is not comparable", ErrUnsupportedTargetKind, target)
	}
	if _, ok := r.byTarget[target]; ok {
		return SessionID{}, ErrAlreadyRegistered
	}
	timing, err := cw.NewTiming(wpm)
	if err != nil {
		return SessionID{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	s := &Session{
		id:     SessionID(uuid.New()),
		target: target,
		out:    out,
		timing: timing,
	}
	r.byID[s.id] = s
	r.byTarget[target] = s.id
	return s.id, nil
}

// Deregister cancels the session's timers and removes it. It returns false
// when id is unknown, including on a second call for the same id.
func (r *Registry) Deregister(id SessionID) bool {
	s, ok := r.byID[id]
	if !ok {
		return false
	}
	r.sched.Cancel(s.letterTimer)
	r.sched.Cancel(s.spaceTimer)
	s.letterTimer, s.spaceTimer = nil, nil

	delete(r.byID, id)
	delete(r.byTarget, s.target)
	return true
}

// Lookup returns the session for id.
func (r *Registry) Lookup(id SessionID) (*Session, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// LookupTarget returns the session registered for target.
func (r *Registry) LookupTarget(target any) (*Session, bool) {
	if target == nil || !reflect.TypeOf(target).Comparable() {
		return nil, false
	}
	id, ok := r.byTarget[target]
	if !ok {
		return nil, false
	}
	return r.byID[id], true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return len(r.byID)
}

// IDs returns the ids of all live sessions in no particular order.
func (r *Registry) IDs() []SessionID {
	ids := make([]SessionID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}
