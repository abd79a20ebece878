package memory

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFactTypeConflict = errors.New("fact type conflict")
	ErrFactNotFound     = errors.New("fact not found")
	ErrEmptyFactKey     = errors.New("fact key is empty")
	ErrMalformedTurn    = errors.New("malformed conversation turn")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleTool  Role = "tool"
)

// Turn is one entry of the append-only conversation ledger. Turns are never
// mutated or removed; Seq is the total order of creation.
type Turn struct {
	Seq     int       `json:"seq"`
	Role    Role      `json:"role"`
	Actor   string    `json:"actor,omitempty"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

type FactKind string

const (
	FactString FactKind = "string"
	FactNumber FactKind = "number"
)

// Fact is a small typed value resolved once and shared across agents within
// a session, e.g. a currency rate or a weather condition.
type Fact struct {
	Kind FactKind
	Str  string
	Num  float64
}

func StringFact(v string) Fact {
	return Fact{Kind: FactString, Str: v}
}

func NumberFact(v float64) Fact {
	return Fact{Kind: FactNumber, Num: v}
}

func (f Fact) String() string {
	if f.Kind == FactNumber {
		return fmt.Sprintf("%g", f.Num)
	}
	return f.Str
}

// Session is the shared state of one dispatch cycle: the ordered turn ledger
// plus the fact table. One instance per planning session; every operation
// takes the lock on its own, so no caller holds it across a suspension point.
type Session struct {
	id    string
	turns []Turn
	facts map[string]Fact
	mtx   sync.RWMutex
}

func NewSession() *Session {
	return &Session{
		id:    uuid.NewString(),
		facts: make(map[string]Fact, 8),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Append adds a turn at the end of the ledger, assigning its sequence number.
func (s *Session) Append(role Role, actor, content string) (Turn, error) {
	switch role {
	case RoleUser, RoleAgent, RoleTool:
	default:
		return Turn{}, fmt.Errorf("%w: role %q", ErrMalformedTurn, role)
	}
	if strings.TrimSpace(content) == "" {
		return Turn{}, fmt.Errorf("%w: empty content", ErrMalformedTurn)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	turn := Turn{
		Seq:     len(s.turns),
		Role:    role,
		Actor:   actor,
		Content: content,
		At:      time.Now().UTC(),
	}
	s.turns = append(s.turns, turn)
	return turn, nil
}

// SnapshotTurns returns a copy of all turns appended so far, in order.
func (s *Session) SnapshotTurns() []Turn {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) TurnCount() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.turns)
}

// SetFact stores a fact under key. A key keeps the kind of its first write:
// rewriting with a different kind fails with ErrFactTypeConflict and leaves
// the stored value untouched; a same-kind rewrite is last-write-wins.
func (s *Session) SetFact(key string, fact Fact) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyFactKey
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	if prev, ok := s.facts[key]; ok && prev.Kind != fact.Kind {
		return fmt.Errorf("%w: key %q holds %s, got %s", ErrFactTypeConflict, key, prev.Kind, fact.Kind)
	}
	s.facts[key] = fact
	return nil
}

func (s *Session) Fact(key string) (Fact, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	fact, ok := s.facts[key]
	if !ok {
		return Fact{}, fmt.Errorf("%w: %s", ErrFactNotFound, key)
	}
	return fact, nil
}

func (s *Session) HasFact(key string) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	_, ok := s.facts[key]
	return ok
}

// FactKeys returns the resolved keys, for prompt context and logging.
func (s *Session) FactKeys() []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	keys := make([]string, 0, len(s.facts))
	for k := range s.facts {
		keys = append(keys, k)
	}
	return keys
}
