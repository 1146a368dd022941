// Package session holds per-browser-session view state. Each analyze
// action builds a fresh immutable Snapshot that fully replaces the previous
// one; nothing is merged and nothing survives a replacement.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sojenai/jenai-dashboard/render"
)

// MitigationPhase is the per-result state of the mitigation-and-voice flow.
type MitigationPhase string

const (
	PhaseIdle       MitigationPhase = "idle"
	PhaseRequesting MitigationPhase = "requesting"
	PhaseRendered   MitigationPhase = "rendered"
	PhaseFailed     MitigationPhase = "failed"
)

// Snapshot is the immutable view state for one session, rebuilt on every
// analyze action.
type Snapshot struct {
	SessionID string              `json:"session_id"`
	Device    string              `json:"device"`
	TypeOrder []string            `json:"type_order"`
	Results   []render.ResultView `json:"results"`
	CreatedAt time.Time           `json:"created_at"`
}

// FindResult returns the result view with the given stable ID.
func (s *Snapshot) FindResult(resultID string) (render.ResultView, bool) {
	for _, r := range s.Results {
		if r.ID == resultID {
			return r, true
		}
	}
	return render.ResultView{}, false
}

type entry struct {
	snapshot   *Snapshot
	mitigation map[string]MitigationPhase // result ID -> phase
}

// Store keeps one snapshot per session, keyed by session ID. Sessions are
// independent; no state is shared between them.
type Store struct {
	mutex   sync.RWMutex
	entries map[string]*entry
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewResultID returns a stable identifier for one displayed result.
func NewResultID() string {
	return uuid.NewString()
}

// Replace installs a new snapshot for the session, discarding the previous
// snapshot and all per-result mitigation state (last-write-wins).
func (s *Store) Replace(snap *Snapshot) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries[snap.SessionID] = &entry{
		snapshot:   snap,
		mitigation: make(map[string]MitigationPhase),
	}
}

// Get returns the current snapshot for a session.
func (s *Store) Get(sessionID string) (*Snapshot, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return nil, false
	}
	return e.snapshot, true
}

// Phase returns the mitigation phase for a result, PhaseIdle when the
// result has never been mitigated.
func (s *Store) Phase(sessionID, resultID string) MitigationPhase {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return PhaseIdle
	}
	if phase, ok := e.mitigation[resultID]; ok {
		return phase
	}
	return PhaseIdle
}

// BeginMitigation moves a result to PhaseRequesting. The flow is
// re-entrant: re-triggering from any phase returns to Requesting, and no
// prior mitigation result is cached.
func (s *Store) BeginMitigation(sessionID, resultID string) {
	s.setPhase(sessionID, resultID, PhaseRequesting)
}

// FinishMitigation records the outcome of a mitigation call.
func (s *Store) FinishMitigation(sessionID, resultID string, ok bool) {
	if ok {
		s.setPhase(sessionID, resultID, PhaseRendered)
	} else {
		s.setPhase(sessionID, resultID, PhaseFailed)
	}
}

func (s *Store) setPhase(sessionID, resultID string, phase MitigationPhase) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return
	}
	e.mitigation[resultID] = phase
}
