// Package session tracks the presentation-facing state of analyses: Idle, Running,
// Succeeded or Failed. A newer analysis supersedes an older one and late results
// from the older one are dropped.
package session

import (
	"sync"
	"time"

	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/pkg/models"
)

// State is the phase of the most recent analysis.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Ticket identifies one analysis started on a session.
type Ticket uint64

// Snapshot is what a front-end renders.
type Snapshot struct {
	State      State
	Loading    bool
	Error      string
	Fonts      models.AnalysisResult
	ImageURL   string
	Report     *models.AnalysisReport
	StartedAt  time.Time
	Generation uint64
}

// Session is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	state      State
	generation uint64
	report     *models.AnalysisReport
	err        error
	startedAt  time.Time
	updatedAt  time.Time
}

// New returns an idle session.
func New() *Session {
	return &Session{updatedAt: time.Now()}
}

// Begin starts a new analysis and clears previous output. A running analysis is
// superseded: its ticket goes stale and superseded is true.
func (s *Session) Begin() (t Ticket, superseded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	superseded = s.state == Running
	s.generation++
	s.state = Running
	s.report = nil
	s.err = nil
	s.startedAt = time.Now()
	s.updatedAt = s.startedAt
	return Ticket(s.generation), superseded
}

// Busy reports whether an analysis is running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Running
}

// Complete records a result. It returns false, and changes nothing, when t is stale.
func (s *Session) Complete(t Ticket, report *models.AnalysisReport) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(t) {
		return false
	}
	s.state = Succeeded
	s.report = report
	s.err = nil
	s.updatedAt = time.Now()
	return true
}

// Fail records an error and clears image and results. Stale tickets are ignored.
func (s *Session) Fail(t Ticket, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(t) {
		return false
	}
	s.state = Failed
	s.report = nil
	s.err = err
	s.updatedAt = time.Now()
	return true
}

// Reset returns the session to Idle. Any running analysis becomes stale.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = Idle
	s.report = nil
	s.err = nil
	s.updatedAt = time.Now()
}

// idleSince reports whether the session is not running and unchanged since cutoff.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != Running && !s.updatedAt.After(cutoff)
}

func (s *Session) currentLocked(t Ticket) bool {
	return s.state == Running && uint64(t) == s.generation
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:      s.state,
		Loading:    s.state == Running,
		StartedAt:  s.startedAt,
		Generation: s.generation,
	}
	if s.err != nil {
		snap.Error = apperrors.UserMessage(s.err)
	}
	if s.report != nil {
		snap.Report = s.report
		snap.Fonts = s.report.Fonts
		snap.ImageURL = s.report.ImageURL()
	}
	return snap
}

// Manager keeps one session per chat.
type Manager struct {
	sessions sync.Map // chatID -> *Session
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Get returns the chat's session, creating it on first use.
func (m *Manager) Get(chatID int64) *Session {
	if v, ok := m.sessions.Load(chatID); ok {
		return v.(*Session)
	}
	v, _ := m.sessions.LoadOrStore(chatID, New())
	return v.(*Session)
}

// Forget drops a chat's session.
func (m *Manager) Forget(chatID int64) {
	m.sessions.Delete(chatID)
}

// Prune drops sessions that have not run or changed for maxIdle and returns how many.
// Running sessions are kept.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	m.sessions.Range(func(k, v any) bool {
		if v.(*Session).idleSince(cutoff) {
			m.sessions.Delete(k)
			n++
		}
		return true
	})
	return n
}
