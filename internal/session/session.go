package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/skilldocs/grader/internal/logger"
	customErr "github.com/skilldocs/grader/pkg/errors"
	"github.com/skilldocs/grader/pkg/grading"
	"github.com/skilldocs/grader/pkg/problem"
	"go.uber.org/zap"
)

// ToggleState says which code the buffer currently shows.
type ToggleState string

const (
	ShowingStarter  ToggleState = "starter"
	ShowingSolution ToggleState = "solution"
)

// LayoutFlags are owned by the surrounding page shell; the session just
// carries them so the presenter can pick a column layout. The grading engine
// itself never acts on them.
type LayoutFlags struct {
	HideLeftSidebar  bool `json:"hide_left_sidebar"`
	HideRightSidebar bool `json:"hide_right_sidebar"`
}

// Session is one learner's interaction with one problem: the mutable code
// buffer, the solution-toggle state, the layout flags, and the latest result
// set. The buffer has a single logical writer (editor updates or the toggle);
// the mutex only serializes concurrent transport handlers.
type Session struct {
	mu          sync.Mutex
	id          string
	def         *problem.Definition
	buffer      string
	generation  uint64
	toggleState ToggleState
	layout      LayoutFlags
	lastResult  *grading.Result
}

// Snapshot is an immutable view of a session for transport layers.
type Snapshot struct {
	ID          string          `json:"id"`
	ProblemID   string          `json:"problem_id"`
	Buffer      string          `json:"buffer"`
	ToggleState ToggleState     `json:"toggle_state"`
	Layout      LayoutFlags     `json:"layout"`
	LastResult  *grading.Result `json:"last_result,omitempty"`
}

func newSession(def *problem.Definition) *Session {
	return &Session{
		id:          uuid.NewString(),
		def:         def,
		buffer:      def.StarterCode,
		toggleState: ShowingStarter,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Problem() *problem.Definition {
	return s.def
}

// Buffer returns the code the compiler will consume on the next run, together
// with the generation that code belongs to. Grading runs concurrently with
// edits and toggles, so a finishing run hands its generation back to
// StoreResult, which drops results for a buffer that has since been replaced.
func (s *Session) Buffer() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer, s.generation
}

// SetBuffer replaces the buffer with an editor update. Results computed
// against the previous buffer are stale and are dropped.
func (s *Session) SetBuffer(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = source
	s.generation++
	s.lastResult = nil
}

// Toggle swaps the buffer between the starter code and the reference
// solution. Either direction drops the current result set: results computed
// against the prior buffer must never be shown against the new one. The swap
// and the invalidation happen under one lock, so no observer sees a partial
// transition.
func (s *Session) Toggle() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.toggleState {
	case ShowingStarter:
		if !s.def.HasSolution() {
			return customErr.ErrNoSolution
		}
		s.buffer = s.def.Solution
		s.toggleState = ShowingSolution
	case ShowingSolution:
		s.buffer = s.def.StarterCode
		s.toggleState = ShowingStarter
	}

	s.generation++
	s.lastResult = nil
	return nil
}

func (s *Session) SetLayout(layout LayoutFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = layout
}

// StoreResult records the outcome of a run that graded the buffer at the
// given generation. A result for a superseded buffer is dropped: an edit or
// toggle landing while the run was in flight already invalidated it.
func (s *Session) StoreResult(result grading.Result, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return
	}
	s.lastResult = &result
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:          s.id,
		ProblemID:   s.def.ID,
		Buffer:      s.buffer,
		ToggleState: s.toggleState,
		Layout:      s.layout,
		LastResult:  s.lastResult,
	}
}

// Manager tracks live sessions by ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *zap.SugaredLogger
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger.NewNamedLogger("sessions"),
	}
}

func (m *Manager) Create(def *problem.Definition) *Session {
	s := newSession(def)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Infof("Created session %s for problem %q", s.id, def.ID)
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, customErr.ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
