package session_test

import (
	"errors"
	"testing"

	. "github.com/skilldocs/grader/internal/session"
	customErr "github.com/skilldocs/grader/pkg/errors"
	"github.com/skilldocs/grader/pkg/grading"
	"github.com/skilldocs/grader/pkg/problem"
)

func definitionWithSolution() *problem.Definition {
	return &problem.Definition{
		ID:           "p1",
		Title:        "Problem 1",
		Difficulty:   problem.Easy,
		StarterCode:  "function f() {}",
		Solution:     "function f() { return 42; }",
		FunctionName: "f",
		TestCases:    []problem.TestCase{{Input: []string{}, Expected: "42"}},
	}
}

func someResult() grading.Result {
	return grading.Result{
		StatusCode:  grading.Success,
		PassedCount: 1,
		TotalCount:  1,
		TestResults: []grading.TestResult{{Passed: true, Order: 1}},
	}
}

func storeCurrentResult(s *Session) {
	_, gen := s.Buffer()
	s.StoreResult(someResult(), gen)
}

func TestSession_StartsWithStarterCode(t *testing.T) {
	m := NewManager()
	s := m.Create(definitionWithSolution())

	snap := s.Snapshot()
	if snap.Buffer != "function f() {}" {
		t.Fatalf("buffer must start as starter code, got %q", snap.Buffer)
	}
	if snap.ToggleState != ShowingStarter {
		t.Fatalf("expected starter state, got %q", snap.ToggleState)
	}
}

func TestToggle_SwapsBufferAndClearsResults(t *testing.T) {
	m := NewManager()
	s := m.Create(definitionWithSolution())
	storeCurrentResult(s)

	if err := s.Toggle(); err != nil {
		t.Fatalf("toggle failed: %s", err)
	}

	snap := s.Snapshot()
	if snap.ToggleState != ShowingSolution {
		t.Fatalf("expected solution state, got %q", snap.ToggleState)
	}
	if snap.Buffer != "function f() { return 42; }" {
		t.Fatalf("buffer must hold the solution, got %q", snap.Buffer)
	}
	if snap.LastResult != nil {
		t.Fatalf("toggling must clear stale results")
	}
}

func TestToggle_TwiceRestoresBufferButNotResults(t *testing.T) {
	m := NewManager()
	s := m.Create(definitionWithSolution())
	storeCurrentResult(s)

	if err := s.Toggle(); err != nil {
		t.Fatalf("first toggle failed: %s", err)
	}
	if err := s.Toggle(); err != nil {
		t.Fatalf("second toggle failed: %s", err)
	}

	snap := s.Snapshot()
	if snap.Buffer != "function f() {}" || snap.ToggleState != ShowingStarter {
		t.Fatalf("double toggle must restore the starter buffer, got %+v", snap)
	}
	if snap.LastResult != nil {
		t.Fatalf("results must stay cleared after a double toggle")
	}
}

func TestToggle_NoSolutionIsRejected(t *testing.T) {
	def := definitionWithSolution()
	def.Solution = ""

	m := NewManager()
	s := m.Create(def)

	err := s.Toggle()
	if !errors.Is(err, customErr.ErrNoSolution) {
		t.Fatalf("expected ErrNoSolution, got: %v", err)
	}
	if s.Snapshot().Buffer != def.StarterCode {
		t.Fatalf("a rejected toggle must not touch the buffer")
	}
}

func TestSetBuffer_ClearsResults(t *testing.T) {
	m := NewManager()
	s := m.Create(definitionWithSolution())
	storeCurrentResult(s)

	s.SetBuffer("function f() { return 1; }")

	snap := s.Snapshot()
	if snap.Buffer != "function f() { return 1; }" {
		t.Fatalf("buffer not updated, got %q", snap.Buffer)
	}
	if snap.LastResult != nil {
		t.Fatalf("an edit must invalidate prior results")
	}
}

func TestStoreResult_DropsResultsForReplacedBuffer(t *testing.T) {
	m := NewManager()
	s := m.Create(definitionWithSolution())

	// A run starts against the starter buffer...
	_, gen := s.Buffer()

	// ...and the learner toggles to the solution while it is in flight.
	if err := s.Toggle(); err != nil {
		t.Fatalf("toggle failed: %s", err)
	}

	s.StoreResult(someResult(), gen)
	if s.Snapshot().LastResult != nil {
		t.Fatalf("a result graded against the starter buffer must not attach to the solution buffer")
	}

	_, gen = s.Buffer()
	s.StoreResult(someResult(), gen)
	if s.Snapshot().LastResult == nil {
		t.Fatalf("a result for the current buffer must be stored")
	}
}

func TestStoreResult_DropsResultsAfterEdit(t *testing.T) {
	m := NewManager()
	s := m.Create(definitionWithSolution())

	_, gen := s.Buffer()
	s.SetBuffer("function f() { return 7; }")

	s.StoreResult(someResult(), gen)
	if s.Snapshot().LastResult != nil {
		t.Fatalf("a result graded against the previous buffer must be dropped after an edit")
	}
}

func TestManager_GetAndDelete(t *testing.T) {
	m := NewManager()
	s := m.Create(definitionWithSolution())

	got, err := m.Get(s.ID())
	if err != nil || got.ID() != s.ID() {
		t.Fatalf("expected to find session %s, got %v, err %v", s.ID(), got, err)
	}

	m.Delete(s.ID())
	if _, err := m.Get(s.ID()); !errors.Is(err, customErr.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got: %v", err)
	}

	if _, err := m.Get("missing"); !errors.Is(err, customErr.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for unknown id, got: %v", err)
	}
}
