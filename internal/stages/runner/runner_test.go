package runner_test

import (
	"context"
	"strings"
	"testing"

	"github.com/skilldocs/grader/internal/stages/compiler"
	. "github.com/skilldocs/grader/internal/stages/runner"
	"github.com/skilldocs/grader/pkg/problem"
)

func compileSource(t *testing.T, source, functionName string) *compiler.Realm {
	t.Helper()
	realm, err := compiler.NewCompiler(500).Compile(context.Background(), source, functionName)
	if err != nil {
		t.Fatalf("compile failed: %s", err)
	}
	return realm
}

func TestExecuteAllTestCases_OnePerCaseInOrder(t *testing.T) {
	realm := compileSource(t, "function double(x) { return x * 2; }", "double")
	r := NewRunner(500)

	testCases := []problem.TestCase{
		{Input: []string{"1"}, Expected: "2"},
		{Input: []string{"2"}, Expected: "4"},
		{Input: []string{"3"}, Expected: "6"},
	}

	results := r.ExecuteAllTestCases(context.Background(), realm, testCases)
	if len(results) != len(testCases) {
		t.Fatalf("expected %d results, got %d", len(testCases), len(results))
	}

	for i, want := range []string{"2", "4", "6"} {
		if results[i].ErrMessage != "" || results[i].TimedOut {
			t.Fatalf("case %d: unexpected failure %+v", i+1, results[i])
		}
		got, err := realm.Stringify(results[i].Value)
		if err != nil {
			t.Fatalf("case %d: stringify failed: %s", i+1, err)
		}
		if got != want {
			t.Fatalf("case %d: expected %s, got %s", i+1, want, got)
		}
	}
}

func TestExecuteAllTestCases_ThrowingCaseDoesNotAbortBatch(t *testing.T) {
	realm := compileSource(t,
		"function pick(x) { if (x === 2) { throw new Error('boom'); } return x; }", "pick")
	r := NewRunner(500)

	testCases := []problem.TestCase{
		{Input: []string{"1"}, Expected: "1"},
		{Input: []string{"2"}, Expected: "2"},
		{Input: []string{"3"}, Expected: "3"},
	}

	results := r.ExecuteAllTestCases(context.Background(), realm, testCases)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ErrMessage != "" {
		t.Fatalf("case 1 should not fail, got: %s", results[0].ErrMessage)
	}
	if !strings.Contains(results[1].ErrMessage, "boom") {
		t.Fatalf("case 2 should record the thrown message, got: %q", results[1].ErrMessage)
	}
	if results[2].ErrMessage != "" || results[2].Value == nil {
		t.Fatalf("case 3 should still run, got %+v", results[2])
	}
}

func TestExecuteAllTestCases_PredicateArgument(t *testing.T) {
	realm := compileSource(t,
		"function myFilter(arr, fn) { return arr.filter(fn); }", "myFilter")
	r := NewRunner(500)

	testCases := []problem.TestCase{
		{Input: []string{"[1, 2, 3, 4, 5]", "x => x > 3"}, Expected: "[4, 5]"},
	}

	results := r.ExecuteAllTestCases(context.Background(), realm, testCases)
	got, err := realm.Stringify(results[0].Value)
	if err != nil {
		t.Fatalf("stringify failed: %s", err)
	}
	if got != "[4,5]" {
		t.Fatalf("expected [4,5], got %s", got)
	}
}

func TestExecuteAllTestCases_InfiniteLoopIsInterrupted(t *testing.T) {
	realm := compileSource(t,
		"function loop(x) { if (x === 1) { while (true) {} } return x; }", "loop")
	r := NewRunner(50)

	testCases := []problem.TestCase{
		{Input: []string{"1"}, Expected: "1"},
		{Input: []string{"2"}, Expected: "2"},
	}

	results := r.ExecuteAllTestCases(context.Background(), realm, testCases)
	if !results[0].TimedOut {
		t.Fatalf("expected case 1 to time out, got %+v", results[0])
	}
	if results[1].TimedOut || results[1].ErrMessage != "" {
		t.Fatalf("case 2 should still run after an interrupt, got %+v", results[1])
	}
}

func TestExecuteAllTestCases_BadArgumentExpression(t *testing.T) {
	realm := compileSource(t, "function id(x) { return x; }", "id")
	r := NewRunner(500)

	testCases := []problem.TestCase{
		{Input: []string{"[1, 2"}, Expected: "null"},
	}

	results := r.ExecuteAllTestCases(context.Background(), realm, testCases)
	if !strings.Contains(results[0].ErrMessage, "argument 1") {
		t.Fatalf("expected an argument evaluation error, got: %q", results[0].ErrMessage)
	}
}
