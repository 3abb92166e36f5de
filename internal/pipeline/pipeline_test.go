package pipeline_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	. "github.com/skilldocs/grader/internal/pipeline"
	"github.com/skilldocs/grader/internal/stages/compiler"
	"github.com/skilldocs/grader/internal/stages/runner"
	"github.com/skilldocs/grader/internal/stages/verifier"
	"github.com/skilldocs/grader/pkg/constants"
	"github.com/skilldocs/grader/pkg/grading"
	"github.com/skilldocs/grader/pkg/problem"
)

func newTestWorker(timeoutMs int) Worker {
	return NewWorker(
		0,
		compiler.NewCompiler(timeoutMs),
		runner.NewRunner(timeoutMs),
		verifier.NewVerifier(constants.EqualityModeJSON),
		timeoutMs,
	)
}

func filterProblem() *problem.Definition {
	return &problem.Definition{
		ID:           "my-filter",
		Title:        "Implement myFilter",
		Difficulty:   problem.Easy,
		StarterCode:  "function myFilter(arr, fn) {\n  // your code here\n}",
		Solution:     "function myFilter(arr, fn) { return arr.filter(fn); }",
		FunctionName: "myFilter",
		TestCases: []problem.TestCase{
			{Input: []string{"[1, 2, 3, 4, 5]", "x => x > 3"}, Expected: "[4, 5]"},
			{Input: []string{"[1, 2, 3]", "x => x < 0"}, Expected: "[]"},
			{Input: []string{"['a', 'bb', 'ccc']", "s => s.length >= 2"}, Expected: "['bb', 'ccc']"},
		},
	}
}

func TestGradeSubmission_OneResultPerTestCaseInOrder(t *testing.T) {
	w := newTestWorker(500)
	def := filterProblem()

	res := w.GradeSubmission(context.Background(), def, def.Solution)
	if res.StatusCode != grading.Success {
		t.Fatalf("expected success, got: %v, message: %s", res.StatusCode, res.Message)
	}
	if len(res.TestResults) != len(def.TestCases) {
		t.Fatalf("expected %d results, got %d", len(def.TestCases), len(res.TestResults))
	}
	for i, tr := range res.TestResults {
		if tr.Order != i+1 {
			t.Fatalf("result %d has order %d, input order must be preserved", i, tr.Order)
		}
		if !tr.Passed {
			t.Fatalf("case %d should pass, got %+v", i+1, tr)
		}
	}
}

func TestGradeSubmission_CompileFailureYieldsSingleSyntheticResult(t *testing.T) {
	w := newTestWorker(500)
	def := filterProblem()

	res := w.GradeSubmission(context.Background(), def, "var x = 1;")
	if res.StatusCode != grading.CompilationError {
		t.Fatalf("expected compilation error, got: %v", res.StatusCode)
	}
	if len(res.TestResults) != 1 {
		t.Fatalf("expected exactly 1 synthetic result, got %d", len(res.TestResults))
	}
	tr := res.TestResults[0]
	if tr.Order != 0 || tr.Passed {
		t.Fatalf("synthetic result must be failing with order 0, got %+v", tr)
	}
	if !strings.Contains(tr.ErrorMessage, "myFilter") {
		t.Fatalf("error must name the missing function, got %q", tr.ErrorMessage)
	}
	if res.AllPassed() {
		t.Fatalf("a failed compile can never report all passed")
	}
}

func TestGradeSubmission_SyntaxErrorYieldsSingleSyntheticResult(t *testing.T) {
	w := newTestWorker(500)
	def := filterProblem()

	res := w.GradeSubmission(context.Background(), def, "function myFilter(arr, fn { }")
	if res.StatusCode != grading.CompilationError {
		t.Fatalf("expected compilation error, got: %v", res.StatusCode)
	}
	if len(res.TestResults) != 1 || res.TestResults[0].Order != 0 {
		t.Fatalf("expected one synthetic order-0 result, got %+v", res.TestResults)
	}
}

func TestGradeSubmission_DeterministicSubmissionIsIdempotent(t *testing.T) {
	w := newTestWorker(500)
	def := filterProblem()

	first := w.GradeSubmission(context.Background(), def, def.Solution)
	second := w.GradeSubmission(context.Background(), def, def.Solution)

	// Execution times vary between runs; everything else must not.
	for i := range first.TestResults {
		first.TestResults[i].ExecTimeMs = 0
		second.TestResults[i].ExecTimeMs = 0
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results across runs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestGradeSubmission_WorkerStateAccessors(t *testing.T) {
	w := newTestWorker(500)

	if w.GetStatus() != constants.WorkerStatusIdle {
		t.Fatalf("new worker must be idle")
	}
	w.UpdateStatus(constants.WorkerStatusBusy)
	w.SetProcessingID("run-1")
	if w.GetStatus() != constants.WorkerStatusBusy || w.GetProcessingID() != "run-1" {
		t.Fatalf("worker state not updated")
	}
	if w.GetId() != 0 {
		t.Fatalf("expected worker id 0, got %d", w.GetId())
	}
}
