package verifier

import (
	"fmt"
	"math"

	"github.com/google/go-cmp/cmp"
	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/internal/stages/compiler"
	"github.com/skilldocs/grader/internal/stages/runner"
	"github.com/skilldocs/grader/pkg/constants"
	"github.com/skilldocs/grader/pkg/grading"
	"github.com/skilldocs/grader/pkg/problem"
	"go.uber.org/zap"
)

// Verifier compares raw execution outcomes against the authored expected
// values and produces the final per-case results.
//
// Two equality modes exist:
//
//   - "json": actual equals expected iff their canonical JSON serializations
//     (the realm's JSON.stringify) are textually identical. This reproduces
//     the classic shortcut of editor-embedded graders, including its known
//     bug class: values that serialize identically but differ semantically
//     compare equal, e.g. NaN versus null, both of which stringify to "null".
//     The collapse is pinned by a regression test and must not be silently
//     repaired in this mode.
//
//   - "strict": explicit deep equality on the exported values. NaN equals
//     NaN; numbers compare by value, so -0 equals 0; object key order is
//     irrelevant; functions never compare equal.
type Verifier interface {
	EvaluateAllTestCases(
		realm *compiler.Realm,
		testCases []problem.TestCase,
		execResults []runner.ExecutionResult,
		timeoutMs int,
	) grading.Result
}

type verifier struct {
	equalityMode string
	logger       *zap.SugaredLogger
}

func NewVerifier(equalityMode string) Verifier {
	return &verifier{
		equalityMode: equalityMode,
		logger:       logger.NewNamedLogger("verifier"),
	}
}

func (v *verifier) EvaluateAllTestCases(
	realm *compiler.Realm,
	testCases []problem.TestCase,
	execResults []runner.ExecutionResult,
	timeoutMs int,
) grading.Result {
	testResults := make([]grading.TestResult, len(testCases))
	passedCount := 0

	for i, tc := range testCases {
		testResults[i] = v.evaluateTestCase(realm, tc, execResults[i], i+1, timeoutMs)
		if testResults[i].Passed {
			passedCount++
		}
	}

	statusCode := grading.Success
	message := constants.GradingMessageAllPassed
	if passedCount != len(testCases) {
		statusCode = grading.TestFailed
		message = constants.GradingMessageTestFailed
	}

	return grading.Result{
		StatusCode:  statusCode,
		Message:     message,
		PassedCount: passedCount,
		TotalCount:  len(testCases),
		TestResults: testResults,
	}
}

func (v *verifier) evaluateTestCase(
	realm *compiler.Realm,
	tc problem.TestCase,
	execResult runner.ExecutionResult,
	order int,
	timeoutMs int,
) grading.TestResult {
	base := grading.TestResult{
		Order:       order,
		Input:       tc.Input,
		Expected:    tc.Expected,
		Description: tc.Description,
		ExecTimeMs:  execResult.ExecTimeMs,
	}

	if execResult.TimedOut {
		base.StatusCode = grading.TimeLimitExceeded
		base.ErrorMessage = fmt.Sprintf(constants.TestCaseMessageTimeout, timeoutMs)
		return base
	}

	if execResult.ErrMessage != "" {
		base.StatusCode = grading.RuntimeError
		base.ErrorMessage = fmt.Sprintf(constants.TestCaseMessageRuntimeError, execResult.ErrMessage)
		return base
	}

	expectedValue, err := realm.Eval(tc.Expected)
	if err != nil {
		v.logger.Errorf("Expected expression for case %d failed to evaluate: %s", order, err)
		base.StatusCode = grading.RuntimeError
		base.ErrorMessage = fmt.Sprintf("expected value failed to evaluate: %s", err)
		return base
	}

	actualJSON, err := realm.Stringify(execResult.Value)
	if err != nil {
		base.StatusCode = grading.RuntimeError
		base.ErrorMessage = fmt.Sprintf("failed to serialize actual value: %s", err)
		return base
	}
	base.Actual = actualJSON

	expectedJSON, err := realm.Stringify(expectedValue)
	if err != nil {
		base.StatusCode = grading.RuntimeError
		base.ErrorMessage = fmt.Sprintf("failed to serialize expected value: %s", err)
		return base
	}

	var equal bool
	if v.equalityMode == constants.EqualityModeStrict {
		equal = deepEqual(execResult.Value.Export(), expectedValue.Export())
	} else {
		equal = actualJSON == expectedJSON
	}

	if equal {
		base.Passed = true
		base.StatusCode = grading.TestCasePassed
		return base
	}

	base.StatusCode = grading.WrongAnswer
	base.ErrorMessage = constants.TestCaseMessageWrongAnswer
	return base
}

// deepEqual implements the strict equality mode on exported values. The
// exported trees contain only interpreter data (numbers, strings, bools,
// nil, maps, slices), so the comparers below cover every leaf.
func deepEqual(actual, expected any) bool {
	opts := cmp.Options{
		cmp.Comparer(func(a, b float64) bool {
			return a == b || (math.IsNaN(a) && math.IsNaN(b))
		}),
	}
	return cmp.Equal(normalizeNumbers(actual), normalizeNumbers(expected), opts)
}

// normalizeNumbers widens every integral leaf to float64, matching the single
// number type of the source language.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeNumbers(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeNumbers(e)
		}
		return out
	default:
		return v
	}
}
