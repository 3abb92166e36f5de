package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/internal/stages/compiler"
	customErr "github.com/skilldocs/grader/pkg/errors"
	"github.com/skilldocs/grader/pkg/problem"
	"go.uber.org/zap"
)

// ExecutionResult is the raw outcome of invoking the target callable for one
// test case, before any comparison against the expected value.
type ExecutionResult struct {
	// Value is the returned value. Nil when the invocation did not produce one.
	Value goja.Value
	// ErrMessage holds the thrown exception's message for a throwing case.
	ErrMessage string
	// TimedOut is set when the invocation was interrupted by the wall-clock
	// limit or context cancellation.
	TimedOut   bool
	ExecTimeMs float64
}

// Runner invokes the compiled callable once per test case, in authored order.
// Cases run strictly sequentially; a throwing or timed-out case is recorded
// and the batch continues. No error escapes a case.
type Runner interface {
	ExecuteAllTestCases(ctx context.Context, realm *compiler.Realm, testCases []problem.TestCase) []ExecutionResult
}

type runner struct {
	caseTimeout time.Duration
	logger      *zap.SugaredLogger
}

func NewRunner(caseTimeoutMs int) Runner {
	return &runner{
		caseTimeout: time.Duration(caseTimeoutMs) * time.Millisecond,
		logger:      logger.NewNamedLogger("runner"),
	}
}

func (r *runner) ExecuteAllTestCases(
	ctx context.Context,
	realm *compiler.Realm,
	testCases []problem.TestCase,
) []ExecutionResult {
	results := make([]ExecutionResult, len(testCases))
	for i, tc := range testCases {
		results[i] = r.executeTestCase(ctx, realm, tc)
	}
	return results
}

func (r *runner) executeTestCase(ctx context.Context, realm *compiler.Realm, tc problem.TestCase) ExecutionResult {
	args := make([]goja.Value, len(tc.Input))
	for i, expr := range tc.Input {
		v, err := realm.Eval(expr)
		if err != nil {
			// An unevaluable argument is an authoring defect, surfaced on the
			// case rather than aborting the batch.
			return ExecutionResult{ErrMessage: fmt.Sprintf("argument %d failed to evaluate: %s", i+1, exceptionText(err))}
		}
		args[i] = v
	}

	start := time.Now()
	value, err := realm.CallTarget(ctx, r.caseTimeout, args...)
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		if errors.Is(err, customErr.ErrExecutionInterrupted) {
			r.logger.Infof("Test case interrupted after %.1f ms", elapsedMs)
			return ExecutionResult{TimedOut: true, ExecTimeMs: elapsedMs}
		}
		return ExecutionResult{ErrMessage: exceptionText(err), ExecTimeMs: elapsedMs}
	}

	return ExecutionResult{Value: value, ExecTimeMs: elapsedMs}
}

func exceptionText(err error) string {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.Value().String()
	}
	return err.Error()
}
