package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/internal/stages/compiler"
	"github.com/skilldocs/grader/internal/stages/runner"
	"github.com/skilldocs/grader/internal/stages/verifier"
	"github.com/skilldocs/grader/pkg/constants"
	customErr "github.com/skilldocs/grader/pkg/errors"
	"github.com/skilldocs/grader/pkg/grading"
	"github.com/skilldocs/grader/pkg/problem"
	"go.uber.org/zap"
)

type Worker interface {
	GradeSubmission(ctx context.Context, def *problem.Definition, source string) grading.Result
	GetStatus() constants.WorkerStatus
	UpdateStatus(status constants.WorkerStatus)
	GetProcessingID() string
	SetProcessingID(id string)
	GetId() int
}

type worker struct {
	id           int
	status       constants.WorkerStatus
	processingID string
	compiler     compiler.Compiler
	runner       runner.Runner
	verifier     verifier.Verifier
	timeoutMs    int
	logger       *zap.SugaredLogger
}

func NewWorker(
	id int,
	compiler compiler.Compiler,
	runner runner.Runner,
	verifier verifier.Verifier,
	timeoutMs int,
) Worker {
	logger := logger.NewNamedLogger(fmt.Sprintf("worker-%d", id))

	return &worker{
		id:        id,
		status:    constants.WorkerStatusIdle,
		compiler:  compiler,
		runner:    runner,
		verifier:  verifier,
		timeoutMs: timeoutMs,
		logger:    logger,
	}
}

func (w *worker) GetId() int {
	return w.id
}

func (w *worker) GetStatus() constants.WorkerStatus {
	return w.status
}

func (w *worker) UpdateStatus(status constants.WorkerStatus) {
	w.status = status
}

func (w *worker) GetProcessingID() string {
	return w.processingID
}

func (w *worker) SetProcessingID(id string) {
	w.processingID = id
}

// GradeSubmission runs the full compile, execute, verify pass for one
// submission. Nothing escapes: a compile failure collapses into one synthetic
// failing result, per-case failures stay on their case, and a panic anywhere
// below is recovered into an internal-error result.
func (w *worker) GradeSubmission(ctx context.Context, def *problem.Definition, source string) (result grading.Result) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorf("Recovered from panic while grading %q: %v", def.ID, r)
			result = grading.Result{
				StatusCode: grading.InternalError,
				Message:    constants.GradingMessageInternalError,
				TotalCount: len(def.TestCases),
			}
		}
	}()

	w.logger.Infof("Grading submission for problem %q (%d test cases)", def.ID, len(def.TestCases))

	realm, err := w.compiler.Compile(ctx, source, def.FunctionName)
	if err != nil {
		if errors.Is(err, customErr.ErrCompilationFailed) {
			return w.compilationFailure(def, err)
		}
		w.logger.Errorf("Compiler failed internally: %s", err)
		return grading.Result{
			StatusCode: grading.InternalError,
			Message:    constants.GradingMessageInternalError,
			TotalCount: len(def.TestCases),
		}
	}

	execResults := w.runner.ExecuteAllTestCases(ctx, realm, def.TestCases)
	result = w.verifier.EvaluateAllTestCases(realm, def.TestCases, execResults, w.timeoutMs)

	w.logger.Infof("Graded problem %q: %d/%d passed", def.ID, result.PassedCount, result.TotalCount)
	return result
}

// compilationFailure produces the single synthetic result that replaces the
// whole batch when no callable could be obtained. Order 0 marks it as
// synthetic; the batch is never attempted.
func (w *worker) compilationFailure(def *problem.Definition, err error) grading.Result {
	message := strings.TrimPrefix(err.Error(), customErr.ErrCompilationFailed.Error()+": ")

	return grading.Result{
		StatusCode: grading.CompilationError,
		Message:    constants.GradingMessageCompilationError,
		TotalCount: len(def.TestCases),
		TestResults: []grading.TestResult{
			{
				Passed:       false,
				Order:        0,
				StatusCode:   grading.CompilationFailed,
				ErrorMessage: message,
			},
		},
	}
}
