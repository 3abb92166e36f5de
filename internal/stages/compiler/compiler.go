package compiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/pkg/constants"
	customErr "github.com/skilldocs/grader/pkg/errors"
	"go.uber.org/zap"
)

// Compiler turns submitted source text into a realm holding a callable bound
// to the problem's target function. Execution happens inside a fresh embedded
// interpreter runtime with no host bindings, so evaluating the source cannot
// reach the process environment.
//
// Any failure to obtain the callable (syntax error, top-level throw, missing
// or uncallable target) wraps errors.ErrCompilationFailed so the pipeline can
// collapse the whole batch into one synthetic failing result.
type Compiler interface {
	Compile(ctx context.Context, source, functionName string) (*Realm, error)
}

type compiler struct {
	evalTimeout time.Duration
	logger      *zap.SugaredLogger
}

func NewCompiler(evalTimeoutMs int) Compiler {
	return &compiler{
		evalTimeout: time.Duration(evalTimeoutMs) * time.Millisecond,
		logger:      logger.NewNamedLogger("compiler"),
	}
}

func (c *compiler) Compile(ctx context.Context, source, functionName string) (*Realm, error) {
	prog, err := goja.Compile("submission.js", source, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", customErr.ErrCompilationFailed, err.Error())
	}

	realm, err := newRealm()
	if err != nil {
		return nil, err
	}

	// Top-level evaluation runs learner code, so it gets the same interrupt
	// guard as test-case invocations.
	_, err = realm.withInterrupt(ctx, c.evalTimeout, func() (goja.Value, error) {
		return realm.vm.RunProgram(prog)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", customErr.ErrCompilationFailed, exceptionMessage(err))
	}

	v := realm.vm.Get(functionName)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		c.logger.Infof("Target function %q not defined after evaluation", functionName)
		return nil, fmt.Errorf("%w: %s",
			customErr.ErrCompilationFailed,
			fmt.Sprintf(constants.TestCaseMessageMissingTarget, functionName))
	}

	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("%w: %q is defined but is not callable",
			customErr.ErrCompilationFailed, functionName)
	}

	realm.target = fn
	return realm, nil
}

// exceptionMessage extracts the thrown value's own string form when the error
// is a JavaScript exception, instead of the Go error text with its stack.
func exceptionMessage(err error) string {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.Value().String()
	}
	return err.Error()
}
