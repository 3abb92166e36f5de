package compiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	customErr "github.com/skilldocs/grader/pkg/errors"
)

// Realm is one isolated interpreter runtime holding an evaluated submission
// and its target callable. A realm belongs to a single grading pass and must
// not be shared between goroutines; test cases within a pass run sequentially
// on it.
type Realm struct {
	vm        *goja.Runtime
	target    goja.Callable
	stringify goja.Callable
}

func newRealm() (*Realm, error) {
	vm := goja.New()

	v, err := vm.RunString("JSON.stringify")
	if err != nil {
		return nil, fmt.Errorf("failed to bind JSON.stringify: %w", err)
	}
	stringify, ok := goja.AssertFunction(v)
	if !ok {
		return nil, errors.New("JSON.stringify is not callable")
	}

	return &Realm{vm: vm, stringify: stringify}, nil
}

// Eval evaluates a single authored expression (an argument or an expected
// value) inside the realm. The expression is parenthesized so object literals
// are not parsed as blocks.
func (r *Realm) Eval(expr string) (goja.Value, error) {
	return r.vm.RunString("(" + expr + "\n)")
}

// CallTarget invokes the submission's target function with the given
// positional arguments, bounded by the timeout and the context.
func (r *Realm) CallTarget(ctx context.Context, timeout time.Duration, args ...goja.Value) (goja.Value, error) {
	return r.withInterrupt(ctx, timeout, func() (goja.Value, error) {
		return r.target(goja.Undefined(), args...)
	})
}

// Stringify returns the canonical JSON serialization of a value as produced
// by the realm's own JSON.stringify. Values JSON.stringify refuses to
// serialize (undefined, functions) come back as the literal "undefined".
func (r *Realm) Stringify(v goja.Value) (string, error) {
	res, err := r.stringify(goja.Undefined(), v)
	if err != nil {
		return "", err
	}
	if goja.IsUndefined(res) {
		return "undefined", nil
	}
	return res.String(), nil
}

// withInterrupt runs fn on the realm's runtime, interrupting it when the
// wall-clock timeout elapses or the context is cancelled. An interrupted run
// reports errors.ErrExecutionInterrupted.
func (r *Realm) withInterrupt(ctx context.Context, timeout time.Duration, fn func() (goja.Value, error)) (goja.Value, error) {
	// Clear any interrupt a previous case may have left behind, and clear
	// again after the timer and context watcher are stopped: the defers run
	// in reverse order, so ClearInterrupt is last and no late-firing watcher
	// can poison the next invocation.
	r.vm.ClearInterrupt()
	defer r.vm.ClearInterrupt()

	timer := time.AfterFunc(timeout, func() {
		r.vm.Interrupt(customErr.ErrExecutionInterrupted)
	})
	defer timer.Stop()

	stop := context.AfterFunc(ctx, func() {
		r.vm.Interrupt(customErr.ErrExecutionInterrupted)
	})
	defer stop()

	v, err := fn()
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, customErr.ErrExecutionInterrupted
		}
		return nil, err
	}
	return v, nil
}
