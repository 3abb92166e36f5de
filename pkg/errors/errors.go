package errors

import "errors"

// Error messages.
var (
	ErrCompilationFailed     = errors.New("source failed to compile")
	ErrEmptyFunctionName     = errors.New("function name is empty")
	ErrNoTestCases           = errors.New("problem has no test cases")
	ErrInvalidDifficulty     = errors.New("invalid difficulty")
	ErrProblemNotFound       = errors.New("problem not found")
	ErrSessionNotFound       = errors.New("session not found")
	ErrNoSolution            = errors.New("problem has no reference solution")
	ErrExecutionInterrupted  = errors.New("execution interrupted")
	ErrFailedToGetFreeWorker = errors.New("failed to get free worker")
	ErrUnknownMessageType    = errors.New("unknown message type")
)
