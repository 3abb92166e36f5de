package grading

type ResultStatus int

const (
	// Means the source compiled and every test case passed.
	Success ResultStatus = iota + 1
	// Means that some test cases failed (wrong answer, runtime error, timeout).
	TestFailed
	// Means that the source failed to compile or did not define the target function.
	CompilationError
	// Means that some internal error occurred.
	InternalError
)

type TestCaseStatus int

const (
	// Means that the test case passed.
	TestCasePassed TestCaseStatus = iota + 1
	// Means the actual value differs from the expected value.
	WrongAnswer
	// Means the invocation threw.
	RuntimeError
	// Means the invocation exceeded the wall-clock limit.
	TimeLimitExceeded
	// Means no callable was obtained; only the synthetic Order-0 result
	// carries this status.
	CompilationFailed
)

type TestResult struct {
	Passed bool `json:"passed"`
	// Order matches the 1-based position of the test case in the problem
	// definition. A synthetic compile-failure result carries Order 0.
	Order      int            `json:"order"`
	StatusCode TestCaseStatus `json:"status_code"`
	// Input and Expected echo the authored expressions for display.
	Input    []string `json:"input"`
	Expected string   `json:"expected"`
	// Actual is the canonical serialization of the returned value. Empty when
	// the invocation threw or timed out.
	Actual string `json:"actual,omitempty"`
	// ErrorMessage is set only for failed cases that did not produce a value.
	ErrorMessage string  `json:"error_message,omitempty"`
	Description  string  `json:"description,omitempty"`
	ExecTimeMs   float64 `json:"exec_time_ms"`
}

type Result struct {
	StatusCode  ResultStatus `json:"status_code"`
	Message     string       `json:"message"`
	PassedCount int          `json:"passed_count"`
	TotalCount  int          `json:"total_count"`
	TestResults []TestResult `json:"test_results"`
}

// AllPassed reports whether every authored test case passed.
func (r *Result) AllPassed() bool {
	return r.TotalCount > 0 && r.PassedCount == r.TotalCount
}
