package constants

// Queue message types.
const (
	QueueMessageTypeRun       = "run"
	QueueMessageTypeHandshake = "handshake"
	QueueMessageTypeStatus    = "status"
)

// GradingResult messages.
const (
	GradingMessageAllPassed        = "all test cases passed"
	GradingMessageTestFailed       = "some test cases failed"
	GradingMessageCompilationError = "compilation error occurred"
	GradingMessageInternalError    = "internal error occurred"
)

// TestResult messages.
const (
	TestCaseMessageTimeout       = "execution exceeded the %d ms time limit"
	TestCaseMessageWrongAnswer   = "actual output differs from expected output"
	TestCaseMessageRuntimeError  = "runtime error: %s"
	TestCaseMessageMissingTarget = "function %q is not defined after evaluating the source"
)

// Worker specific constants.
type WorkerStatus int

const (
	WorkerStatusIdle WorkerStatus = iota
	WorkerStatusBusy
)

// Configuration constants.
const (
	DefaultRabbitmqHost     = "localhost"
	DefaultRabbitmqUser     = "guest"
	DefaultRabbitmqPassword = "guest"
	DefaultRabbitmqPort     = "5672"
	DefaultWorkerQueueName  = "grader_queue"
	DefaultMaxWorkers       = 10
	DefaultHTTPPort         = "8070"
	DefaultRunTimeoutMs     = 2000
	DefaultProblemsDir      = "problems"
	DefaultEqualityMode     = "json"
	DefaultCacheMaxEntries  = 256
	DefaultCacheTTLMinutes  = 30
)

// Equality modes accepted by the verifier.
const (
	EqualityModeJSON   = "json"
	EqualityModeStrict = "strict"
)
