package problem

import (
	"fmt"
	"regexp"

	customErr "github.com/skilldocs/grader/pkg/errors"
)

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case Easy, Medium, Hard:
		return Difficulty(s), nil
	default:
		return "", fmt.Errorf("%w: %q", customErr.ErrInvalidDifficulty, s)
	}
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Example is display-only material shown next to the problem statement.
// It is never used for grading.
type Example struct {
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// TestCase holds one graded invocation of the target function.
//
// Input holds one JavaScript expression per argument and Expected holds a
// single expression for the expected return value. Expressions rather than
// plain JSON values, so problem authors can pass non-JSON arguments such as
// predicates ("x => x > 3") alongside ordinary literals.
type TestCase struct {
	Input       []string `json:"input" yaml:"input"`
	Expected    string   `json:"expected" yaml:"expected" validate:"required"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Definition is the static, authored description of one coding problem.
// It is immutable after loading; the mutable per-learner code buffer lives
// in the session layer.
type Definition struct {
	ID           string     `json:"id" yaml:"id" validate:"required"`
	Title        string     `json:"title" yaml:"title" validate:"required"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty" validate:"required"`
	Description  string     `json:"description" yaml:"description"`
	Examples     []Example  `json:"examples,omitempty" yaml:"examples,omitempty"`
	StarterCode  string     `json:"starter_code" yaml:"starter_code" validate:"required"`
	Solution     string     `json:"solution,omitempty" yaml:"solution,omitempty"`
	FunctionName string     `json:"function_name" yaml:"function_name" validate:"required"`
	TestCases    []TestCase `json:"test_cases" yaml:"test_cases" validate:"required,min=1,dive"`
}

// HasSolution reports whether a reference solution can be revealed.
func (d *Definition) HasSolution() bool {
	return d.Solution != ""
}

// Validate enforces the structural invariants that the struct tags cannot
// express on their own.
func (d *Definition) Validate() error {
	if d.FunctionName == "" {
		return customErr.ErrEmptyFunctionName
	}
	if !identifierRegex.MatchString(d.FunctionName) {
		return fmt.Errorf("function name %q is not a valid identifier", d.FunctionName)
	}
	if len(d.TestCases) == 0 {
		return customErr.ErrNoTestCases
	}
	if _, err := ParseDifficulty(string(d.Difficulty)); err != nil {
		return err
	}
	for i, tc := range d.TestCases {
		if tc.Expected == "" {
			return fmt.Errorf("test case %d has no expected value", i+1)
		}
	}
	return nil
}
