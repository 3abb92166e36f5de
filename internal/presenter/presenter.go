package presenter

import (
	"fmt"

	"github.com/skilldocs/grader/pkg/grading"
)

// LayoutContext carries the sidebar flags owned by the page shell. It is a
// plain required argument rather than ambient state: the caller always says
// what the layout is, and there is no silent default provider behind it.
type LayoutContext struct {
	HideLeftSidebar  bool
	HideRightSidebar bool
}

// Columns derives the editor layout: two columns (description + editor) in
// the normal case, one column when either sidebar is hidden to give the
// editor the full width.
func (lc LayoutContext) Columns() int {
	if lc.HideLeftSidebar || lc.HideRightSidebar {
		return 1
	}
	return 2
}

// CaseView is the display form of one test result.
type CaseView struct {
	Order       int      `json:"order"`
	Passed      bool     `json:"passed"`
	Label       string   `json:"label"`
	Input       []string `json:"input"`
	Expected    string   `json:"expected"`
	Actual      string   `json:"actual,omitempty"`
	Detail      string   `json:"detail,omitempty"`
	Description string   `json:"description,omitempty"`
}

// View is everything a renderer needs to draw the result panel. Empty when
// there is nothing to show (no run yet, or results invalidated).
type View struct {
	Empty     bool       `json:"empty"`
	Columns   int        `json:"columns"`
	Summary   string     `json:"summary,omitempty"`
	AllPassed bool       `json:"all_passed"`
	Cases     []CaseView `json:"cases,omitempty"`
}

// Present builds the view model for a result set. It is a pure function of
// its inputs: it never re-triggers grading and has no side effects.
func Present(result *grading.Result, layout LayoutContext) View {
	view := View{Columns: layout.Columns()}

	if result == nil || len(result.TestResults) == 0 {
		view.Empty = true
		return view
	}

	view.AllPassed = result.AllPassed()
	if view.AllPassed {
		view.Summary = fmt.Sprintf("All %d test cases passed", result.TotalCount)
	} else {
		view.Summary = fmt.Sprintf("%d of %d test cases passed", result.PassedCount, result.TotalCount)
	}

	view.Cases = make([]CaseView, len(result.TestResults))
	for i, tr := range result.TestResults {
		view.Cases[i] = presentCase(tr)
	}

	return view
}

func presentCase(tr grading.TestResult) CaseView {
	cv := CaseView{
		Order:       tr.Order,
		Passed:      tr.Passed,
		Input:       tr.Input,
		Expected:    tr.Expected,
		Actual:      tr.Actual,
		Description: tr.Description,
	}

	switch {
	case tr.StatusCode == grading.CompilationFailed:
		cv.Label = "Compile Error"
		cv.Detail = tr.ErrorMessage
	case tr.Passed:
		cv.Label = fmt.Sprintf("Case %d: Passed", tr.Order)
	default:
		cv.Label = fmt.Sprintf("Case %d: Failed", tr.Order)
		cv.Detail = tr.ErrorMessage
	}

	return cv
}
