package models

// TestCase is one input/expected-output pair for remote code execution.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// TestCaseResult holds the judge's verdict for a single test case.
type TestCaseResult struct {
	TestCaseID     int    `json:"test_case_id"`
	Input          string `json:"input,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty"`
	Status         string `json:"status,omitempty"`
	CompileOutput  string `json:"compile_output,omitempty"`
	Stdout         string `json:"stdout,omitempty"`
	Stderr         string `json:"stderr,omitempty"`
	Time           string `json:"time,omitempty"`
	Memory         int    `json:"memory,omitempty"`
	Passed         bool   `json:"passed"`
	Verdict        string `json:"verdict"`
	ActualOutput   string `json:"actual_output,omitempty"`
	Error          string `json:"error,omitempty"`
}

// SubmissionReport aggregates the per-test results of one code submission.
type SubmissionReport struct {
	TotalTestCases  int              `json:"total_test_cases"`
	PassedTestCases int              `json:"passed_test_cases"`
	TestResults     []TestCaseResult `json:"test_results"`
}
