package models

// ReferenceChunk is the unit of retrieval: a fixed-width slice of reference
// document text together with its position in the combined document sequence.
type ReferenceChunk struct {
	Text        string `json:"text"`
	SourceOrder int    `json:"source_order"`
}

// GradingRequest describes one answer-grading job. Reference material comes
// either from a storage bucket of PDFs (BucketName) or from inline document
// texts (Documents); BucketName wins when both are set.
type GradingRequest struct {
	Question      string   `json:"question"`
	StudentAnswer string   `json:"student_answer"`
	MaxMark       int      `json:"max_mark"`
	BucketName    string   `json:"bucket_name,omitempty"`
	Documents     []string `json:"documents,omitempty"`
	Rubrics       string   `json:"rubrics,omitempty"`
}

// CodeGradingRequest describes one code-grading job. Code grading does not use
// retrieval, so there is no reference source.
type CodeGradingRequest struct {
	Question    string `json:"question"`
	StudentCode string `json:"student_code"`
	MaxMark     int    `json:"max_mark"`
}

// GradingResult is the outcome of a grading request. A valid request always
// produces one of these, either model-derived or a fixed fallback.
type GradingResult struct {
	Grade     float64 `json:"grade"`
	Feedback  string  `json:"feedback"`
	Reference string  `json:"reference,omitempty"`
}
