package structs

import "time"

const (
	VerdictAccepted      = "ac"
	VerdictWrongAnswer   = "wa"
	VerdictInternalError = "ie"
)

type CheckRequest struct {
	ID          string `json:"id"`
	CheckerType string `json:"checker_type"`
	AnswerPath  string `json:"answer_path"`
	OutputPath  string `json:"output_path"`
}

type Verdict struct {
	Request  *CheckRequest
	Checker  string
	Result   string
	Duration time.Duration
}

type Worker struct {
	Id int
}
