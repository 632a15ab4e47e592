package handlers

import (
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/judgenot0/judge-checker/checker"
	"github.com/judgenot0/judge-checker/config"
	"github.com/judgenot0/judge-checker/driver"
	"github.com/judgenot0/judge-checker/structs"
)

// Handler runs checks with the block size and signing key from Config.
type Handler struct {
	Config *config.Config
}

func NewHandler(config *config.Config) *Handler {
	return &Handler{Config: config}
}

// Check runs the requested checker over the answer and output files. Unknown
// checkers and unreadable files yield an internal error verdict.
func (h *Handler) Check(req *structs.CheckRequest) (verdict structs.Verdict) {
	start := time.Now()
	verdict = structs.Verdict{
		Request: req,
		Result:  structs.VerdictInternalError,
	}

	defer func() {
		verdict.Duration = time.Since(start)
		label := verdict.Checker
		if label == "" {
			label = "unknown"
		}
		checksTotal.WithLabelValues(label, verdict.Result).Inc()
		checkDuration.WithLabelValues(label).Observe(verdict.Duration.Seconds())
	}()

	if req == nil {
		log.Error().Msg("Error: check request is nil")
		return verdict
	}

	name, err := checker.Canonical(req.CheckerType)
	if err != nil {
		log.Error().Err(err).Str("id", req.ID).Msg("Error resolving checker")
		return verdict
	}
	verdict.Checker = name

	ok, err := driver.CompareFiles(h.checkerFor(name), req.AnswerPath, req.OutputPath)
	if err != nil {
		log.Error().Err(err).Str("id", req.ID).Str("answer", req.AnswerPath).Str("output", req.OutputPath).Msg("Error comparing files")
		return verdict
	}

	if ok {
		verdict.Result = structs.VerdictAccepted
	} else {
		verdict.Result = structs.VerdictWrongAnswer
	}
	log.Debug().Str("id", req.ID).Str("checker", name).Str("verdict", verdict.Result).Msg("check finished")
	return verdict
}

func (h *Handler) checkerFor(name string) checker.Func {
	if name == checker.Strict && h.Config != nil {
		blockSize := h.Config.BlockSize
		return func(answer, submission io.Reader) (bool, error) {
			return checker.StrictCompareSize(answer, submission, blockSize)
		}
	}
	check, _ := checker.Lookup(name)
	return check
}
