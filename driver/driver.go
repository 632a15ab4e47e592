// Package driver runs a checker as a standalone judge process: it opens the
// answer and submission files named on the command line and turns the
// comparison into an exit code.
package driver

import (
	"fmt"
	"io"
	"os"

	"github.com/logrusorgru/aurora/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/judgenot0/judge-checker/checker"
	"github.com/judgenot0/judge-checker/structs"
)

const (
	ExitMatch    = 0
	ExitMismatch = 1
	ExitUsage    = 2
)

type options struct {
	verbose bool
	out     io.Writer
}

type Option func(*options)

// WithVerbose prints the verdict to the diagnostic writer.
func WithVerbose(verbose bool) Option {
	return func(o *options) {
		o.verbose = verbose
	}
}

// WithOutput sets the diagnostic writer, stderr by default.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// Run expects os.Args shaped as
//
//	<program> <problem> <answer_file> <submission_file>
//
// The problem argument is accepted for the judge's benefit and otherwise
// ignored. Unreadable files count as a mismatch.
func Run(args []string, check checker.Func, opts ...Option) int {
	o := options{out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	if len(args) < 4 {
		program := "checker"
		if len(args) > 0 {
			program = args[0]
		}
		log.Error().Strs("args", args).Msgf("usage: %s <problem> <answer_file> <submission_file>", program)
		return ExitUsage
	}

	answerPath, outputPath := args[2], args[3]
	ok, err := CompareFiles(check, answerPath, outputPath)
	if err != nil {
		log.Error().Err(err).Str("answer", answerPath).Str("output", outputPath).Msg("check failed")
		o.report(structs.VerdictInternalError)
		return ExitMismatch
	}

	if !ok {
		log.Debug().Str("answer", answerPath).Str("output", outputPath).Msg("output does not match")
		o.report(structs.VerdictWrongAnswer)
		return ExitMismatch
	}
	o.report(structs.VerdictAccepted)
	return ExitMatch
}

// CompareFiles opens both files read-only, runs check over them and closes
// them again.
func CompareFiles(check checker.Func, answerPath, outputPath string) (bool, error) {
	answer, err := os.Open(answerPath)
	if err != nil {
		return false, errors.Wrap(err, "failed to open answer file")
	}
	defer answer.Close()

	output, err := os.Open(outputPath)
	if err != nil {
		return false, errors.Wrap(err, "failed to open output file")
	}
	defer output.Close()

	return check(answer, output)
}

func (o options) report(verdict string) {
	if !o.verbose {
		return
	}
	var colored aurora.Value
	switch verdict {
	case structs.VerdictAccepted:
		colored = aurora.Green(verdict)
	case structs.VerdictWrongAnswer:
		colored = aurora.Red(verdict)
	default:
		colored = aurora.Yellow(verdict)
	}
	fmt.Fprintln(o.out, aurora.Bold(colored))
}
