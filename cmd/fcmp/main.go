// Command fcmp exits 0 when the submission output is byte-for-byte identical
// to the answer file and 1 otherwise.
//
//	fcmp <problem> <answer_file> <submission_file>
package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/judgenot0/judge-checker/checker"
	"github.com/judgenot0/judge-checker/config"
	"github.com/judgenot0/judge-checker/driver"
	"github.com/judgenot0/judge-checker/utils"
)

func main() {
	// stay quiet while the config is read
	utils.SetupLogger(nil, "", zerolog.WarnLevel)
	config := config.GetConfig()
	utils.SetupLogger(nil, config.LogLevel, zerolog.WarnLevel)

	strict := func(answer, submission io.Reader) (bool, error) {
		return checker.StrictCompareSize(answer, submission, config.BlockSize)
	}
	os.Exit(driver.Run(os.Args, strict, driver.WithVerbose(config.Verbose)))
}
