// Command lcmp exits 0 when the submission output matches the answer file
// line by line, ignoring trailing whitespace and trailing blank lines, and 1
// otherwise.
//
//	lcmp <problem> <answer_file> <submission_file>
package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/judgenot0/judge-checker/checker"
	"github.com/judgenot0/judge-checker/config"
	"github.com/judgenot0/judge-checker/driver"
	"github.com/judgenot0/judge-checker/utils"
)

func main() {
	utils.SetupLogger(nil, "", zerolog.WarnLevel)
	config := config.GetConfig()
	utils.SetupLogger(nil, config.LogLevel, zerolog.WarnLevel)

	os.Exit(driver.Run(os.Args, checker.LineCompare, driver.WithVerbose(config.Verbose)))
}
