package handlers

import "github.com/rs/zerolog/log"

// FailOnError logs and exits if an error is encountered
func FailOnError(err error, msg string) {
	if err != nil {
		log.Fatal().Err(err).Msg(msg)
	}
}
