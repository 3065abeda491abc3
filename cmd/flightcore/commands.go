package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// readCommands forwards each input line to out and closes out at EOF.
func readCommands(r io.Reader, out chan<- string, logger zerolog.Logger) {
	defer close(out)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Msg("Stopped reading operator commands")
	}
}
