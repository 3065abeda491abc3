package options

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadCommand is returned for a command segment that is not of the form name(params).
var ErrBadCommand = errors.New("bad command")

// Command is one name(params) segment of an operator command line.
type Command struct {
	Name   string
	Params []string
}

// ParseCommands splits "a(1, 2); b(on); writeConfig()" into commands.
// Empty segments are skipped; empty parentheses yield no parameters.
func ParseCommands(line string) ([]Command, error) {
	var commands []Command
	for _, segment := range strings.Split(line, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		open := strings.IndexByte(segment, '(')
		end := strings.LastIndexByte(segment, ')')
		if open < 0 || end < open {
			return nil, fmt.Errorf("%w : %s", ErrBadCommand, segment)
		}

		name := strings.TrimSpace(segment[:open])
		if name == "" {
			return nil, fmt.Errorf("%w : %s", ErrBadCommand, segment)
		}

		commands = append(commands, Command{
			Name:   name,
			Params: SplitParameters(segment[open+1 : end]),
		})
	}
	return commands, nil
}

// SplitParameters splits a comma separated list and trims each entry.
func SplitParameters(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	params := strings.Split(s, ",")
	for i, p := range params {
		params[i] = strings.TrimSpace(p)
	}
	return params
}
