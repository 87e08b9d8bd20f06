package console

import (
	"strings"

	"github.com/chzyer/readline"
)

// Confirm asks a yes/no question; empty input selects def.
func Confirm(question string, def bool) (bool, error) {
	hint := " [y/N]: "
	if def {
		hint = " [Y/n]: "
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt: question + hint,
		Stdout: writer,
		Stderr: errWriter,
	})
	if err != nil {
		return false, err
	}
	defer func() { _ = rl.Close() }()
	response, err := rl.Readline()
	if err != nil {
		return false, err
	}
	return parseAnswer(response, def), nil
}

func parseAnswer(response string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
