package usecase

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// splitArgs splits slash command text on whitespace. Double quotes, plain
// or typographic, group words into one argument.
func splitArgs(text string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		started bool
	)

	for _, r := range text {
		switch {
		case r == '"' || r == '“' || r == '”':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if quoted {
		return nil, goerr.Wrap(ErrInvalidArgument, "unterminated quote", goerr.V("text", text))
	}
	if started {
		args = append(args, current.String())
	}
	return args, nil
}

// bindArgs fits args to n parameters. Surplus words are joined into the
// parameter at index rest, so only the other parameters need quoting.
func bindArgs(args []string, n, rest int) ([]string, bool) {
	if n == 0 {
		return nil, len(args) == 0
	}
	if len(args) < n {
		return nil, false
	}
	if len(args) == n {
		return args, true
	}

	surplus := len(args) - n
	bound := make([]string, 0, n)
	bound = append(bound, args[:rest]...)
	bound = append(bound, strings.Join(args[rest:rest+surplus+1], " "))
	bound = append(bound, args[rest+surplus+1:]...)
	return bound, true
}
