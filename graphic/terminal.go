package graphic

import (
	"os"
	"strings"
)

// normalizeTerminal works around terminal settings termbox cannot handle and
// returns a func that puts them back.
func normalizeTerminal() (func(), error) {
	prevTERMINFO, hadTERMINFO := os.LookupEnv("TERMINFO")

	// termbox fails on some tmux TERM values while TERMINFO is set
	if hadTERMINFO && strings.HasPrefix(os.Getenv("TERM"), "tmux") {
		if err := os.Unsetenv("TERMINFO"); err != nil {
			return nil, err
		}
	}

	restore := func() {
		if !hadTERMINFO {
			return
		}

		if err := os.Setenv("TERMINFO", prevTERMINFO); err != nil {
			log.WithError(err).Warn("failed to restore TERMINFO")
		}
	}

	return restore, nil
}
