package shell

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// TerminalPasswordReader reads a password from f with echo disabled. It
// returns nil when f is not a terminal, so piped input is read as a plain line
// by the shell's own scanner.
func TerminalPasswordReader(f *os.File) PasswordReader {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
}
