package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// readLine reads one line of input without its line ending. A final line
// without a newline is accepted.
func (a *App) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt asks for a value. An empty answer yields current.
func (a *App) prompt(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(a.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(a.out, "%s: ", label)
	}
	line, err := a.readLine()
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current, nil
	}
	return line, nil
}

// password asks for a secret without echo when possible.
func (a *App) password(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	return a.readPassword()
}

// confirm asks a yes/no question; only an explicit yes confirms.
func (a *App) confirm(question string) (bool, error) {
	fmt.Fprintf(a.out, "%s [s/N]: ", question)
	line, err := a.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "sim", "y", "yes":
		return true, nil
	}
	return false, nil
}
