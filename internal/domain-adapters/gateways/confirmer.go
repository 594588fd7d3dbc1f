package gateways

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ochairo/preflight/internal/domain/services"
)

// PromptConfirmer asks the operator a yes/no question on the terminal
type PromptConfirmer struct {
	in  io.Reader
	out io.Writer
}

// NewPromptConfirmer creates a confirmer reading answers from in and writing prompts to out
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{
		in:  in,
		out: out,
	}
}

// Confirm writes prompt and waits for an answer without a timeout. On a
// terminal a single keypress answers; otherwise one line is read. Only y or
// Y confirms; end of input and read errors count as no.
func (c *PromptConfirmer) Confirm(prompt string) bool {
	fmt.Fprint(c.out, prompt)

	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		answer, err := readKey(f)
		fmt.Fprintln(c.out, answer)
		if err != nil {
			return false
		}
		return services.IsAffirmative(answer)
	}

	line, err := readLine(c.in)
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}
	return services.IsAffirmative(line)
}

// readKey reads one keypress in raw mode. Control characters such as
// Ctrl-C arrive as plain bytes and are treated as a refusal.
func readKey(f *os.File) (string, error) {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("failed to enter raw mode: %w", err)
	}
	//nolint:errcheck // Best-effort terminal restore
	defer term.Restore(fd, state)

	buf := make([]byte, 1)
	if _, err := f.Read(buf); err != nil {
		return "", err
	}
	if buf[0] < 0x20 || buf[0] == 0x7f {
		return "", nil
	}
	return string(buf), nil
}

// readLine reads up to and including the next newline one byte at a time.
// Input after the newline stays unread for the target application.
func readLine(r io.Reader) (string, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return string(line), nil
			}
			line = append(line, buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return string(line), nil
			}
			return string(line), err
		}
	}
}
