package domain

import (
	"strings"

	"github.com/mattn/go-shellwords"
	"go.trai.ch/zerr"
)

// ShellPath is the interpreter used for shell command lines.
const ShellPath = "/bin/sh"

// Command is the ordered argument list of one program invocation.
// The first part names the program; it is resolved through PATH and is never
// interpreted by a shell.
type Command struct {
	parts []string
}

// NewCommand creates a Command from the given parts.
func NewCommand(parts ...string) Command {
	c := Command{}
	c.Append(parts...)
	return c
}

// ParseCommand splits a shell-style command line into a Command.
// Quotes and escapes are honoured; variables and globs are not expanded.
// Unquoted shell operators such as | or > are rejected; use ShellCommand
// for lines that need a shell.
func ParseCommand(line string) (Command, error) {
	parser := shellwords.NewParser()
	parts, err := parser.Parse(line)
	if err != nil {
		wrapped := zerr.With(zerr.Wrap(ErrInvalidCommandLine, "parse command"), "line", line)
		return Command{}, zerr.With(wrapped, "reason", err.Error())
	}
	if parser.Position >= 0 {
		wrapped := zerr.With(zerr.Wrap(ErrInvalidCommandLine, "parse command"), "line", line)
		return Command{}, zerr.With(wrapped, "reason", "unquoted shell operator")
	}
	return NewCommand(parts...), nil
}

// ShellCommand wraps a command line so that it runs through /bin/sh -c.
func ShellCommand(line string) Command {
	return NewCommand(ShellPath, "-c", line)
}

// Append adds parts to the end of the command.
func (c *Command) Append(parts ...string) {
	c.parts = append(c.parts, parts...)
}

// Clear removes all parts. Copies taken before Clear keep their parts.
func (c *Command) Clear() {
	c.parts = nil
}

// Empty reports whether the command has no parts and therefore cannot run.
func (c Command) Empty() bool {
	return len(c.parts) == 0
}

// Len returns the number of parts.
func (c Command) Len() int {
	return len(c.parts)
}

// Program returns the program name, or "" for an empty command.
func (c Command) Program() string {
	if c.Empty() {
		return ""
	}
	return c.parts[0]
}

// Args returns the arguments following the program name.
func (c Command) Args() []string {
	if c.Empty() {
		return nil
	}
	return append([]string(nil), c.parts[1:]...)
}

// Argv returns a copy of the full argument vector, program included.
func (c Command) Argv() []string {
	return append([]string(nil), c.parts...)
}

// Clone returns an independent copy of the command.
func (c Command) Clone() Command {
	return Command{parts: c.Argv()}
}

// String renders the command so that it can be pasted into a POSIX shell.
func (c Command) String() string {
	quoted := make([]string, len(c.parts))
	for i, p := range c.parts {
		quoted[i] = shellQuote(p)
	}
	return strings.Join(quoted, " ")
}

// shellSafe holds the characters that never need quoting.
const shellSafe = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@%+=:,./-_"

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.Trim(s, shellSafe) == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
