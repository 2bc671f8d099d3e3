package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultPrompt is shown before each line.
const DefaultPrompt = "authtoken> "

// Config configures a REPL.
type Config struct {
	Input  io.Reader
	Output io.Writer
	Prompt string

	// Commands lists command paths for help and suggestions.
	Commands []string

	// History receives every executed line. May be nil.
	History *History

	// Execute runs one line, already split into arguments.
	Execute func(ctx context.Context, args []string) error
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	completer *Completer
	history   *History
	execute   func(ctx context.Context, args []string) error
}

// New creates a new REPL instance.
func New(cfg Config) *REPL {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.History == nil {
		cfg.History = NewHistory("", 0)
	}
	return &REPL{
		input:     cfg.Input,
		output:    cfg.Output,
		prompt:    cfg.Prompt,
		completer: NewCompleter(cfg.Commands),
		history:   cfg.History,
		execute:   cfg.Execute,
	}
}

// Run reads lines until exit, EOF or ctx is done. Command failures are
// printed and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		args, perr := SplitArgs(line)
		if perr != nil {
			fmt.Fprintf(r.output, "Error: %v\n", perr)
			continue
		}
		if !hasSecret(args) {
			r.history.Add(line)
		}

		switch args[0] {
		case "exit", "quit":
			return nil
		case "help":
			r.help(strings.Join(args[1:], " "))
		case "history":
			for i, entry := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
			}
		default:
			if xerr := r.execute(ctx, args); xerr != nil {
				fmt.Fprintf(r.output, "Error: %v\n", xerr)
				if len(r.completer.Complete(args[0])) == 0 {
					fmt.Fprintln(r.output, `Type "help" for a list of commands.`)
				}
			}
		}
	}
}

func (r *REPL) help(prefix string) {
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "No commands match %q\n", prefix)
		return
	}
	for _, cmd := range matches {
		fmt.Fprintf(r.output, "  %s\n", cmd)
	}
}

// hasSecret reports whether args carry a password or token on the command
// line. Such lines are not recorded in history.
func hasSecret(args []string) bool {
	for _, a := range args {
		name, _, _ := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if strings.HasPrefix(a, "-") && (name == "password" || name == "p" || name == "token") {
			return true
		}
	}
	return false
}

// SplitArgs splits a line into arguments. Single and double quotes group
// words; a backslash escapes the next character outside single quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
			inArg = true
		case ch == ' ' || ch == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(ch)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inArg {
		args = append(args, cur.String())
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}
