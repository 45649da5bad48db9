// Package shell runs the interactive read-evaluate loop: it tokenizes
// input lines, executes the built-in commands and dispatches everything
// else to the host's registry.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/plugsh/plugsh/domain/ports"
	"github.com/plugsh/plugsh/host"
)

// Shell drives one host through one prompter. Everything runs on the
// calling goroutine; the only suspension point is blocking line input.
type Shell struct {
	host     *host.Host
	prompter ports.Prompter
	out      io.Writer
	logger   *slog.Logger
}

// Option configures a Shell.
type Option func(*Shell)

// WithHost sets the host the shell dispatches into.
func WithHost(h *host.Host) Option {
	return func(s *Shell) {
		s.host = h
	}
}

// WithPrompter sets the line source and default prompt writer.
func WithPrompter(p ports.Prompter) Option {
	return func(s *Shell) {
		s.prompter = p
	}
}

// WithOutput sets the writer for command output.
func WithOutput(w io.Writer) Option {
	return func(s *Shell) {
		s.out = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// New creates a Shell with the given options.
func New(opts ...Option) *Shell {
	s := &Shell{
		out:    os.Stdout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the loop until end of input or the exit command. Only
// prompt and input I/O failures are returned; every per-command failure
// degrades to a printed message and the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Hello!")

	for {
		if err := s.writePrompt(ctx); err != nil {
			return err
		}

		line, err := s.prompter.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		command, args, ok := parseLine(line)
		if !ok {
			continue
		}

		switch command {
		case "help":
			s.printHelp()
		case "echo":
			fmt.Fprintln(s.out, strings.Join(args, " "))
		case "exit":
			fmt.Fprintln(s.out, "Good bye!")
			return nil
		case "load-plugin":
			s.loadPlugin(ctx, args)
		case "unload-all-plugins":
			s.unloadAll(ctx)
		default:
			if !s.host.Dispatch(ctx, command, args) {
				fmt.Fprintf(s.out, "unknown command `%s`\n", command)
			}
		}
	}

	fmt.Fprintln(s.out, "Good bye!")
	return nil
}

// writePrompt renders the loaded module's custom prompt when one exists,
// the default prompt otherwise. A failing custom prompt degrades to the
// default so a broken extension cannot wedge the loop.
func (s *Shell) writePrompt(ctx context.Context) error {
	if custom := s.host.Prompt(); custom != nil {
		err := custom(ctx)
		if err == nil {
			return nil
		}
		fmt.Fprintf(s.out, "ERROR: custom prompt failed: %v\n", err)
	}
	return s.prompter.WriteDefault()
}

// parseLine tokenizes one input line into a command and its arguments.
func parseLine(line string) (command string, args []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "supported commands:")
	for _, name := range []string{"help", "echo", "exit", "load-plugin", "unload-all-plugins"} {
		fmt.Fprintf(s.out, "   %s\n", name)
	}
	if commands := s.host.Commands(); len(commands) > 0 {
		fmt.Fprintln(s.out, "commands from plugins:")
		for _, name := range commands {
			fmt.Fprintf(s.out, "   %s\n", name)
		}
	}
}

func (s *Shell) loadPlugin(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "expected a file path as first argument")
		return
	}
	if err := s.host.LoadPlugin(ctx, args[0]); err != nil {
		fmt.Fprintf(s.out, "ERROR: %v\n", err)
		s.logger.Debug("load failed", "path", args[0], "error", err)
	}
}

func (s *Shell) unloadAll(ctx context.Context) {
	if err := s.host.UnloadAll(ctx); err != nil {
		fmt.Fprintf(s.out, "ERROR: %v\n", err)
	}
}
