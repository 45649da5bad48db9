// Command plugsh is an interactive shell whose commands can be extended
// by loadable modules.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/plugsh/plugsh/application/shell"
	"github.com/plugsh/plugsh/examples/counter"
	"github.com/plugsh/plugsh/host"
	"github.com/plugsh/plugsh/hostfuncs"
	"github.com/plugsh/plugsh/infrastructure/builtin"
	"github.com/plugsh/plugsh/infrastructure/prompter"
	wazeroloader "github.com/plugsh/plugsh/infrastructure/wazero"
)

var (
	flagLogLevel string
	flagPlugins  []string
	flagPrompt   string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugsh",
		Short: "An interactive shell extensible by loadable command modules",
		Long: `plugsh runs an interactive command loop. Modules loaded at runtime with
load-plugin register additional commands and may replace the prompt.
WebAssembly modules load by file path; extensions compiled into the
binary load as builtin:<name>.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.Flags().StringArrayVar(&flagPlugins, "plugin", nil, "plugin to load at startup (repeatable)")
	cmd.Flags().StringVar(&flagPrompt, "prompt", "> ", "default prompt text")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	level, err := charmlog.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}
	logger := slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	}))

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	registrar := hostfuncs.NewRegistrar(
		hostfuncs.WithLogger(logger),
		hostfuncs.WithMiddleware(hostfuncs.PanicRecovery(logger)),
	)

	wasmLoader, err := wazeroloader.NewLoader(ctx,
		wazeroloader.WithRegisterFunc(registrar.Func()),
		wazeroloader.WithLogger(logger),
		wazeroloader.WithStdio(out, cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}
	defer func() { _ = wasmLoader.Close(ctx) }()

	builtinLoader, err := builtin.NewLoader(
		builtin.WithRegisterFunc(registrar.Func()),
		builtin.WithOutput(out),
	)
	if err != nil {
		return err
	}
	if err := builtinLoader.Register(counter.Name, counter.Extension()); err != nil {
		return err
	}

	h := host.New(
		host.WithLoader(host.NewSchemeLoader(wasmLoader).Route(builtin.Scheme, builtinLoader)),
		host.WithRegistrar(registrar),
		host.WithOutput(out),
		host.WithLogger(logger),
	)

	for _, path := range flagPlugins {
		if err := h.LoadPlugin(ctx, path); err != nil {
			return err
		}
	}

	s := shell.New(
		shell.WithHost(h),
		shell.WithPrompter(prompter.NewCliPrompter(cmd.InOrStdin(), out, prompter.WithPrompt(flagPrompt))),
		shell.WithOutput(out),
		shell.WithLogger(logger),
	)
	return s.Run(ctx)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\nBacktrace:\n%s", err, debug.Stack())
		os.Exit(1)
	}
}
