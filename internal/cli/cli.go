package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// globalOptions carries the persistent flags and process streams.
type globalOptions struct {
	ConfigPath string
	LogLevel   string
	DataDir    string

	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
}

func defaultGlobals() *globalOptions {
	return &globalOptions{Stdout: os.Stdout, Stderr: os.Stderr, Getenv: os.Getenv}
}

// MainWithArgs runs the CLI and returns the process exit code: 0 on
// success, 1 on any error.
func MainWithArgs(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, defaultGlobals())
}

func run(ctx context.Context, args []string, g *globalOptions) int {
	root := buildRootCmdWith(g)
	root.SetArgs(args)
	root.SetOut(g.Stdout)
	root.SetErr(g.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(g.Stderr, "error:", err)
		return 1
	}
	return 0
}

// Main is the process entry point.
func Main() { os.Exit(MainWithArgs(os.Args[1:])) }
