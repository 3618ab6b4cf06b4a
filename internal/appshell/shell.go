package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"kite/internal/appcore"
)

// Main runs a command line entry point with SIGINT/SIGTERM cancelling its
// context, then exits with its code. No arguments prints help.
func Main(run func(context.Context, []string, io.Writer, io.Writer) int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	argv := os.Args[1:]
	if len(argv) == 0 {
		argv = []string{"--help"}
	}

	code := run(ctx, argv, os.Stdout, os.Stderr)
	// A signal turns a clean exit into an interrupted one.
	if ctx.Err() != nil && code == appcore.ExitOK {
		code = appcore.ExitInterrupted
	}

	stop()
	os.Exit(code)
}
