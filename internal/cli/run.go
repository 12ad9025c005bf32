package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/internal/presentation/tui"
)

// RunOptions controls an interactive run.
type RunOptions struct {
	// Plain disables colours, the banner and markdown rendering.
	Plain  bool
	Logger *slog.Logger
}

// RunSession runs an interactive session on store until the user quits or a
// signal arrives. Interruptions are not errors.
func RunSession(ctx context.Context, store *regions.Store, in io.Reader, out io.Writer, opts RunOptions) error {
	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	sessionOpts := []SessionOption{
		WithLogger(opts.Logger),
		WithStyler(tui.NewStyler(opts.Plain)),
	}
	if !opts.Plain {
		tui.PrintBanner(out)
		sessionOpts = append(sessionOpts, WithRenderer(tui.NewRenderer()))
	}

	err := NewSession(store, in, out, sessionOpts...).Run(sigCtx)
	if sig := sigCtx.Signal(); sig != nil {
		printSystemMessage(out, "Interrupted (%s).", sig)
	}
	return handleExecutionError(err)
}
