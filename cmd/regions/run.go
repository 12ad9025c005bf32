package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/internal/cli"
	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/pkg/adapters/file"
	"github.com/aretw0/regions/pkg/session"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive session (default)",
	Long: `Starts an interactive terminal session. With --session the state is kept
in a JSON file (server.session_dir, .regions/sessions by default) and
resumed on the next run with the same ID.`,
	RunE: runInteractive,
}

func runInteractive(cmd *cobra.Command, args []string) error {
	plain, _ := cmd.Flags().GetBool("plain")
	debug, _ := cmd.Flags().GetBool("debug")
	sessionID, _ := cmd.Flags().GetString("session")

	// Logs would interleave with the prompt; only show them when asked.
	sessionLogger := logging.NewNop()
	if debug {
		sessionLogger = logger
	}

	storeOpts := []regions.Option{
		regions.WithFetcher(newFetcher()),
		regions.WithLogger(sessionLogger),
	}

	var store *regions.Store
	if sessionID == "" {
		store = regions.New(storeOpts...)
		defer store.Close()
	} else {
		mgr := session.NewManager(file.NewStore(cfg.Server.SessionDir),
			session.WithLogger(sessionLogger),
			session.WithStoreOptions(storeOpts...),
		)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mgr.Close(ctx); err != nil {
				logger.Error("failed to save session", "session_id", sessionID, "err", err)
			}
		}()

		var err error
		store, err = mgr.LoadOrStart(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("failed to open session %q: %w", sessionID, err)
		}
	}

	return cli.RunSession(cmd.Context(), store, os.Stdin, os.Stdout, cli.RunOptions{
		Plain:  plain || !cli.IsTerminal(os.Stdout),
		Logger: sessionLogger,
	})
}

func init() {
	rootCmd.AddCommand(runCmd)
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().Bool("plain", false, "Disable colours and markdown rendering")
		c.Flags().StringP("session", "s", "", "Persist and resume the session under this ID")
	}
}
