package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillfin/quill/internal/cli"
	"github.com/quillfin/quill/internal/engine"
)

func resumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume a deferred categorization session",
		Long: `Resume walks the pending merchants of a paused run through the
interactive prompter and settles them. Rows you skip stay skipped for
this run but will prompt again in future runs.`,
		Args: cobra.ExactArgs(1),
		RunE: runResume,
	}
	cmd.Flags().StringP("output", "o", "", "output CSV path (default: stdout)")
	return cmd
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sessionID := args[0]

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	book, err := initPhonebook()
	if err != nil {
		return fmt.Errorf("failed to load phonebook: %w", err)
	}

	state, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	prompter.SetTotal(len(state.Pending))

	eng, err := buildEngine(ctx, store, book, prompter, engine.Config{})
	if err != nil {
		return err
	}

	// The engine re-resolves each pending row first, so merchants named
	// earlier in the session settle without another prompt.
	result, err := eng.Resume(ctx, sessionID, nil)
	if err != nil {
		return fmt.Errorf("failed to resume session %s: %w", sessionID, err)
	}

	output, _ := cmd.Flags().GetString("output")
	if err := writeResults(cmd.OutOrStdout(), output, result.Transactions); err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf(
		"session %s: %d resolved, %d still pending",
		sessionID, len(result.Transactions), len(result.Pending))))
	return nil
}
