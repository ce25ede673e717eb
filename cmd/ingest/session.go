package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ingest/internal/presentation/graph"
	"github.com/aretw0/ingest/pkg/domain"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored wizard sessions",
	Long:  `List, inspect, and remove the sessions kept by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, _, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		sessions, err := stack.Wizard.Sessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No active sessions found.")
			return nil
		}

		fmt.Fprintln(out, "Active Sessions:")
		for _, id := range sessions {
			state, err := stack.Wizard.State(cmd.Context(), id)
			if err != nil {
				fmt.Fprintf(out, "- %s (unreadable: %v)\n", id, err)
				continue
			}
			current := "-"
			if step := state.Current(); step != nil {
				current = step.Key()
			}
			fmt.Fprintf(out, "- %s step %d/%d (%s)\n", id, state.CurrentStep+1, len(state.Steps), current)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, _, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		sessionID := args[0]
		state, err := stack.Wizard.State(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}

		if asGraph, _ := cmd.Flags().GetBool("graph"); asGraph {
			steps := state.Steps
			flat := make([]domain.Step, 0, len(steps))
			for _, s := range steps {
				if s != nil {
					flat = append(flat, *s)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(flat, graph.OverlayFor(state)))
			return nil
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id]...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, _, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			args, err = stack.Wizard.Sessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
		} else if len(args) == 0 {
			return errors.New("requires at least one session id, or --all")
		}

		var errs []error
		for _, sessionID := range args {
			if err := stack.Wizard.Abandon(cmd.Context(), sessionID); err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().Bool("graph", false, "Print the steps as a Mermaid flowchart with the session progress")
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
}
