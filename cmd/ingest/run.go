package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ingest/internal/cli"
	"github.com/aretw0/ingest/pkg/domain"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a wizard in the terminal",
	Long: `Runs a wizard session interactively. Sessions are stored, so an interrupted
run resumes with --session <id>. With --json steps are written and answers read
as JSON lines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, cfg, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		opts := cli.RunOptions{
			Config: domain.Configuration{Models: cfg.Wizard.Models},
		}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		opts.MaxRejections, _ = cmd.Flags().GetInt("max-rejections")

		if raw, _ := cmd.Flags().GetString("context"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &opts.Config); err != nil {
				return fmt.Errorf("error parsing --context JSON: %w", err)
			}
		}
		if v, _ := cmd.Flags().GetString("namespace"); v != "" {
			opts.Config.Namespace = v
		}
		if v, _ := cmd.Flags().GetString("label"); v != "" {
			opts.Config.Label = v
		}
		if v, _ := cmd.Flags().GetStringSlice("model"); len(v) > 0 {
			opts.Config.Models = v
		}
		if v, _ := cmd.Flags().GetStringSlice("collection"); len(v) > 0 {
			opts.Config.Collections = v
		}

		ctx, stop := cli.WithSignals(context.Background())
		defer stop()

		return cli.RunSession(ctx, stack, opts, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session id to start or resume (default: a new id)")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (JSON lines input/output)")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner and session messages")
	runCmd.Flags().Int("max-rejections", 0, "Stop after that many rejected submissions in a row")
	runCmd.Flags().String("context", "", "Wizard configuration as JSON")
	runCmd.Flags().String("namespace", "", "Namespace of the new object identifier")
	runCmd.Flags().String("label", "", "Initial label of the new object")
	runCmd.Flags().StringSlice("model", nil, "Content models whose steps are offered")
	runCmd.Flags().StringSlice("collection", nil, "Parent collections of the new object")
}
