package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/ingest/internal/presentation/graph"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the steps a wizard would offer",
	Long: `Lists the steps contributed by the built-in steps, the step directory and
the solution packs for the given content models, in wizard order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, cfg, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		models, _ := cmd.Flags().GetStringSlice("model")
		if len(models) == 0 {
			models = cfg.Wizard.Models
		}
		steps, err := stack.Wizard.Steps(cmd.Context(), models)
		if err != nil {
			return fmt.Errorf("error listing steps: %w", err)
		}

		out := cmd.OutOrStdout()
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(steps)
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(steps, nil))
			return nil
		case "", "text":
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WEIGHT\tID\tRENDERER\tTITLE")
			for _, s := range steps {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Weight, s.Key(), s.Renderer, s.Title)
			}
			return tw.Flush()
		default:
			return fmt.Errorf("unknown format %q: use text, json or mermaid", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
	stepsCmd.Flags().StringSliceP("model", "m", nil, "Content models (default from configuration)")
	stepsCmd.Flags().StringP("format", "f", "text", "Output format: text, json or mermaid")
}
