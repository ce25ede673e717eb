package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ingest/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configured steps and solution packs",
	Long: `Checks that every step offered for the given content models uses a registered
renderer, a known step type and a provided include, and that no step id is
contributed twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, cfg, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		modelSets := [][]string{nil}
		models, _ := cmd.Flags().GetStringSlice("model")
		if len(models) == 0 {
			models = cfg.Wizard.Models
		}
		for _, m := range models {
			modelSets = append(modelSets, []string{m})
		}
		if len(models) > 1 {
			modelSets = append(modelSets, models)
		}

		if err := validator.ValidateSteps(cmd.Context(), stack.Steps, stack.Forms, modelSets...); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Steps are valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringSliceP("model", "m", nil, "Content models to check (default from configuration)")
}
