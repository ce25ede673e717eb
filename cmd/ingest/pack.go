package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/ingest/internal/cli"
	"github.com/aretw0/ingest/pkg/pack"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage the objects required by solution packs",
	Long: `Solution packs are manifests in the configured packs directory. Each one
contributes steps for content models and lists the objects, such as content
models and root collections, it needs in the repository.`,
}

type packAction func(ctx context.Context, m *pack.Manifest, stack *cli.Stack, force bool) ([]pack.ObjectStatus, error)

func packCommand(use, short string, action packAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, _, err := loadStack(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			manifests, err := selectPacks(cmd, stack.Packs)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			var errs []error
			for _, m := range manifests {
				statuses, err := action(cmd.Context(), m, stack, force)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", m.Module, err))
				}
				if len(statuses) > 0 {
					printStatuses(cmd.OutOrStdout(), m, statuses)
				}
			}
			return errors.Join(errs...)
		},
	}
}

var (
	packStatusCmd = packCommand("status", "Show whether the required objects exist",
		func(ctx context.Context, m *pack.Manifest, stack *cli.Stack, _ bool) ([]pack.ObjectStatus, error) {
			return m.Status(ctx, stack.Objects)
		})
	packInstallCmd = packCommand("install", "Create the missing required objects",
		func(ctx context.Context, m *pack.Manifest, stack *cli.Stack, force bool) ([]pack.ObjectStatus, error) {
			return m.Install(ctx, stack.Objects, force)
		})
	packUninstallCmd = packCommand("uninstall", "Delete the required objects",
		func(ctx context.Context, m *pack.Manifest, stack *cli.Stack, force bool) ([]pack.ObjectStatus, error) {
			return m.Uninstall(ctx, stack.Objects, force)
		})
)

// selectPacks returns the --module packs, or every loaded pack.
func selectPacks(cmd *cobra.Command, reg *pack.Registry) ([]*pack.Manifest, error) {
	modules, _ := cmd.Flags().GetStringSlice("module")
	if len(modules) == 0 {
		modules = reg.Modules()
	}
	if len(modules) == 0 {
		return nil, errors.New("no solution packs found: set steps.packs in the configuration")
	}

	out := make([]*pack.Manifest, 0, len(modules))
	for _, module := range modules {
		m, ok := reg.Get(module)
		if !ok {
			return nil, fmt.Errorf("unknown module %q", module)
		}
		out = append(out, m)
	}
	return out, nil
}

func printStatuses(w io.Writer, m *pack.Manifest, statuses []pack.ObjectStatus) {
	fmt.Fprintf(w, "%s\n", m.Module)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range statuses {
		action := ""
		if s.Action != "" && s.Action != pack.ActionNone {
			action = string(s.Action)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", s.ID, s.Label, s.State, action)
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(packCmd)
	for _, c := range []*cobra.Command{packStatusCmd, packInstallCmd, packUninstallCmd} {
		c.Flags().StringSliceP("module", "m", nil, "Modules to act on (default: all packs)")
		packCmd.AddCommand(c)
	}
	packInstallCmd.Flags().Bool("force", false, "Replace objects that differ from the manifest")
	packUninstallCmd.Flags().Bool("force", false, "Delete objects that differ from the manifest")
}
