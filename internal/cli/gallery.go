package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) galleryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Inspect and maintain the enrolled identities",
	}
	cmd.AddCommand(a.galleryListCmd(), a.galleryRemoveCmd(), a.galleryExportCmd())
	return cmd
}

func (a *app) galleryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List enrolled identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identities, err := a.components.Enrollment.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(identities) == 0 {
				fmt.Fprintln(out, "No identities enrolled.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "LABEL\tIMAGES\tUPDATED")
			fmt.Fprintln(w, "-----\t------\t-------")
			for _, id := range identities {
				updated := "-"
				if !id.UpdatedAt.IsZero() {
					updated = id.UpdatedAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", id.Label, id.SourceCount, updated)
			}
			return w.Flush()
		},
	}
}

func (a *app) galleryRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove LABEL [LABEL...]",
		Aliases: []string{"rm"},
		Short:   "Remove identities from the gallery",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, label := range args {
				if err := a.components.Enrollment.Delete(cmd.Context(), label); err != nil {
					return fmt.Errorf("remove %q: %w", label, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %q\n", label)
			}
			return nil
		},
	}
}

func (a *app) galleryExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the gallery as CSV (label followed by the descriptor values)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return a.components.Enrollment.Export(w)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}
