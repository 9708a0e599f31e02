package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (a *app) recognizeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recognize IMAGE",
		Short: "Identify the single face in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			result, err := a.components.Engine.RecognizeOnce(cmd.Context(), a.components.Snapshots.Load(), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(result)
			}
			if result.IsUnknown() {
				fmt.Fprintln(out, result.Label)
				return nil
			}
			fmt.Fprintf(out, "%s\t%.4f\n", result.Label, float64(result.Distance))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match result as JSON")
	return cmd
}
