package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

func (a *app) enrollCmd() *cobra.Command {
	var (
		label   string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "enroll --label NAME IMAGE [IMAGE...]",
		Short: "Enroll a person from one or more photos",
		Long: `Describes the face in every image and stores the mean descriptor under NAME.
Images where no single face can be described are skipped. Use --replace to
overwrite an identity that is already enrolled.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := readFiles(args)
			if err != nil {
				return err
			}

			enroll := a.components.Enrollment.Register
			if replace {
				enroll = a.components.Enrollment.Enroll
			}

			identity, err := enroll(cmd.Context(), label, images)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "enrolled %q from %d of %d image(s)\n",
				identity.Label, identity.SourceCount, len(images))
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Name of the person")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace an existing identity with the same label")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

// readFiles loads every path fully. Image validation happens in the descriptor source.
func readFiles(paths []string) ([][]byte, error) {
	images := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(data) == 0 {
			return nil, domain.ErrInvalidImage.WithMessage("empty file: " + path)
		}
		images = append(images, data)
	}
	return images, nil
}
