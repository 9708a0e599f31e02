// Package cli is the vigia command line: offline enrollment, single-image recognition,
// video tracking and gallery maintenance against the same store the API server uses.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/vigia/internal/bootstrap"
	"github.com/saturnino-fabrica-de-software/vigia/internal/config"
)

const Version = "0.1.0"

// Options are the flags shared by every subcommand
type Options struct {
	EnvFile string
	Verbose bool
}

// app is the state built in PersistentPreRunE and released in PersistentPostRun
type app struct {
	opts       Options
	cfg        *config.Config
	logger     *slog.Logger
	components *bootstrap.Components

	// loadConfig is swapped in tests
	loadConfig func() (*config.Config, error)
}

// NewRootCmd assembles the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	a := &app{loadConfig: config.Load}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vigia",
		Short: "Face identity matching and frame tracking",
		Long: `Vigia enrolls people from a few photos, recognizes them in single images and
keeps stable labels for the faces in a video or a directory of frames.

Configuration comes from the environment (and an optional .env file), the same
variables the API server reads: STORE, GALLERY_PATH, DATABASE_URL, PROVIDER_TYPE...`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.PersistentFlags().StringVar(&a.opts.EnvFile, "env-file", "", "Load variables from this file (default: .env when present)")
	root.PersistentFlags().BoolVarP(&a.opts.Verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		a.enrollCmd(),
		a.recognizeCmd(),
		a.trackCmd(),
		a.galleryCmd(),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	if a.opts.EnvFile != "" {
		if err := godotenv.Load(a.opts.EnvFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else {
		// .env is optional
		_ = godotenv.Load()
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = config.NewCLILogger(a.opts.Verbose)

	components, err := bootstrap.Build(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	a.components = components
	return nil
}

func (a *app) teardown() {
	if a.components != nil {
		a.components.Store.Close()
		a.components = nil
	}
}

// Execute runs the CLI until done or interrupted and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{loadConfig: config.Load}
	err := a.rootCmd().ExecuteContext(ctx)
	// PersistentPostRun is skipped when a command fails
	a.teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
