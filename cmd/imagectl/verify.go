package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kronenthaler/simple-http-file-server/internal/adapters/docker"
	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a built image against the descriptor",
	Long: `Verify reads the image's entrypoint and exposed ports and stats the
descriptor's directories and files inside a container that is created but
never started.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := loadDescriptor()
		if err != nil {
			return err
		}
		a, err := docker.NewAdapter(dockerOpts()...)
		if err != nil {
			return err
		}
		defer a.Close()

		tag := v.GetString("tag")
		if err := verifyImage(cmd, a, d, tag); err != nil {
			return fmt.Errorf("image %s does not match the descriptor: %w", tag, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "image %s matches the descriptor\n", tag)
		return nil
	},
}

func verifyImage(cmd *cobra.Command, inspector ports.ImageInspector, d domain.ImageDescriptor, image string) error {
	cfg, err := inspector.InspectImage(cmd.Context(), image)
	if err != nil {
		return err
	}
	stats, err := inspector.StatPaths(cmd.Context(), image, d.LayoutPaths())
	if err != nil {
		return err
	}
	return d.CheckImage(cfg, stats)
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
