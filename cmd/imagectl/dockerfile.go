package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kronenthaler/simple-http-file-server/internal/adapters/descriptor"
)

var dockerfileCmd = &cobra.Command{
	Use:   "dockerfile",
	Short: "Print the Dockerfile rendered from the image descriptor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := loadDescriptor()
		if err != nil {
			return err
		}
		out, err := d.Render()
		if err != nil {
			return err
		}
		if path := v.GetString("output"); path != "" {
			return os.WriteFile(path, []byte(out), 0o644)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

var descriptorCmd = &cobra.Command{
	Use:   "descriptor",
	Short: "Print the image descriptor as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := loadDescriptor()
		if err != nil {
			return err
		}
		if err := d.Validate(); err != nil {
			return err
		}
		data, err := descriptor.MarshalYAML(d)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(dockerfileCmd)
	rootCmd.AddCommand(descriptorCmd)

	dockerfileCmd.Flags().StringP("output", "o", "", "Write the Dockerfile to this path instead of stdout")
}
