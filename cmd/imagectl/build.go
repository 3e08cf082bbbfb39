package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kronenthaler/simple-http-file-server/internal/adapters/builder"
	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the image from the descriptor",
	Long: `Build assembles a build context from the files the descriptor copies,
renders the Dockerfile into it and builds it. With --repo the context is a
shallow clone of a git repository instead of a local directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := loadDescriptor()
		if err != nil {
			return err
		}

		b, err := builder.NewBuilderAdapter(dockerOpts()...)
		if err != nil {
			return err
		}

		req := ports.BuildRequest{
			Descriptor: d,
			ContextDir: v.GetString("context"),
			Tags:       []string{v.GetString("tag")},
			Progress:   cmd.OutOrStdout(),
			NoCache:    v.GetBool("no-cache"),
			Pull:       v.GetBool("pull"),
		}

		var id string
		if repo := v.GetString("repo"); repo != "" {
			id, err = b.BuildFromRepo(cmd.Context(), repo, v.GetString("ref"), req)
		} else {
			id, err = b.BuildImage(cmd.Context(), req)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Built %s (%s)\n", req.Tags[0], id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("context", ".", "Directory holding the files the descriptor copies")
	buildCmd.Flags().String("repo", "", "Git repository to clone as the build context")
	buildCmd.Flags().String("ref", "", "Branch to clone with --repo")
	buildCmd.Flags().Bool("no-cache", false, "Do not use the build cache")
	buildCmd.Flags().Bool("pull", false, "Always pull a newer base image")
}
