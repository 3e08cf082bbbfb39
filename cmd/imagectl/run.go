package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/spf13/cobra"

	"github.com/kronenthaler/simple-http-file-server/internal/adapters/docker"
	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

var runCmd = &cobra.Command{
	Use:   "run [-- ARGS...]",
	Short: "Start a container from the built image",
	Long: `Run starts one container from the image. The image entrypoint is used
unchanged unless arguments follow "--", which replace its arguments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDescriptor()
		if err != nil {
			return err
		}
		a, err := docker.NewAdapter(dockerOpts()...)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := domain.RunOptions{
			Name:         v.GetString("name"),
			PortBindings: map[string]string{},
		}
		if len(args) > 0 {
			opts.Command = append([]string{}, args...)
		}
		if publish := v.GetString("publish"); publish != "" && len(d.ExposedPorts) > 0 {
			opts.PortBindings[d.ExposedPorts[0].String()] = publish
		}
		if volume := v.GetString("volume"); volume != "" {
			abs, err := filepath.Abs(volume)
			if err != nil {
				return err
			}
			opts.Volumes = map[string]string{abs: domain.StorageDir}
		}

		id, err := a.StartContainer(cmd.Context(), v.GetString("tag"), opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop ID",
	Short: "Stop a container started by run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := docker.NewAdapter(dockerOpts()...)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.StopContainer(cmd.Context(), args[0])
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs ID",
	Short: "Print the logs of a container started by run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := docker.NewAdapter(dockerOpts()...)
		if err != nil {
			return err
		}
		defer a.Close()

		logs, err := a.GetContainerLogs(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer logs.Close()
		// Containers run without a TTY, so the stream is multiplexed.
		_, err = stdcopy.StdCopy(cmd.OutOrStdout(), cmd.ErrOrStderr(), logs)
		return err
	},
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List containers started by run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := docker.NewAdapter(dockerOpts()...)
		if err != nil {
			return err
		}
		defer a.Close()

		image := ""
		if !v.GetBool("all") {
			image = v.GetString("tag")
		}
		containers, err := a.ListContainers(cmd.Context(), image)
		if err != nil {
			return err
		}
		return printContainers(cmd.OutOrStdout(), containers)
	},
}

func printContainers(out io.Writer, containers []domain.Container) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tIMAGE\tSTATE\tSTATUS\tIP")
	for _, c := range containers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Image, c.State, c.Status, c.IPAddress)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(runCmd, stopCmd, logsCmd, psCmd)

	runCmd.Flags().String("name", "", "Container name")
	runCmd.Flags().String("publish", "", "Host port bound to the image's first exposed port")
	runCmd.Flags().String("volume", "", "Host directory mounted as the storage root")
	psCmd.Flags().Bool("all", false, "Include containers of every image")
}
