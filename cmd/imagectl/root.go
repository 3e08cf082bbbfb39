package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docker/docker/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kronenthaler/simple-http-file-server/internal/adapters/descriptor"
	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

// DefaultTag names the image when --tag is not given.
const DefaultTag = "simple-http-file-server:latest"

var (
	// cfgFile is the CLI --config flag value
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "imagectl",
	Short: "Render, build, run and verify the file server image",
	Long: `imagectl turns the file server's image descriptor into a Dockerfile,
builds it through the Docker Engine API, starts containers from it and checks
that a built image honours the descriptor's layout and entrypoint.

Settings resolve as: flag > IMAGECTL_* environment variable > imagectl.yaml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadSettings(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./imagectl.yaml)")
	rootCmd.PersistentFlags().String("descriptor", "", "Image descriptor file (YAML or TOML); empty uses the built-in descriptor")
	rootCmd.PersistentFlags().String("docker-host", "", "Docker daemon address (default from DOCKER_HOST)")
	rootCmd.PersistentFlags().String("tag", DefaultTag, "Image tag")
}

// loadSettings layers the config file and environment under the flags of cmd.
func loadSettings(cmd *cobra.Command) error {
	v.SetEnvPrefix("IMAGECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("imagectl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return v.BindPFlags(cmd.InheritedFlags())
}

// loadDescriptor returns the descriptor named by --descriptor, or the
// built-in one.
func loadDescriptor() (domain.ImageDescriptor, error) {
	path := v.GetString("descriptor")
	if path == "" {
		return domain.DefaultImageDescriptor(), nil
	}
	return descriptor.Load(path)
}

func dockerOpts() []client.Opt {
	if host := v.GetString("docker-host"); host != "" {
		return []client.Opt{client.WithHost(host)}
	}
	return nil
}
