// Package cmd implements the weft command line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/weft/internal/config"
)

// NewRootCmd builds the command tree. Every call returns fresh commands and
// flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "weft",
		Short: "Plugin-driven workspace build orchestrator",
		Long: `weft builds the web apps, packages and services of a workspace.

Plugins named in the workspace manifest contribute the steps of every
project, optionally once per build variant, plus workspace-wide pre and
post steps.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initConfig()
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/weft/config.yaml)")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.AddCommand(newBuildCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newPluginsCmd())

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("WEFT")
	// Replace dots with underscores for nested keys in env vars
	// e.g., WEFT_BUILD_CONCURRENCY for build.concurrency
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
