// Command circlctl runs quiz-driven resource discovery from the terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"circl/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	baseURL string
	timeout time.Duration
	paths   string
)

var rootCmd = &cobra.Command{
	Use:           "circlctl",
	Short:         "Query Circl resource discovery",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.New())
		if err != nil {
			return err
		}
		config.AppConfig = cfg
		if !cmd.Flags().Changed("base-url") {
			baseURL = cfg.DiscoveryBaseURL
		}
		if !cmd.Flags().Changed("timeout") {
			timeout = cfg.DiscoveryTimeout
		}
		if !cmd.Flags().Changed("paths") {
			paths = cfg.DiscoveryPaths
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "discovery API base URL (default from DISCOVERY_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "request timeout (default from DISCOVERY_TIMEOUT)")
	rootCmd.PersistentFlags().StringVar(&paths, "paths", "", "per-domain path overrides, e.g. investor=investor-resources/")

	rootCmd.AddCommand(domainsCmd, discoverCmd, networkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
