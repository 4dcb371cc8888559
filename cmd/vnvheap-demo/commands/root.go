// Package commands implements the vnvheap-demo CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "vnvheap-demo",
	Short: "Drive a vNV-heap through its allocate/sync/evict/drop lifecycle",
	Long: `vnvheap-demo is a runnable example around the vnvheap library.

Use "vnvheap-demo init" to write a starting configuration file, then
"vnvheap-demo run" to drive one allocate/get_mut/unload/get/drop
lifecycle against the configured storage backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// GetConfigFile returns the --config flag value, empty meaning "use the
// default location".
func GetConfigFile() string {
	return configFile
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/vnvheap/config.yaml)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
