package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dokanfs",
	Short: "Serve Go filesystems through the Dokan user-mode driver",
	Long: `dokanfs mounts a volume backed by memory, a local directory, a BadgerDB
database or an S3 bucket through the Dokan 1.x driver.

Configuration is read from $XDG_CONFIG_HOME/dokanfs/config.yaml unless
--config is given. Run "dokanfs init" to write a commented sample.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/dokanfs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(mountCmd, unmountCmd, initCmd, schemaCmd, versionCmd)
}
