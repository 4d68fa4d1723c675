package cmd

import (
	"fmt"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../cmd.version=v1.2.3".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dokanfs, library and driver versions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dokanfs %s\n", version)

		lib, err := dokan.Version()
		if err != nil {
			fmt.Printf("dokan library: unavailable (%v)\n", err)
			return
		}
		fmt.Printf("dokan library: %d\n", lib)

		drv, err := dokan.DriverVersion()
		if err != nil {
			fmt.Printf("dokan driver: unavailable (%v)\n", err)
			return
		}
		fmt.Printf("dokan driver: %d\n", drv)
	},
}
