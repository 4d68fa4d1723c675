package cmd

import (
	"fmt"

	"github.com/marmos91/dokanfs/pkg/config"
	"github.com/spf13/cobra"
)

var (
	initForce bool
	initPath  string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a commented configuration file with every default filled in.

The file goes to the default location unless --path is given. An existing
file is only replaced with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := initPath
		if path == "" {
			written, err := config.InitConfig(initForce)
			if err != nil {
				return err
			}
			path = written
		} else if err := config.InitConfigToPath(path, initForce); err != nil {
			return err
		}

		fmt.Printf("Configuration written to %s\n", path)
		fmt.Println("Edit mount.mount_point and the backend section, then run: dokanfs mount")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	initCmd.Flags().StringVarP(&initPath, "path", "p", "", "write the config to this path instead of the default location")
}
