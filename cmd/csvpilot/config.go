// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"csvpilot/internal/config"

	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage csvpilot configuration",
		Long: `Manage the csvpilot configuration file.

The configuration lives in a CUE file and is validated against a schema
on every load.

Examples:
  csvpilot config show
  csvpilot config init
  csvpilot config path`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewProvider().Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
			if err != nil {
				return wrapForExit(cmd, err)
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long:  `Create a default configuration file if one does not exist. An existing file is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfig(); err != nil {
				return wrapForExit(cmd, err)
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return wrapForExit(cmd, err)
			}
			path := filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
			fmt.Println(SuccessStyle.Render("Configuration ready: ") + FileStyle.Render(path))
			return nil
		},
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				fmt.Println(cfgFile)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return wrapForExit(cmd, err)
			}
			fmt.Println(filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}
