package main

import (
	"fmt"

	"github.com/mirbf/modlib"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "查看或初始化设置",
}

func init() {
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "输出当前生效的设置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			return printJSON(cmd, settings)
		},
	})

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "把当前生效的设置写入设置文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			path := cfgFile
			if path == "" {
				if path, err = modlib.DefaultSettingsPath(); err != nil {
					return err
				}
			}
			if err := modlib.SaveSettings(path, settings); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
}
