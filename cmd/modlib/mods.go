package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "扫描模组库并输出 JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, _, err := openLibrary()
			if err != nil {
				return err
			}
			return printJSON(cmd, lib.Scan())
		},
	}

	enableCmd = &cobra.Command{
		Use:   "enable <mod-id>",
		Short: "启用模组",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, args[0], true)
		},
	}

	disableCmd = &cobra.Command{
		Use:   "disable <mod-id>",
		Short: "禁用模组",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, args[0], false)
		},
	}

	moveCmd = &cobra.Command{
		Use:   "move <mod-id> [group]",
		Short: "把模组移动到分组，不指定分组时移动到默认分组",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, _, err := openLibrary()
			if err != nil {
				return err
			}
			group := ""
			if len(args) == 2 {
				group = args[1]
			}
			newID, err := lib.MoveMod(args[0], group)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), newID)
			return nil
		},
	}
)

func runToggle(cmd *cobra.Command, modID string, enable bool) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	newID, err := lib.Toggle(modID, enable)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), newID)
	return nil
}
