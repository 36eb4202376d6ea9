package main

import "github.com/spf13/cobra"

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "管理分组",
}

func init() {
	groupCmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "创建分组",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			lib, _, err := openLibrary()
			if err != nil {
				return err
			}
			return lib.CreateGroup(args[0])
		},
	})

	groupCmd.AddCommand(&cobra.Command{
		Use:   "rename <old> <new>",
		Short: "重命名分组",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			lib, _, err := openLibrary()
			if err != nil {
				return err
			}
			return lib.RenameGroup(args[0], args[1])
		},
	})

	groupCmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "删除分组及其中的所有模组（Windows 上移入回收站）",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			lib, _, err := openLibrary()
			if err != nil {
				return err
			}
			return lib.DeleteGroup(args[0])
		},
	})
}
