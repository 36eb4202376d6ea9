package main

import (
	"fmt"

	"github.com/mirbf/modlib"
	"github.com/spf13/cobra"
)

var iniCmd = &cobra.Command{
	Use:   "ini",
	Short: "修改 ini 文件中的键值，保留其余内容",
}

func init() {
	iniCmd.AddCommand(&cobra.Command{
		Use:   "get <file> <section> <key>",
		Short: "读取键值",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := modlib.LoadDocument(args[0])
			if err != nil {
				return err
			}
			value, ok := doc.Get(args[1], args[2])
			if !ok {
				return modlib.NewModError(modlib.ErrNotFound, "键不存在", args[1]+"."+args[2], nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	iniCmd.AddCommand(&cobra.Command{
		Use:   "set <file> <section> <key> <value>",
		Short: "写入键值",
		Args:  cobra.ExactArgs(4),
		RunE: func(_ *cobra.Command, args []string) error {
			return modlib.PatchFile(args[0], func(doc *modlib.Document) error {
				doc.Set(args[1], args[2], args[3])
				return nil
			})
		},
	})

	iniCmd.AddCommand(&cobra.Command{
		Use:   "remove <file> <section> <key>",
		Short: "删除键",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return modlib.PatchFile(args[0], func(doc *modlib.Document) error {
				doc.Remove(args[1], args[2])
				return nil
			})
		},
	})
}
