package main

import (
	"fmt"

	"github.com/mirbf/modlib"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive> <dir>",
	Short: "把压缩包解压到任意目录（不经过模组库）",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ok, _ := modlib.IsSupported(args[0]); !ok {
			return fmt.Errorf("无法识别压缩包 %s (支持 %v)", args[0], modlib.GetSupportedFormats())
		}
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		result, err := modlib.ExtractArchive(cmd.Context(), args[0], args[1], &modlib.ExtractOptions{
			Passwords:        settings.Passwords,
			BuiltinPasswords: settings.BuiltinPasswords,
			NameEncoding:     settings.NameEncoding,
			Logger:           newLogger(),
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}
