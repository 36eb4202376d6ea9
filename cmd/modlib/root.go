package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mirbf/modlib"
	"github.com/spf13/cobra"
)

var (
	// cfgFile 设置文件路径，默认为 XDG 配置目录中的 modlib/settings.json
	cfgFile string
	// modsRoot 覆盖设置中的模组根目录
	modsRoot string
	// verbose 输出调试日志
	verbose bool

	rootCmd = &cobra.Command{
		Use:          "modlib",
		Short:        "3DMigoto 模组库管理",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "设置文件 (默认 $XDG_CONFIG_HOME/modlib/settings.json)")
	rootCmd.PersistentFlags().StringVar(&modsRoot, "mods", "", "模组根目录 (覆盖设置)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(iniCmd)
	rootCmd.AddCommand(launcherCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(settingsCmd)
}

// newLogger 按 --verbose 创建日志记录器
func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return modlib.NewLogger(os.Stderr, level)
}

// loadSettings 读取设置并应用命令行覆盖
func loadSettings() (*modlib.Settings, error) {
	settings, err := modlib.LoadSettings(cfgFile)
	if err != nil {
		return nil, err
	}
	if modsRoot != "" {
		settings.ModsRoot = modsRoot
	}
	return settings, nil
}

// openLibrary 按设置创建模组库
func openLibrary(opts ...modlib.LibraryOption) (*modlib.Library, *modlib.Settings, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	return settings.OpenLibrary(newLogger(), opts...), settings, nil
}

// printJSON 以缩进 JSON 输出
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("输出 JSON 失败: %w", err)
	}
	return nil
}
