package main

import (
	"errors"
	"fmt"

	"github.com/mirbf/modlib"
	"github.com/spf13/cobra"
)

var (
	launcherTarget     string
	launcherExe        string
	launcherArgs       string
	launcherUseShell   bool
	launcherShowErrors bool
	launcherAnalyse    bool
	launcherInitDelay  int
	launcherAutoExit   int
	launcherExtraDLL   string

	launcherCmd = &cobra.Command{
		Use:   "launcher",
		Short: "把启动设置写入 3DMigoto 的 d3dx.ini",
	}
)

func init() {
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "写入启动设置",
		Args:  cobra.NoArgs,
		RunE:  runLauncherApply,
	}
	applyCmd.Flags().StringVar(&launcherTarget, "target", "", "游戏可执行文件")
	applyCmd.Flags().StringVar(&launcherExe, "launch", "", "启动器可执行文件")
	applyCmd.Flags().StringVar(&launcherArgs, "launch-args", "", "启动参数")
	applyCmd.Flags().BoolVar(&launcherUseShell, "use-shell", false, "由外部启动游戏，删除 launch 和 launch_args")
	applyCmd.Flags().BoolVar(&launcherShowErrors, "show-warnings", false, "显示 3DMigoto 警告")
	applyCmd.Flags().BoolVar(&launcherAnalyse, "analyse-options", false, "自动设置帧分析选项")
	applyCmd.Flags().IntVar(&launcherInitDelay, "dll-init-delay", 0, "DLL 初始化延迟（毫秒）")
	applyCmd.Flags().IntVar(&launcherAutoExit, "auto-exit", 0, "启动后自动退出的秒数")
	applyCmd.Flags().StringVar(&launcherExtraDLL, "inject-dll", "", "额外注入的 DLL")
	launcherCmd.AddCommand(applyCmd)

	launcherCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "读取 d3dx.ini 中的启动设置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := d3dxPath()
			if err != nil {
				return err
			}
			settings, err := modlib.ReadLauncherSettings(path)
			if err != nil {
				return err
			}
			return printJSON(cmd, settings)
		},
	})

	launcherCmd.AddCommand(&cobra.Command{
		Use:       "symlink <on|off>",
		Short:     "开关帧分析的 symlink 选项",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(_ *cobra.Command, args []string) error {
			path, err := d3dxPath()
			if err != nil {
				return err
			}
			switch args[0] {
			case "on":
				return modlib.ToggleSymlink(path, true)
			case "off":
				return modlib.ToggleSymlink(path, false)
			default:
				return fmt.Errorf("参数必须是 on 或 off: %q", args[0])
			}
		},
	})

	launcherCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "检查 3DMigoto 目录是否完整",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if settings.MigotoDir == "" {
				return errors.New("设置中没有 migotoDir")
			}
			if !modlib.CheckMigotoIntegrity(settings.MigotoDir) {
				return modlib.NewModError(modlib.ErrNotFound, "缺少 d3d11.dll 或 d3dx.ini", settings.MigotoDir, nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	})
}

func runLauncherApply(cmd *cobra.Command, _ []string) error {
	path, err := d3dxPath()
	if err != nil {
		return err
	}

	s := modlib.LauncherSettings{
		TargetExe:             launcherTarget,
		LauncherExe:           launcherExe,
		LaunchArgs:            launcherArgs,
		UseShell:              launcherUseShell,
		ShowErrorPopup:        launcherShowErrors,
		AutoSetAnalyseOptions: launcherAnalyse,
		ExtraDLL:              launcherExtraDLL,
	}
	if cmd.Flags().Changed("dll-init-delay") {
		s.DLLInitDelay = &launcherInitDelay
	}
	if cmd.Flags().Changed("auto-exit") {
		s.AutoExitSeconds = &launcherAutoExit
	}
	return modlib.ProjectLauncherSettings(path, s)
}

// d3dxPath 设置中的 d3dx.ini 路径
func d3dxPath() (string, error) {
	settings, err := loadSettings()
	if err != nil {
		return "", err
	}
	path := settings.D3DXPath()
	if path == "" {
		return "", errors.New("设置中没有 migotoDir")
	}
	return path, nil
}
