package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/mirbf/modlib"
	"github.com/spf13/cobra"
)

const barTemplate = `{{string . "name"}} {{counters . }} {{bar . }} {{percent . }}`

var (
	installGroup string
	installName  string
	installNoBar bool

	installCmd = &cobra.Command{
		Use:   "install <archive>...",
		Short: "安装压缩包为模组",
		Long: `把 zip / 7z / rar 压缩包安装到 <模组根目录>/<分组>/<名称>。

只有一个公共顶层目录时会去掉该目录；目标已存在时安装失败。`,
		Args: cobra.MinimumNArgs(1),
		RunE: runInstall,
	}

	previewCmd = &cobra.Command{
		Use:   "preview <archive>",
		Short: "预览压缩包的顶层目录和文件数",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, _, err := openLibrary()
			if err != nil {
				return err
			}
			preview, err := lib.PreviewArchive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, preview)
		},
	}
)

func init() {
	installCmd.Flags().StringVarP(&installGroup, "group", "g", "", "目标分组 (默认为设置中的默认分组)")
	installCmd.Flags().StringVarP(&installName, "name", "n", "", "模组名称 (默认为压缩包文件名，只能用于单个压缩包)")
	installCmd.Flags().BoolVar(&installNoBar, "no-progress", false, "不显示进度条")
}

// barReporter 把一个压缩包的解压进度显示到它自己的进度条上
type barReporter struct {
	bar     *pb.ProgressBar
	archive string
}

func (r *barReporter) OnFileProgress(current, total int64, filename string) {
	r.bar.SetTotal(total)
	r.bar.SetCurrent(current)
	r.bar.Set("name", r.archive+": "+filepath.Base(filename))
}

// newInstallBar 创建压缩包的进度条及其报告器
func newInstallBar(archive string) (*pb.ProgressBar, *barReporter) {
	name := filepath.Base(archive)
	bar := pb.New64(0)
	bar.SetTemplateString(barTemplate)
	bar.Set(pb.Bytes, true).Set("name", name)
	return bar, &barReporter{bar: bar, archive: name}
}

// buildInstallRequests 为每个压缩包生成安装请求，withBars 时每个请求带一个进度条
func buildInstallRequests(args []string, name, group string, withBars bool) ([]modlib.InstallRequest, []*pb.ProgressBar) {
	requests := make([]modlib.InstallRequest, 0, len(args))
	var bars []*pb.ProgressBar
	for _, archive := range args {
		target := name
		if target == "" {
			target = archiveBaseName(archive)
		}
		req := modlib.InstallRequest{
			ArchivePath: archive,
			TargetName:  target,
			TargetGroup: group,
		}
		if withBars {
			bar, reporter := newInstallBar(archive)
			bars = append(bars, bar)
			req.Progress = reporter
		}
		requests = append(requests, req)
	}
	return requests, bars
}

func runInstall(cmd *cobra.Command, args []string) error {
	if installName != "" && len(args) > 1 {
		return errors.New("--name 只能用于单个压缩包")
	}

	lib, _, err := openLibrary()
	if err != nil {
		return err
	}

	requests, bars := buildInstallRequests(args, installName, installGroup, !installNoBar)
	var pool *pb.Pool
	if len(bars) > 0 {
		pool = pb.NewPool(bars...)
		pool.Output = cmd.ErrOrStderr()
		if err := pool.Start(); err != nil {
			newLogger().Warn("无法显示进度条", "err", err)
			pool = nil
		}
	}

	results := lib.InstallMany(cmd.Context(), requests)
	if pool != nil {
		for _, bar := range bars {
			bar.Finish()
		}
		_ = pool.Stop()
	}

	var errs []error
	for _, result := range results {
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.Request.ArchivePath, result.Err))
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Destination)
	}
	return errors.Join(errs...)
}

// archiveBaseName 去掉扩展名的压缩包文件名
func archiveBaseName(archive string) string {
	base := filepath.Base(archive)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
