package main

import (
	"fmt"
	"time"

	"github.com/mirbf/modlib"
	"github.com/spf13/cobra"
)

var (
	watchDebounce time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "监视模组根目录，变化时重新扫描并输出摘要",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "去抖间隔 (默认 500ms)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	logger := newLogger()

	// 先扫描一次，确保根目录存在
	result := lib.Scan()
	fmt.Fprintf(cmd.OutOrStdout(), "%d 个模组，%d 个分组\n", len(result.Mods), len(result.Groups))

	changed := make(chan struct{}, 1)
	watcher, err := modlib.NewWatcher(modlib.WatchConfig{
		Debounce: watchDebounce,
		Logger:   logger,
		OnChange: func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		return err
	}
	if err := watcher.StartWatch(lib.Root()); err != nil {
		return err
	}
	defer watcher.StopWatch()

	logger.Info("开始监视", "root", lib.Root())
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-changed:
			result := lib.Scan()
			fmt.Fprintf(cmd.OutOrStdout(), "%s 目录已变化: %d 个模组，%d 个分组\n",
				time.Now().Format("15:04:05"), len(result.Mods), len(result.Groups))
		}
	}
}
