package modlib

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// recycleTimeout 调用回收站命令的超时时间
const recycleTimeout = 2 * time.Minute

// TrashFunc 删除目录的方式
type TrashFunc func(path string) error

// newTrashFunc 默认删除方式：Windows 上移入回收站，失败时或其他平台上永久删除
func newTrashFunc(logger *log.Logger) TrashFunc {
	return func(path string) error {
		if runtime.GOOS == "windows" {
			err := sendToRecycleBin(path)
			if err == nil {
				return nil
			}
			logger.Warn("移入回收站失败，改为永久删除", "path", path, "err", err)
		}
		if err := os.RemoveAll(path); err != nil {
			return wrapIOError("删除目录失败", path, err)
		}
		return nil
	}
}

// sendToRecycleBin 通过 PowerShell 把目录移入回收站
func sendToRecycleBin(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), recycleTimeout)
	defer cancel()

	escaped := strings.ReplaceAll(path, "'", "''")
	script := "Add-Type -AssemblyName Microsoft.VisualBasic; " +
		"[Microsoft.VisualBasic.FileIO.FileSystem]::DeleteDirectory('" + escaped + "', 'OnlyErrorDialogs', 'SendToRecycleBin')"

	output, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script).CombinedOutput()
	if err != nil {
		return NewModError(ErrIO, "回收站命令失败: "+strings.TrimSpace(string(output)), path, err)
	}
	if entryExists(path) {
		return NewModError(ErrIO, "回收站命令执行后目录仍然存在", path, nil)
	}
	return nil
}
