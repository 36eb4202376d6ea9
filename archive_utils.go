package modlib

import (
	"os"
	"path"
	"strings"
)

// junkDirs 系统生成的元数据目录
var junkDirs = []string{"__MACOSX"}

// junkFiles 系统生成的元数据文件
var junkFiles = []string{".DS_Store", "Thumbs.db"}

// isJunkEntry 检查条目是否为系统元数据（__MACOSX、.DS_Store 等）
func isJunkEntry(name string) bool {
	if name == "" {
		return false
	}

	for _, dir := range junkDirs {
		if strings.HasPrefix(name, dir) {
			return true
		}
	}

	if strings.HasSuffix(name, ".DS_Store") {
		return true
	}
	base := path.Base(strings.TrimSuffix(name, "/"))
	for _, file := range junkFiles {
		if strings.EqualFold(base, file) {
			return true
		}
	}

	return false
}

// ensureDirectoryExists 确保目录存在
func ensureDirectoryExists(dirPath string) error {
	if dirPath == "" {
		return nil
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return wrapIOError("无法创建目录", dirPath, err)
	}
	return nil
}
