package modlib

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// entryExists 判断路径是否存在
func entryExists(pathParts ...string) bool {
	_, err := os.Lstat(filepath.Join(pathParts...))
	return err == nil
}

// isDir 判断路径是否为目录
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// wrapIOError 把 os 错误转换为 ModError
func wrapIOError(message, path string, err error) error {
	if err == nil {
		return nil
	}
	var me *ModError
	if errors.As(err, &me) {
		return err
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewModError(ErrNotFound, message, path, err)
	case errors.Is(err, fs.ErrExist):
		return NewModError(ErrAlreadyExists, message, path, err)
	default:
		return NewModError(ErrIO, message, path, err)
	}
}

// moveDirContents 把 src 下的所有条目移动到 dst，已存在的同名条目会被替换
func moveDirContents(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return wrapIOError("无法读取目录", src, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return wrapIOError("无法创建目录", dst, err)
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())
		if entryExists(to) {
			if err := os.RemoveAll(to); err != nil {
				return wrapIOError("无法替换已存在的条目", to, err)
			}
		}
		if err := os.Rename(from, to); err != nil {
			return wrapIOError("无法移动条目", from, err)
		}
	}
	return nil
}

// toSlash 统一分隔符并去掉首尾的 /
func toSlash(name string) string {
	return strings.Trim(strings.ReplaceAll(name, "\\", "/"), "/")
}

// splitSegments 按 / 拆分路径并去掉空段和 "."
func splitSegments(name string) []string {
	return slices.DeleteFunc(strings.Split(name, "/"), func(s string) bool { return s == "" || s == "." })
}

// RemoveDuplicateStrings 去除字符串切片中的重复项，保留首次出现的顺序
func RemoveDuplicateStrings(slice []string) []string {
	seen := make(map[string]bool)
	result := []string{}

	for _, item := range slice {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}
