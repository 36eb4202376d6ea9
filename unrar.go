package modlib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// unrarRelPath 随前端依赖一起分发的 unrar 可执行文件
const unrarRelPath = "node_modules/unrar-binaries/bin/win32/unrar.exe"

// DefaultUnrarCandidates 当前工作目录及其上两级中的 unrar 候选路径
func DefaultUnrarCandidates() []string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return []string{
		filepath.Join(wd, unrarRelPath),
		filepath.Join(wd, "..", unrarRelPath),
		filepath.Join(wd, "..", "..", unrarRelPath),
	}
}

// UnrarTool 外部 unrar 工具
type UnrarTool struct {
	explicit   string
	candidates []string
	lookPath   func(string) (string, error)
	logger     *log.Logger
}

// NewUnrarTool 创建 unrar 工具；explicit 非空时只使用该路径
func NewUnrarTool(explicit string, candidates []string, logger *log.Logger) *UnrarTool {
	if candidates == nil {
		candidates = DefaultUnrarCandidates()
	}
	if logger == nil {
		logger = defaultLogger()
	}
	return &UnrarTool{
		explicit:   explicit,
		candidates: candidates,
		lookPath:   exec.LookPath,
		logger:     logger,
	}
}

// Locate 查找 unrar 可执行文件
func (t *UnrarTool) Locate() (string, error) {
	if t.explicit != "" {
		if isRegularFile(t.explicit) {
			return t.explicit, nil
		}
		return "", NewModError(ErrExternalToolMissing, "配置的 unrar 路径不存在", t.explicit, nil)
	}

	for _, candidate := range t.candidates {
		if isRegularFile(candidate) {
			return candidate, nil
		}
	}

	path, err := t.lookPath("unrar")
	if err != nil {
		return "", NewModError(ErrExternalToolMissing, "找不到 unrar，请安装 unrar 或在设置中指定路径", "unrar", err)
	}
	return path, nil
}

// Extract 把压缩包完整解压到 dir，依次尝试候选密码
func (t *UnrarTool) Extract(ctx context.Context, archivePath, dir string, passwords []string) error {
	exe, err := t.Locate()
	if err != nil {
		return err
	}
	if err := ensureDirectoryExists(dir); err != nil {
		return err
	}

	if len(passwords) == 0 {
		passwords = []string{""}
	}

	var lastErr error
	for _, password := range passwords {
		t.logger.Debug("调用 unrar 解压", "tool", exe, "archive", archivePath, "password", maskPassword(password))
		_, err := t.run(ctx, exe, "x", "-y", "-o+", passwordFlag(password), archivePath, dir+string(os.PathSeparator))
		if err == nil {
			return nil
		}
		lastErr = err
		if !isPasswordError(err) {
			break
		}
	}
	return NewModError(ErrArchiveCorrupt, "RAR解压失败", archivePath, lastErr)
}

// List 列出压缩包中的条目名（unrar lb）
func (t *UnrarTool) List(ctx context.Context, archivePath string) ([]string, error) {
	exe, err := t.Locate()
	if err != nil {
		return nil, err
	}

	output, err := t.run(ctx, exe, "lb", "-p-", archivePath)
	if err != nil {
		return nil, NewModError(ErrArchiveCorrupt, "无法读取RAR文件", archivePath, err)
	}

	var names []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, strings.ReplaceAll(line, "\\", "/"))
	}
	return names, nil
}

// run 执行 unrar 并返回标准输出
func (t *UnrarTool) run(ctx context.Context, exe string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, NewModError(ErrExternalToolMissing, "无法启动 unrar", exe, err)
		}
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = strings.TrimSpace(stdout.String())
		}
		return nil, fmt.Errorf("unrar %s: %s: %w", args[0], message, err)
	}
	return stdout.Bytes(), nil
}

// passwordFlag unrar 的密码参数，-p- 表示不询问密码
func passwordFlag(password string) string {
	if password == "" {
		return "-p-"
	}
	return "-p" + password
}

// isRegularFile 判断路径是否为普通文件
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// removeJunk 删除外部工具解压出的系统元数据
func removeJunk(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if isJunkEntry(filepath.ToSlash(rel)) || isJunkEntry(d.Name()) {
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return wrapIOError("无法删除系统元数据", path, removeErr)
			}
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
}
