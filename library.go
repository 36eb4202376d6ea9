package modlib

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Library 模组库，所有状态都保存在模组根目录的目录结构中
type Library struct {
	root         string
	defaultGroup string
	logger       *log.Logger
	validator    SecurityValidator
	trash        TrashFunc

	rarBackend       RarBackend
	unrarPath        string
	unrarCandidates  []string
	passwords        []string
	builtinPasswords bool
	nameEncoding     string
	progress         ProgressReporter
	workers          int
}

// LibraryOption 模组库选项
type LibraryOption func(*Library)

// WithLogger 设置日志记录器
func WithLogger(logger *log.Logger) LibraryOption {
	return func(l *Library) {
		l.logger = logger
	}
}

// WithDefaultGroup 设置未指定分组时使用的分组名
func WithDefaultGroup(name string) LibraryOption {
	return func(l *Library) {
		if name != "" {
			l.defaultGroup = name
		}
	}
}

// WithTrash 设置删除分组的方式
func WithTrash(trash TrashFunc) LibraryOption {
	return func(l *Library) {
		l.trash = trash
	}
}

// WithRarBackend 设置RAR解压方式
func WithRarBackend(backend RarBackend) LibraryOption {
	return func(l *Library) {
		l.rarBackend = backend
	}
}

// WithUnrarPath 指定 unrar 可执行文件
func WithUnrarPath(path string) LibraryOption {
	return func(l *Library) {
		l.unrarPath = path
	}
}

// WithUnrarCandidates 替换 unrar 的候选路径
func WithUnrarCandidates(candidates []string) LibraryOption {
	return func(l *Library) {
		l.unrarCandidates = candidates
	}
}

// WithArchivePasswords 设置加密压缩包的候选密码，builtin 为 true 时追加内置常见密码
func WithArchivePasswords(passwords []string, builtin bool) LibraryOption {
	return func(l *Library) {
		l.passwords = passwords
		l.builtinPasswords = builtin
	}
}

// WithArchiveNameEncoding 设置条目名的备用编码
func WithArchiveNameEncoding(name string) LibraryOption {
	return func(l *Library) {
		l.nameEncoding = name
	}
}

// WithProgress 设置解压进度报告器
func WithProgress(progress ProgressReporter) LibraryOption {
	return func(l *Library) {
		l.progress = progress
	}
}

// WithInstallWorkers 设置批量安装的并发数
func WithInstallWorkers(n int) LibraryOption {
	return func(l *Library) {
		if n > 0 {
			l.workers = n
		}
	}
}

// NewLibrary 创建模组库
func NewLibrary(modsRoot string, opts ...LibraryOption) *Library {
	l := &Library{
		root:         modsRoot,
		defaultGroup: DefaultGroup,
		validator:    NewSecurityValidator(),
		rarBackend:   RarBackendAuto,
		workers:      defaultInstallWorkers,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = defaultLogger()
	}
	if l.trash == nil {
		l.trash = newTrashFunc(l.logger)
	}
	return l
}

// Root 返回模组根目录
func (l *Library) Root() string {
	return l.root
}

// DefaultGroupName 返回默认分组名
func (l *Library) DefaultGroupName() string {
	return l.defaultGroup
}

// Scan 扫描模组库，根目录不存在时先创建
func (l *Library) Scan() ScanResult {
	if !entryExists(l.root) {
		if err := os.MkdirAll(l.root, 0o755); err != nil {
			l.logger.Warn("无法创建模组根目录", "root", l.root, "err", err)
		}
	}
	return Scan(l.root, l.logger)
}

// Toggle 启用或禁用模组，返回新的模组 ID
func (l *Library) Toggle(modID string, enable bool) (string, error) {
	modPath, err := l.modPath(modID)
	if err != nil {
		return "", err
	}

	base := filepath.Base(modPath)
	newBase := encodeState(base, enable)
	if newBase == base {
		return toSlash(modID), nil
	}

	newPath := filepath.Join(filepath.Dir(modPath), newBase)
	if entryExists(newPath) {
		return "", NewModError(ErrAlreadyExists, "目标名称已存在", newPath, nil)
	}
	if err := os.Rename(modPath, newPath); err != nil {
		return "", wrapIOError("重命名模组失败", modPath, err)
	}

	newID := replaceBase(modID, newBase)
	l.logger.Info("切换模组状态", "mod", modID, "enabled", enable, "id", newID)
	return newID, nil
}

// CreateGroup 创建分组
func (l *Library) CreateGroup(name string) error {
	groupPath, err := l.groupPath(name)
	if err != nil {
		return err
	}
	if entryExists(groupPath) {
		return NewModError(ErrAlreadyExists, "分组已存在", groupPath, nil)
	}
	if err := os.MkdirAll(groupPath, 0o755); err != nil {
		return wrapIOError("创建分组失败", groupPath, err)
	}
	l.logger.Info("创建分组", "group", name)
	return nil
}

// RenameGroup 重命名分组
func (l *Library) RenameGroup(oldName, newName string) error {
	oldPath, err := l.groupPath(oldName)
	if err != nil {
		return err
	}
	newPath, err := l.groupPath(newName)
	if err != nil {
		return err
	}

	if !isDir(oldPath) {
		return NewModError(ErrNotFound, "分组不存在", oldPath, nil)
	}
	if entryExists(newPath) {
		return NewModError(ErrAlreadyExists, "目标分组已存在", newPath, nil)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return wrapIOError("重命名分组失败", oldPath, err)
	}
	l.logger.Info("重命名分组", "from", oldName, "to", newName)
	return nil
}

// DeleteGroup 删除分组及其中所有模组，优先移入回收站
func (l *Library) DeleteGroup(name string) error {
	groupPath, err := l.groupPath(name)
	if err != nil {
		return err
	}
	if !isDir(groupPath) {
		return NewModError(ErrNotFound, "分组不存在", groupPath, nil)
	}
	if err := l.trash(groupPath); err != nil {
		return wrapIOError("删除分组失败", groupPath, err)
	}
	l.logger.Info("删除分组", "group", name)
	return nil
}

// MoveMod 把模组移动到目标分组，返回新的模组 ID
//
// 目标分组为空或为 RootGroup 时移动到默认分组，模组不会留在根目录下。
func (l *Library) MoveMod(modID, targetGroup string) (string, error) {
	modPath, err := l.modPath(modID)
	if err != nil {
		return "", err
	}

	group := l.resolveGroup(targetGroup)
	groupPath, err := l.groupPath(group)
	if err != nil {
		return "", err
	}
	if err := ensureDirectoryExists(groupPath); err != nil {
		return "", err
	}

	base := filepath.Base(modPath)
	destPath := filepath.Join(groupPath, base)
	if entryExists(destPath) {
		return "", NewModError(ErrAlreadyExists, "目标分组中已存在同名模组", destPath, nil)
	}
	if err := os.Rename(modPath, destPath); err != nil {
		return "", wrapIOError("移动模组失败", modPath, err)
	}

	newID := path.Join(group, base)
	l.logger.Info("移动模组", "mod", modID, "group", group, "id", newID)
	return newID, nil
}

// resolveGroup 把空分组和 RootGroup 替换为默认分组
func (l *Library) resolveGroup(group string) string {
	if group == "" || group == RootGroup {
		return l.defaultGroup
	}
	return group
}

// groupPath 校验分组名并返回分组目录
func (l *Library) groupPath(name string) (string, error) {
	if err := l.validator.ValidateName(name); err != nil {
		return "", err
	}
	return PathSafeJoin(l.root, name)
}

// modPath 校验模组 ID 并返回存在的模组目录
func (l *Library) modPath(modID string) (string, error) {
	if err := l.validator.ValidateRelativePath(modID); err != nil {
		return "", err
	}
	modPath, err := PathSafeJoin(l.root, toSlash(modID))
	if err != nil {
		return "", err
	}
	if filepath.Clean(modPath) == filepath.Clean(l.root) {
		return "", NewModError(ErrSecurity, "模组 ID 不能指向根目录", modID, nil)
	}
	if !isDir(modPath) {
		return "", NewModError(ErrNotFound, "模组不存在", modPath, nil)
	}
	return modPath, nil
}

// replaceBase 替换模组 ID 的最后一段
func replaceBase(id, base string) string {
	id = toSlash(id)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[:i+1] + base
	}
	return base
}
