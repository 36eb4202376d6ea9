package modlib

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// defaultInstallWorkers 批量安装的默认并发数
const defaultInstallWorkers = 2

// RarBackend RAR解压方式
type RarBackend string

const (
	// RarBackendAuto 先用原生解码，失败后改用外部 unrar
	RarBackendAuto RarBackend = "auto"
	// RarBackendNative 只用 rardecode
	RarBackendNative RarBackend = "native"
	// RarBackendExternal 只用外部 unrar
	RarBackendExternal RarBackend = "external"
)

// ParseRarBackend 解析RAR解压方式，空串为 auto
func ParseRarBackend(s string) (RarBackend, error) {
	switch RarBackend(strings.ToLower(strings.TrimSpace(s))) {
	case "", RarBackendAuto:
		return RarBackendAuto, nil
	case RarBackendNative:
		return RarBackendNative, nil
	case RarBackendExternal:
		return RarBackendExternal, nil
	default:
		return "", fmt.Errorf("未知的RAR解压方式: %q", s)
	}
}

// InstallRequest 一次安装请求
type InstallRequest struct {
	ArchivePath string `json:"archivePath"`
	TargetName  string `json:"targetName"`
	TargetGroup string `json:"targetGroup"`
	// Progress 本次安装的进度报告器，为 nil 时使用模组库的报告器
	Progress ProgressReporter `json:"-"`
}

// InstallResult 一次安装的结果
type InstallResult struct {
	Request     InstallRequest `json:"request"`
	Destination string         `json:"destination,omitempty"`
	Err         error          `json:"-"`
}

// Install 把压缩包安装为 <根目录>/<分组>/<名称>，返回目标目录
//
// 目标目录已存在时（包括之前失败留下的部分结果）返回 ErrAlreadyExists。
func (l *Library) Install(ctx context.Context, archivePath, targetName, targetGroup string) (string, error) {
	return l.install(ctx, InstallRequest{ArchivePath: archivePath, TargetName: targetName, TargetGroup: targetGroup})
}

func (l *Library) install(ctx context.Context, req InstallRequest) (string, error) {
	archivePath, targetName, targetGroup := req.ArchivePath, req.TargetName, req.TargetGroup
	progress := l.progress
	if req.Progress != nil {
		progress = req.Progress
	}

	if err := ctx.Err(); err != nil {
		return "", NewModError(ErrIO, "安装已取消", archivePath, err)
	}

	group := l.resolveGroup(targetGroup)
	if err := l.validator.ValidateName(group); err != nil {
		return "", err
	}
	if err := l.validator.ValidateName(targetName); err != nil {
		return "", err
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return "", wrapIOError("压缩包文件不存在", archivePath, err)
	}
	if info.IsDir() {
		return "", NewModError(ErrUnsupportedFormat, "路径是目录而不是压缩包", archivePath, nil)
	}
	format, err := NewFormatDetector().DetectFormat(archivePath)
	if err != nil {
		return "", err
	}

	dest, err := PathSafeJoin(l.root, group+"/"+targetName)
	if err != nil {
		return "", err
	}
	if entryExists(dest) {
		return "", NewModError(ErrAlreadyExists, "目标模组已存在", dest, nil)
	}
	if err := ensureDirectoryExists(dest); err != nil {
		return "", err
	}

	l.logger.Info("开始安装", "archive", archivePath, "format", format, "dest", dest)

	switch format {
	case FormatRAR:
		err = l.installRar(ctx, archivePath, dest, progress)
	default:
		err = l.extractNative(ctx, archivePath, dest, progress)
	}
	if err != nil {
		l.logger.Error("安装失败", "archive", archivePath, "dest", dest, "err", err)
		return "", err
	}

	l.logger.Info("安装完成", "archive", archivePath, "dest", dest)
	return dest, nil
}

// InstallMany 并发安装多个压缩包，结果顺序与请求一致
//
// 目标相同的请求必须由调用方串行提交。
func (l *Library) InstallMany(ctx context.Context, requests []InstallRequest) []InstallResult {
	results := make([]InstallResult, len(requests))

	var g errgroup.Group
	g.SetLimit(l.workers)
	for i, req := range requests {
		g.Go(func() error {
			dest, err := l.install(ctx, req)
			results[i] = InstallResult{Request: req, Destination: dest, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// installRar 按配置的方式解压RAR
func (l *Library) installRar(ctx context.Context, archivePath, dest string, progress ProgressReporter) error {
	switch l.rarBackend {
	case RarBackendNative:
		return l.extractNative(ctx, archivePath, dest, progress)
	case RarBackendExternal:
		return l.extractExternal(ctx, archivePath, dest)
	}

	nativeErr := l.extractNative(ctx, archivePath, dest, progress)
	if nativeErr == nil {
		return nil
	}
	if IsErrorType(nativeErr, ErrSecurity) || ctx.Err() != nil {
		return nativeErr
	}

	l.logger.Warn("原生RAR解码失败，改用 unrar", "archive", archivePath, "err", nativeErr)
	if err := clearDirectory(dest); err != nil {
		return err
	}
	externalErr := l.extractExternal(ctx, archivePath, dest)
	if externalErr == nil {
		return nil
	}
	if IsErrorType(externalErr, ErrExternalToolMissing) {
		return errors.Join(externalErr, nativeErr)
	}
	return externalErr
}

// extractNative 用压缩包读取器和智能解压器安装
func (l *Library) extractNative(ctx context.Context, archivePath, dest string, progress ProgressReporter) error {
	reader, err := OpenArchive(archivePath, l.readerOptions()...)
	if err != nil {
		return err
	}
	defer reader.Close()

	result, err := NewSmartExtractor(l.logger, progress).Extract(ctx, reader, dest)
	if err != nil {
		return err
	}
	l.logger.Debug("解压完成",
		"files", result.Files,
		"dirs", result.Dirs,
		"bytes", result.TotalSize,
		"strip", result.StripPrefix,
		"elapsed", result.ProcessTime)
	return nil
}

// extractExternal 用 unrar 解压到临时目录，再整理到目标目录
func (l *Library) extractExternal(ctx context.Context, archivePath, dest string) error {
	staging := filepath.Join(dest, stagingDirName)
	passwords := newPasswordManager(l.passwords, l.builtinPasswords).candidates()

	if err := l.unrarTool().Extract(ctx, archivePath, staging, passwords); err != nil {
		return err
	}
	if err := removeJunk(staging); err != nil {
		return err
	}
	stripped, err := FlattenStaging(staging, dest)
	if err != nil {
		return err
	}
	if stripped != "" {
		l.logger.Debug("去掉公共顶层目录", "prefix", stripped)
	}
	return nil
}

// PreviewArchive 预览压缩包的顶层目录、文件数和是否含有 ini
func (l *Library) PreviewArchive(ctx context.Context, archivePath string) (*ArchivePreview, error) {
	if _, err := os.Stat(archivePath); err != nil {
		return nil, wrapIOError("压缩包文件不存在", archivePath, err)
	}
	format, err := NewFormatDetector().DetectFormat(archivePath)
	if err != nil {
		return nil, err
	}

	if format == FormatRAR && l.rarBackend == RarBackendExternal {
		return l.previewExternal(ctx, archivePath)
	}

	preview, err := previewNative(archivePath, l.readerOptions()...)
	if err == nil || format != FormatRAR || l.rarBackend != RarBackendAuto || IsErrorType(err, ErrSecurity) {
		return preview, err
	}

	l.logger.Warn("原生RAR解码失败，改用 unrar 预览", "archive", archivePath, "err", err)
	preview, externalErr := l.previewExternal(ctx, archivePath)
	if IsErrorType(externalErr, ErrExternalToolMissing) {
		return nil, errors.Join(externalErr, err)
	}
	return preview, externalErr
}

// PreviewArchive 使用默认配置预览压缩包（RAR只用原生解码）
func PreviewArchive(archivePath string, opts ...ReaderOption) (*ArchivePreview, error) {
	return previewNative(archivePath, opts...)
}

// previewNative 通过读取器列出条目生成预览
func previewNative(archivePath string, opts ...ReaderOption) (*ArchivePreview, error) {
	reader, err := OpenArchive(archivePath, opts...)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	entries, err := reader.Entries()
	if err != nil {
		return nil, err
	}

	b := newPreviewBuilder(reader.Format())
	for _, entry := range entries {
		b.add(entry.Path, entry.IsDir)
	}
	return b.build(), nil
}

// previewExternal 通过 unrar lb 生成预览
func (l *Library) previewExternal(ctx context.Context, archivePath string) (*ArchivePreview, error) {
	names, err := l.unrarTool().List(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	b := newPreviewBuilder(FormatRAR)
	for _, name := range names {
		if isJunkEntry(name) {
			continue
		}
		b.add(name, false)
	}
	return b.build(), nil
}

// previewBuilder 累计预览信息
type previewBuilder struct {
	format    ArchiveFormat
	rootDirs  map[string]struct{}
	fileCount int
	hasIni    bool
}

func newPreviewBuilder(format ArchiveFormat) *previewBuilder {
	return &previewBuilder{format: format, rootDirs: make(map[string]struct{})}
}

// add 目录贡献第一段路径；文件计数，位于子目录中时也贡献第一段路径
func (b *previewBuilder) add(name string, isDir bool) {
	segments := splitSegments(name)
	if len(segments) == 0 {
		return
	}
	if isDir {
		b.rootDirs[segments[0]] = struct{}{}
		return
	}
	b.fileCount++
	if strings.HasSuffix(strings.ToLower(name), configExtension) {
		b.hasIni = true
	}
	if len(segments) > 1 {
		b.rootDirs[segments[0]] = struct{}{}
	}
}

func (b *previewBuilder) build() *ArchivePreview {
	rootDirs := make([]string, 0, len(b.rootDirs))
	for name := range b.rootDirs {
		rootDirs = append(rootDirs, name)
	}
	slices.Sort(rootDirs)
	return &ArchivePreview{
		RootDirs:  rootDirs,
		FileCount: b.fileCount,
		HasIni:    b.hasIni,
		Format:    b.format,
	}
}

// readerOptions 由模组库配置生成读取器选项
func (l *Library) readerOptions() []ReaderOption {
	return []ReaderOption{
		WithNameEncoding(l.nameEncoding),
		WithPasswords(l.passwords...),
		WithBuiltinPasswords(l.builtinPasswords),
		WithReaderLogger(l.logger),
	}
}

// unrarTool 由模组库配置生成 unrar 工具
func (l *Library) unrarTool() *UnrarTool {
	return NewUnrarTool(l.unrarPath, l.unrarCandidates, l.logger)
}

// clearDirectory 清空目录内容但保留目录本身
func clearDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return wrapIOError("无法读取目录", dir, err)
	}
	for _, entry := range entries {
		target := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(target); err != nil {
			return wrapIOError("无法清理目录", target, err)
		}
	}
	return nil
}
