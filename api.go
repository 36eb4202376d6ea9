package modlib

import (
	"context"

	"github.com/charmbracelet/log"
)

// ExtractOptions 解压选项
type ExtractOptions struct {
	Passwords        []string         `json:"passwords"`         // 尝试的密码列表
	BuiltinPasswords bool             `json:"builtin_passwords"` // 是否追加内置常见密码
	NameEncoding     string           `json:"name_encoding"`     // 非 UTF-8 条目名的备用编码(默认GBK)
	ProgressCallback ProgressCallback `json:"-"`                 // 进度回调
	Logger           *log.Logger      `json:"-"`                 // 日志(默认输出到 stderr)
}

// ExtractArchive 把压缩包解压到任意目录 - 不经过模组库
//
// 参数:
//
//	ctx: 取消解压
//	archivePath: 压缩包路径
//	destination: 目标目录(不存在时创建，已有同名文件会被覆盖)
//	options: 解压选项(可以为nil使用默认设置)
//
// 返回:
//
//	ExtractResult: 解压结果
//	error: 错误信息
//
// 功能:
//   - 按扩展名选择格式(ZIP/7Z/RAR)，未知扩展名时检查文件头
//   - 只有一个公共顶层目录时去掉该目录
//   - 拒绝路径遍历，跳过系统元数据
func ExtractArchive(ctx context.Context, archivePath, destination string, options *ExtractOptions) (*ExtractResult, error) {
	if options == nil {
		options = &ExtractOptions{BuiltinPasswords: true}
	}
	logger := options.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	reader, err := OpenArchive(archivePath,
		WithNameEncoding(options.NameEncoding),
		WithPasswords(options.Passwords...),
		WithBuiltinPasswords(options.BuiltinPasswords),
		WithReaderLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var progress ProgressReporter
	if options.ProgressCallback != nil {
		progress = NewSimpleProgressReporter(options.ProgressCallback)
	}
	return NewSmartExtractor(logger, progress).Extract(ctx, reader, destination)
}

// IsSupported 检查文件是否支持解压
//
// 参数:
//
//	archivePath: 压缩包路径
//
// 返回:
//
//	bool: 是否支持
//	ArchiveFormat: 格式
func IsSupported(archivePath string) (bool, ArchiveFormat) {
	format, err := NewFormatDetector().DetectFormat(archivePath)
	if err != nil {
		return false, FormatUnknown
	}
	return true, format
}
