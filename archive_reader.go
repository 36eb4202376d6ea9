package modlib

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// WalkFunc 顺序遍历条目时的回调，普通文件的 r 为内容流，其余条目 r 为 nil
type WalkFunc func(entry ArchiveEntry, r io.Reader) error

// ArchiveReader 压缩包统一读取接口
type ArchiveReader interface {
	// Format 返回压缩格式
	Format() ArchiveFormat

	// Entries 列出全部条目（已解码、已过滤系统元数据）
	Entries() ([]ArchiveEntry, error)

	// Walk 按 Entries 的顺序遍历一次条目并提供内容
	Walk(fn WalkFunc) error

	// Close 释放资源
	Close() error
}

// readerConfig 读取器配置
type readerConfig struct {
	nameEncoding   string
	passwords      []string
	builtinPasswds bool
	logger         *log.Logger
}

// ReaderOption 读取器选项
type ReaderOption func(*readerConfig)

// WithNameEncoding 设置非 UTF-8 条目名的备用编码
func WithNameEncoding(name string) ReaderOption {
	return func(c *readerConfig) {
		c.nameEncoding = name
	}
}

// WithPasswords 设置加密压缩包的候选密码
func WithPasswords(passwords ...string) ReaderOption {
	return func(c *readerConfig) {
		c.passwords = append(c.passwords, passwords...)
	}
}

// WithBuiltinPasswords 是否追加内置常见密码
func WithBuiltinPasswords(enabled bool) ReaderOption {
	return func(c *readerConfig) {
		c.builtinPasswds = enabled
	}
}

// WithReaderLogger 设置读取器日志
func WithReaderLogger(logger *log.Logger) ReaderOption {
	return func(c *readerConfig) {
		c.logger = logger
	}
}

// entryNormalizer 条目名处理：解码、过滤、安全检查
type entryNormalizer struct {
	encoding  EncodingHandler
	validator SecurityValidator
	logger    *log.Logger
}

// normalize 返回处理后的路径；skip 为 true 表示该条目应被忽略
func (n *entryNormalizer) normalize(raw string) (name string, skip bool, err error) {
	decoded, used, err := n.encoding.DecodeEntryName(raw)
	if err != nil {
		return "", false, err
	}
	if used != "UTF-8" {
		if guess := n.encoding.DetectEncoding(raw); guess != "" && !sameEncodingFamily(guess, used) {
			n.logger.Debug("条目名编码与检测结果不一致", "entry", decoded, "used", used, "detected", guess)
		}
	}

	name = strings.ReplaceAll(decoded, "\\", "/")
	if err := n.validator.ValidateEntryPath(name); err != nil {
		return "", false, err
	}

	// 先去掉 "./" 和重复的分隔符，再判断系统元数据
	name = strings.Join(splitSegments(name), "/")
	if name == "" || isJunkEntry(name) {
		return "", true, nil
	}
	return name, false, nil
}

// OpenArchive 打开压缩包，按格式选择读取器
func OpenArchive(archivePath string, opts ...ReaderOption) (ArchiveReader, error) {
	cfg := &readerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger()
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, wrapIOError("压缩包文件不存在", archivePath, err)
	}
	if info.IsDir() {
		return nil, NewModError(ErrUnsupportedFormat, "路径是目录而不是压缩包", archivePath, nil)
	}

	format, err := NewFormatDetector().DetectFormat(archivePath)
	if err != nil {
		return nil, err
	}

	encoding, err := NewEncodingHandler(cfg.nameEncoding)
	if err != nil {
		return nil, NewModError(ErrUnsupportedFormat, err.Error(), archivePath, err)
	}
	normalizer := &entryNormalizer{
		encoding:  encoding,
		validator: NewSecurityValidator(),
		logger:    cfg.logger,
	}
	passwords := newPasswordManager(cfg.passwords, cfg.builtinPasswds)

	switch format {
	case FormatZIP:
		return newZipReader(archivePath, normalizer, passwords, cfg.logger)
	case Format7Z:
		return newSevenZReader(archivePath, normalizer, passwords, cfg.logger)
	case FormatRAR:
		return newRarReader(archivePath, normalizer, passwords, cfg.logger)
	default:
		return nil, NewModError(
			ErrUnsupportedFormat,
			fmt.Sprintf("不支持的压缩格式: %s", format),
			archivePath,
			nil,
		)
	}
}

// GetSupportedFormats 获取支持的格式列表
func GetSupportedFormats() []ArchiveFormat {
	return []ArchiveFormat{FormatZIP, Format7Z, FormatRAR}
}

// handleArchiveError 把底层库的错误归类为 ModError
func handleArchiveError(err error, format ArchiveFormat, path string) error {
	if err == nil {
		return nil
	}
	if IsErrorType(err, ErrSecurity) || IsErrorType(err, ErrPasswordRequired) || IsErrorType(err, ErrArchiveCorrupt) {
		return err
	}

	errorMsg := strings.ToLower(err.Error())
	name := strings.ToUpper(format.String())

	switch {
	case isPasswordError(err):
		return NewModError(ErrPasswordRequired, name+"文件需要密码或密码错误", path, err)
	case strings.Contains(errorMsg, "permission denied"), strings.Contains(errorMsg, "access is denied"):
		return NewModError(ErrIO, "权限不足", path, err)
	case strings.Contains(errorMsg, "no space left"), strings.Contains(errorMsg, "disk full"):
		return NewModError(ErrIO, "磁盘空间不足", path, err)
	case strings.Contains(errorMsg, "unsupported"), strings.Contains(errorMsg, "unknown"):
		return NewModError(ErrArchiveCorrupt, "不支持的"+name+"压缩方法", path, err)
	default:
		return NewModError(ErrArchiveCorrupt, name+"文件读取失败", path, err)
	}
}
