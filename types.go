package modlib

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

const (
	// DisablePrefix 禁用标记（目录名前缀）
	DisablePrefix = "DISABLED_"

	// RootGroup 直接位于模组根目录下的模组所属分组
	RootGroup = "Root"

	// DefaultGroup 未指定分组时的默认分组
	DefaultGroup = "Default"

	// stagingDirName 外部解压工具使用的临时目录名
	stagingDirName = "_temp_extract"
)

// ModEntry 单个模组（叶子目录）
type ModEntry struct {
	ID            string   `json:"id"`            // 相对模组根目录的路径（正斜杠）
	Name          string   `json:"name"`          // 去掉禁用标记的目录名
	Enabled       bool     `json:"enabled"`       // 是否启用
	Path          string   `json:"path"`          // 绝对路径
	RelativePath  string   `json:"relativePath"`  // 同 ID
	PreviewImages []string `json:"previewImages"` // 预览图（按字典序）
	Group         string   `json:"group"`         // 所属分组，根目录下为 RootGroup
	IsDir         bool     `json:"isDir"`
}

// ScanResult 扫描结果
type ScanResult struct {
	Mods   []ModEntry `json:"mods"`
	Groups []string   `json:"groups"`
}

// ArchiveFormat 压缩格式枚举
type ArchiveFormat string

const (
	FormatZIP     ArchiveFormat = "zip"
	FormatRAR     ArchiveFormat = "rar"
	Format7Z      ArchiveFormat = "7z"
	FormatUnknown ArchiveFormat = "unknown"
)

// String 返回格式字符串
func (f ArchiveFormat) String() string {
	return string(f)
}

// ArchiveEntry 压缩包中的一个条目
type ArchiveEntry struct {
	Path      string      // 压缩包内路径，以 / 分隔，已解码
	IsDir     bool        // 是否为目录
	Size      int64       // 普通文件的解压后大小
	Mode      fs.FileMode // 文件权限与类型
	Modified  time.Time   // 修改时间
	Encrypted bool        // 内容是否加密（7Z 在读取前无法得知，总为 false）
}

// IsRegular 是否为普通文件
func (e ArchiveEntry) IsRegular() bool {
	return !e.IsDir && e.Mode.Type() == 0
}

// ArchivePreview 压缩包预览信息
type ArchivePreview struct {
	RootDirs  []string      `json:"root_dirs"`
	FileCount int           `json:"file_count"`
	HasIni    bool          `json:"has_ini"`
	Format    ArchiveFormat `json:"format"`
}

// ModError 模组库错误类型
type ModError struct {
	Type    ErrorType
	Message string
	Path    string
	Cause   error
}

// Error 实现error接口
func (e *ModError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Type, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap 返回原始错误
func (e *ModError) Unwrap() error {
	return e.Cause
}

// ErrorType 错误类型枚举
type ErrorType string

const (
	// ErrNotFound 路径、分组或模组不存在
	ErrNotFound ErrorType = "NOT_FOUND"

	// ErrAlreadyExists 目标已存在
	ErrAlreadyExists ErrorType = "ALREADY_EXISTS"

	// ErrUnsupportedFormat 不支持的压缩格式
	ErrUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"

	// ErrArchiveCorrupt 压缩包无法读取或条目解码失败
	ErrArchiveCorrupt ErrorType = "ARCHIVE_CORRUPT"

	// ErrExternalToolMissing 找不到外部解压工具
	ErrExternalToolMissing ErrorType = "EXTERNAL_TOOL_MISSING"

	// ErrSecurity 路径遍历等不安全路径
	ErrSecurity ErrorType = "SECURITY"

	// ErrIO 读写或权限错误
	ErrIO ErrorType = "IO"

	// ErrPasswordRequired 加密条目没有可用密码
	ErrPasswordRequired ErrorType = "PASSWORD_REQUIRED"
)

// String 返回错误类型字符串
func (et ErrorType) String() string {
	return string(et)
}

// NewModError 创建模组库错误
func NewModError(errType ErrorType, message, path string, cause error) *ModError {
	return &ModError{
		Type:    errType,
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// IsErrorType 判断错误链中是否含有指定类型的 ModError
func IsErrorType(err error, errType ErrorType) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *ModError:
		if e.Type == errType {
			return true
		}
		return IsErrorType(e.Cause, errType)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsErrorType(inner, errType) {
				return true
			}
		}
		return false
	default:
		return IsErrorType(errors.Unwrap(err), errType)
	}
}
