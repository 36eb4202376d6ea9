package modlib

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FormatDetector 格式检测器接口
type FormatDetector interface {
	// DetectFormat 检测文件格式：扩展名优先，扩展名未知时检查魔数，仍无法识别时返回 ErrUnsupportedFormat
	DetectFormat(filePath string) (ArchiveFormat, error)

	// DetectFromBytes 从字节数组检测格式
	DetectFromBytes(data []byte) ArchiveFormat
}

// defaultFormatDetector 默认格式检测器实现
type defaultFormatDetector struct {
	maxMagicBytes int // 读取用于魔数检测的最大字节数
}

// NewFormatDetector 创建新的格式检测器
func NewFormatDetector() FormatDetector {
	return &defaultFormatDetector{
		maxMagicBytes: 32,
	}
}

// DetectFormat 检测文件格式
func (d *defaultFormatDetector) DetectFormat(filePath string) (ArchiveFormat, error) {
	if format := detectByExtension(filePath); format != FormatUnknown {
		return format, nil
	}

	format, err := d.detectByMagicBytes(filePath)
	if err != nil {
		return FormatUnknown, wrapIOError("无法读取文件头", filePath, err)
	}
	if format == FormatUnknown {
		return FormatUnknown, NewModError(ErrUnsupportedFormat, "不支持的压缩格式", filePath, nil)
	}
	return format, nil
}

// DetectFromBytes 从字节数组检测格式
func (d *defaultFormatDetector) DetectFromBytes(data []byte) ArchiveFormat {
	switch {
	case isZipFormat(data):
		return FormatZIP
	case isRarFormat(data):
		return FormatRAR
	case is7zFormat(data):
		return Format7Z
	default:
		return FormatUnknown
	}
}

// detectByExtension 通过扩展名检测格式
func detectByExtension(filePath string) ArchiveFormat {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".zip":
		return FormatZIP
	case ".rar":
		return FormatRAR
	case ".7z":
		return Format7Z
	default:
		return FormatUnknown
	}
}

// detectByMagicBytes 通过魔数检测格式
func (d *defaultFormatDetector) detectByMagicBytes(filePath string) (ArchiveFormat, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return FormatUnknown, err
	}
	defer file.Close()

	buffer := make([]byte, d.maxMagicBytes)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return FormatUnknown, err
	}

	return d.DetectFromBytes(buffer[:n]), nil
}

// isZipFormat 检测是否为ZIP格式
func isZipFormat(data []byte) bool {
	// ZIP文件的魔数: PK\x03\x04 或 PK\x05\x06（空包） 或 PK\x07\x08（分卷）
	return bytes.HasPrefix(data, []byte{0x50, 0x4B, 0x03, 0x04}) ||
		bytes.HasPrefix(data, []byte{0x50, 0x4B, 0x05, 0x06}) ||
		bytes.HasPrefix(data, []byte{0x50, 0x4B, 0x07, 0x08})
}

// isRarFormat 检测是否为RAR格式
func isRarFormat(data []byte) bool {
	// RAR v4.x 魔数: Rar!\x1A\x07\x00
	if bytes.HasPrefix(data, []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00}) {
		return true
	}
	// RAR v5.x 魔数: Rar!\x1A\x07\x01\x00
	return bytes.HasPrefix(data, []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00})
}

// is7zFormat 检测是否为7Z格式
func is7zFormat(data []byte) bool {
	// 7Z魔数: 7z\xBC\xAF\x27\x1C
	return bytes.HasPrefix(data, []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C})
}
