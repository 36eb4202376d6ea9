package modlib

import (
	"regexp"
	"strings"
)

// FilenameSanitizer 文件名安全化处理器
type FilenameSanitizer struct {
	// 全角符号替换表
	fullWidth *strings.Replacer
	// 非法字符正则表达式
	illegalPattern *regexp.Regexp
}

// NewFilenameSanitizer 创建文件名安全化处理器
func NewFilenameSanitizer() *FilenameSanitizer {
	return &FilenameSanitizer{
		fullWidth: strings.NewReplacer(
			"？", "_",
			"｜", "_",
			"＊", "_",
			"＜", "_",
			"＞", "_",
		),
		illegalPattern: regexp.MustCompile(`[<>:"|?*\x00-\x1f]`),
	}
}

// SanitizeSegment 安全化单级文件名，使其在 Windows 下可写
func (fs *FilenameSanitizer) SanitizeSegment(segment string) string {
	if segment == "" {
		return "unnamed_file"
	}

	sanitized := fs.fullWidth.Replace(segment)
	sanitized = fs.illegalPattern.ReplaceAllString(sanitized, "_")

	// Windows 不允许结尾的空格和点
	sanitized = strings.TrimRight(sanitized, " .")
	if sanitized == "" {
		sanitized = "unnamed_file"
	}

	if len(sanitized) > 255 {
		sanitized = truncateName(sanitized, 255)
	}

	return sanitized
}

// SanitizePath 逐段安全化以 / 分隔的相对路径
func (fs *FilenameSanitizer) SanitizePath(rel string) string {
	segments := splitSegments(rel)
	for i, segment := range segments {
		if segment == ".." {
			continue
		}
		segments[i] = fs.SanitizeSegment(segment)
	}
	return strings.Join(segments, "/")
}

// truncateName 按字节截断文件名，保留扩展名且不截断多字节字符
func truncateName(name string, limit int) string {
	ext := ""
	if dot := strings.LastIndex(name, "."); dot > 0 && len(name)-dot <= 16 {
		ext = name[dot:]
	}
	stem := strings.TrimSuffix(name, ext)
	budget := limit - len(ext)
	var b strings.Builder
	for _, r := range stem {
		if b.Len()+len(string(r)) > budget {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + ext
}
