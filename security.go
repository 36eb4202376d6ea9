package modlib

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// SecurityValidator 安全验证器接口
type SecurityValidator interface {
	// ValidateEntryPath 验证压缩包条目路径
	ValidateEntryPath(name string) error

	// ValidateName 验证单级目录名（分组名、模组名）
	ValidateName(name string) error

	// ValidateRelativePath 验证相对模组根目录的路径（模组 ID）
	ValidateRelativePath(rel string) error
}

// defaultSecurityValidator 默认安全验证器实现
type defaultSecurityValidator struct {
	maxPathLength int
}

// NewSecurityValidator 创建新的安全验证器
func NewSecurityValidator() SecurityValidator {
	return &defaultSecurityValidator{
		maxPathLength: 1024,
	}
}

// ValidateEntryPath 验证压缩包条目路径
func (v *defaultSecurityValidator) ValidateEntryPath(name string) error {
	if len(name) > v.maxPathLength {
		return NewModError(ErrSecurity,
			fmt.Sprintf("路径长度超过限制 (%d > %d)", len(name), v.maxPathLength),
			name, nil)
	}
	return v.checkRelative(name)
}

// ValidateName 验证单级目录名
func (v *defaultSecurityValidator) ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewModError(ErrSecurity, "名称不能为空", name, nil)
	}
	if strings.ContainsAny(name, `/\`) {
		return NewModError(ErrSecurity, "名称不能包含路径分隔符", name, nil)
	}
	if name == "." || name == ".." {
		return NewModError(ErrSecurity, "名称不能是 . 或 ..", name, nil)
	}
	if err := checkControlCharacters(name); err != nil {
		return err
	}
	return checkReservedName(name)
}

// ValidateRelativePath 验证模组 ID
func (v *defaultSecurityValidator) ValidateRelativePath(rel string) error {
	if strings.TrimSpace(rel) == "" {
		return NewModError(ErrSecurity, "路径不能为空", rel, nil)
	}
	return v.checkRelative(rel)
}

// checkRelative 拒绝绝对路径、盘符和 .. 段
func (v *defaultSecurityValidator) checkRelative(name string) error {
	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return NewModError(ErrSecurity, "不允许绝对路径", name, nil)
	}
	if len(slashed) >= 2 && slashed[1] == ':' {
		return NewModError(ErrSecurity, "不允许带盘符的路径", name, nil)
	}
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return NewModError(ErrSecurity, "检测到路径遍历", name, nil)
		}
	}
	return checkControlCharacters(name)
}

// checkControlCharacters 检查控制字符
func checkControlCharacters(path string) error {
	for _, char := range path {
		// U+FFFD 可能来自编码转换，不算危险字符
		if unicode.IsControl(char) && char != '\uFFFD' {
			return NewModError(ErrSecurity,
				fmt.Sprintf("路径包含控制字符: U+%04X", char),
				path, nil)
		}
	}
	return nil
}

// checkReservedName 检查Windows保留名称
func checkReservedName(name string) error {
	upper := strings.ToUpper(name)
	if dotIndex := strings.Index(upper, "."); dotIndex > 0 {
		upper = upper[:dotIndex]
	}
	switch upper {
	case "CON", "PRN", "AUX", "NUL",
		"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
		"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9":
		return NewModError(ErrSecurity,
			fmt.Sprintf("名称为Windows保留名称: %s", upper),
			name, nil)
	}
	return nil
}

// PathSafeJoin 安全地连接路径，结果必须位于 base 之内
func PathSafeJoin(base, rel string) (string, error) {
	if err := NewSecurityValidator().ValidateEntryPath(rel); err != nil {
		return "", err
	}

	result := filepath.Join(base, filepath.FromSlash(strings.ReplaceAll(rel, "\\", "/")))

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", NewModError(ErrIO, "无法解析基础目录", base, err)
	}
	absResult, err := filepath.Abs(result)
	if err != nil {
		return "", NewModError(ErrIO, "无法解析目标路径", rel, err)
	}

	relPath, err := filepath.Rel(absBase, absResult)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", NewModError(ErrSecurity, "路径连接后超出基础目录", rel, err)
	}

	return result, nil
}
