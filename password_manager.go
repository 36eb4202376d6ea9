package modlib

import (
	"errors"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// passwordManager 加密压缩包的候选密码
type passwordManager struct {
	userPasswords  []string
	includeBuiltin bool
}

// newPasswordManager 创建密码管理器
func newPasswordManager(userPasswords []string, includeBuiltin bool) *passwordManager {
	return &passwordManager{
		userPasswords:  userPasswords,
		includeBuiltin: includeBuiltin,
	}
}

// builtinPasswords 模组分享圈常见的解压密码
func builtinPasswords() []string {
	return []string{
		"1",
		"123",
		"123456",
		"gamebanana",
		"3dmigoto",
	}
}

// candidates 构建完整的密码尝试列表，空密码总是排在最前
func (pm *passwordManager) candidates() []string {
	passwords := []string{""}
	passwords = append(passwords, pm.userPasswords...)
	if pm.includeBuiltin {
		passwords = append(passwords, builtinPasswords()...)
	}
	return RemoveDuplicateStrings(passwords)
}

// isPasswordError 检查是否为密码相关错误
//
// 只认明确指向密码或加密的错误；校验和错误、解压数据损坏在未加密条目上同样会出现，
// 是否按密码错误处理由调用方根据条目是否加密决定。
func isPasswordError(err error) bool {
	if err == nil {
		return false
	}
	if IsErrorType(err, ErrPasswordRequired) {
		return true
	}

	var readErr *sevenzip.ReadError
	if errors.As(err, &readErr) && readErr.Encrypted {
		return true
	}
	if errors.Is(err, rardecode.ErrArchiveEncrypted) ||
		errors.Is(err, rardecode.ErrArchivedFileEncrypted) ||
		errors.Is(err, rardecode.ErrBadPassword) {
		return true
	}

	errorMsg := strings.ToLower(err.Error())
	for _, keyword := range []string{
		"password",
		"encrypted",
		"decryption",
		"authentication failed",
	} {
		if strings.Contains(errorMsg, keyword) {
			return true
		}
	}
	return false
}

// maskPassword 日志中隐藏密码
func maskPassword(password string) string {
	if password == "" {
		return "<无密码>"
	}
	return "***"
}
