package modlib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	// settingsRelPath 设置文件相对 XDG 配置目录的路径
	settingsRelPath = "modlib/settings.json"
	// envPrefix 环境变量前缀，例如 MODLIB_MODSROOT
	envPrefix = "MODLIB"
)

// Settings 引擎设置
type Settings struct {
	ModsRoot          string   `mapstructure:"modsRoot" json:"modsRoot"`
	DefaultGroup      string   `mapstructure:"defaultGroup" json:"defaultGroup"`
	RarBackend        string   `mapstructure:"rarBackend" json:"rarBackend"`
	UnrarPath         string   `mapstructure:"unrarPath" json:"unrarPath"`
	NameEncoding      string   `mapstructure:"nameEncoding" json:"nameEncoding"`
	Passwords         []string `mapstructure:"passwords" json:"passwords"`
	BuiltinPasswords  bool     `mapstructure:"builtinPasswords" json:"builtinPasswords"`
	InstallWorkers    int      `mapstructure:"installWorkers" json:"installWorkers"`
	MigotoDir         string   `mapstructure:"migotoDir" json:"migotoDir"`
	CurrentConfigName string   `mapstructure:"currentConfigName" json:"currentConfigName"`
}

// DefaultSettings 默认设置
func DefaultSettings() Settings {
	return Settings{
		ModsRoot:          filepath.Join(xdg.DataHome, "modlib", "Mods"),
		DefaultGroup:      DefaultGroup,
		RarBackend:        string(RarBackendAuto),
		NameEncoding:      DefaultNameEncoding,
		Passwords:         []string{},
		BuiltinPasswords:  true,
		InstallWorkers:    defaultInstallWorkers,
		CurrentConfigName: "Default",
	}
}

// DefaultSettingsPath 返回 XDG 配置目录中的设置文件路径
func DefaultSettingsPath() (string, error) {
	path, err := xdg.ConfigFile(settingsRelPath)
	if err != nil {
		return "", fmt.Errorf("无法确定设置文件路径: %w", err)
	}
	return path, nil
}

// newSettingsViper 创建带默认值和环境变量覆盖的 viper 实例
func newSettingsViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultSettings()
	v.SetDefault("modsRoot", defaults.ModsRoot)
	v.SetDefault("defaultGroup", defaults.DefaultGroup)
	v.SetDefault("rarBackend", defaults.RarBackend)
	v.SetDefault("unrarPath", defaults.UnrarPath)
	v.SetDefault("nameEncoding", defaults.NameEncoding)
	v.SetDefault("passwords", defaults.Passwords)
	v.SetDefault("builtinPasswords", defaults.BuiltinPasswords)
	v.SetDefault("installWorkers", defaults.InstallWorkers)
	v.SetDefault("migotoDir", defaults.MigotoDir)
	v.SetDefault("currentConfigName", defaults.CurrentConfigName)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings 读取设置；path 为空时使用 XDG 默认路径，文件不存在时返回默认设置
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		var err error
		if path, err = DefaultSettingsPath(); err != nil {
			return nil, err
		}
	}

	v := newSettingsViper()
	if entryExists(path) {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, NewModError(ErrIO, "无法解析设置文件", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, NewModError(ErrIO, "设置格式错误", path, err)
	}
	if s.Passwords == nil {
		s.Passwords = []string{}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSettings 写入设置文件
func SaveSettings(path string, s *Settings) error {
	if path == "" {
		var err error
		if path, err = DefaultSettingsPath(); err != nil {
			return err
		}
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapIOError("无法创建设置目录", filepath.Dir(path), err)
	}

	v := viper.New()
	v.Set("modsRoot", s.ModsRoot)
	v.Set("defaultGroup", s.DefaultGroup)
	v.Set("rarBackend", s.RarBackend)
	v.Set("unrarPath", s.UnrarPath)
	v.Set("nameEncoding", s.NameEncoding)
	v.Set("passwords", s.Passwords)
	v.Set("builtinPasswords", s.BuiltinPasswords)
	v.Set("installWorkers", s.InstallWorkers)
	v.Set("migotoDir", s.MigotoDir)
	v.Set("currentConfigName", s.CurrentConfigName)
	v.SetConfigType("json")
	if err := v.WriteConfigAs(path); err != nil {
		return wrapIOError("无法写入设置文件", path, err)
	}
	return nil
}

// Validate 检查设置取值
func (s *Settings) Validate() error {
	if _, err := ParseRarBackend(s.RarBackend); err != nil {
		return NewModError(ErrIO, err.Error(), "rarBackend", err)
	}
	if _, err := NewEncodingHandler(s.NameEncoding); err != nil {
		return NewModError(ErrIO, err.Error(), "nameEncoding", err)
	}
	if s.DefaultGroup != "" {
		if err := NewSecurityValidator().ValidateName(s.DefaultGroup); err != nil {
			return err
		}
	}
	if s.InstallWorkers < 0 {
		return NewModError(ErrIO, "installWorkers 不能为负数", "installWorkers", nil)
	}
	return nil
}

// D3DXPath 3DMigoto 的 d3dx.ini 路径，未配置 3DMigoto 目录时返回空串
func (s *Settings) D3DXPath() string {
	if s.MigotoDir == "" {
		return ""
	}
	return filepath.Join(s.MigotoDir, D3DXConfigName)
}

// LibraryOptions 把设置转换为模组库选项
func (s *Settings) LibraryOptions(logger *log.Logger) []LibraryOption {
	backend, err := ParseRarBackend(s.RarBackend)
	if err != nil {
		backend = RarBackendAuto
	}
	return []LibraryOption{
		WithLogger(logger),
		WithDefaultGroup(s.DefaultGroup),
		WithRarBackend(backend),
		WithUnrarPath(s.UnrarPath),
		WithArchivePasswords(s.Passwords, s.BuiltinPasswords),
		WithArchiveNameEncoding(s.NameEncoding),
		WithInstallWorkers(s.InstallWorkers),
	}
}

// OpenLibrary 按设置创建模组库
func (s *Settings) OpenLibrary(logger *log.Logger, opts ...LibraryOption) *Library {
	return NewLibrary(s.ModsRoot, append(s.LibraryOptions(logger), opts...)...)
}
