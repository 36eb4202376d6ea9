package modlib

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vaughan0/go-ini"
)

const (
	// D3DXConfigName 3DMigoto 主配置文件名
	D3DXConfigName = "d3dx.ini"
	// D3D11DLLName 3DMigoto 注入库文件名
	D3D11DLLName = "d3d11.dll"

	// analyseOptions 自动设置的帧分析选项
	analyseOptions = "deferred_ctx_immediate dump_rt dump_cb dump_vb dump_ib buf txt dds dump_tex dds"
	// symlinkOption 帧分析时用符号链接代替复制
	symlinkOption = " symlink"
	// markingActions 标记着色器时执行的动作
	markingActions = "clipboard asm hlsl"
)

// LauncherSettings 启动相关设置，写入 d3dx.ini
type LauncherSettings struct {
	TargetExe             string `json:"targetExe"`
	LauncherExe           string `json:"launcherExe"`
	LaunchArgs            string `json:"launchArgs"`
	UseShell              bool   `json:"useShell"`
	ShowErrorPopup        bool   `json:"showErrorPopup"`
	AutoSetAnalyseOptions bool   `json:"autoSetAnalyseOptions"`
	DLLInitDelay          *int   `json:"dllInitDelay,omitempty"`
	AutoExitSeconds       *int   `json:"autoExitSeconds,omitempty"`
	ExtraDLL              string `json:"extraDll"`
}

// ApplyLauncherSettings 把启动设置写入文档
func ApplyLauncherSettings(doc *Document, s LauncherSettings) {
	if s.TargetExe != "" {
		doc.Set("Loader", "target", s.TargetExe)
	}

	if s.UseShell {
		doc.Remove("Loader", "launch")
		doc.Remove("Loader", "launch_args")
	} else {
		setOrRemove(doc, "Loader", "launch", s.LauncherExe)
		setOrRemove(doc, "Loader", "launch_args", s.LaunchArgs)
	}

	if s.ShowErrorPopup {
		doc.Set("Logging", "show_warnings", "1")
	} else {
		doc.Set("Logging", "show_warnings", "0")
	}

	if s.AutoSetAnalyseOptions {
		doc.Set("Hunting", "analyse_options", analyseOptions)
	}
	if s.DLLInitDelay != nil {
		doc.Set("System", "dll_initialization_delay", strconv.Itoa(*s.DLLInitDelay))
	}

	doc.Set("Hunting", "hunting", "2")
	doc.Set("Hunting", "marking_actions", markingActions)

	if s.AutoExitSeconds != nil {
		doc.Set("Loader", "delay", strconv.Itoa(*s.AutoExitSeconds))
	}
	setOrRemove(doc, "Loader", "inject_dll", s.ExtraDLL)
}

// ProjectLauncherSettings 读取 d3dx.ini，写入启动设置后保存
func ProjectLauncherSettings(d3dxPath string, s LauncherSettings) error {
	return PatchFile(d3dxPath, func(doc *Document) error {
		ApplyLauncherSettings(doc, s)
		return nil
	})
}

// ToggleSymlink 开关帧分析的 symlink 选项
func ToggleSymlink(d3dxPath string, enable bool) error {
	value := analyseOptions
	if enable {
		value += symlinkOption
	}
	return PatchFile(d3dxPath, func(doc *Document) error {
		doc.Set("hunting", "analyse_options", value)
		return nil
	})
}

// ReadLauncherSettings 从 d3dx.ini 读回启动设置
//
// UseShell 无法从文件推断，总是为 false。
func ReadLauncherSettings(d3dxPath string) (LauncherSettings, error) {
	doc, err := LoadDocument(d3dxPath)
	if err != nil {
		return LauncherSettings{}, err
	}

	file, err := ini.Load(strings.NewReader(doc.assignments("loader", "logging", "system", "hunting")))
	if err != nil {
		return LauncherSettings{}, NewModError(ErrIO, "无法解析配置文件", d3dxPath, err)
	}

	var s LauncherSettings
	s.TargetExe, _ = file.Get("loader", "target")
	s.LauncherExe, _ = file.Get("loader", "launch")
	s.LaunchArgs, _ = file.Get("loader", "launch_args")
	s.ExtraDLL, _ = file.Get("loader", "inject_dll")
	if v, ok := file.Get("logging", "show_warnings"); ok {
		s.ShowErrorPopup = v == "1"
	}
	if v, ok := file.Get("hunting", "analyse_options"); ok {
		s.AutoSetAnalyseOptions = strings.HasPrefix(v, analyseOptions)
	}
	s.DLLInitDelay = intValue(file, "system", "dll_initialization_delay")
	s.AutoExitSeconds = intValue(file, "loader", "delay")
	return s, nil
}

// CheckMigotoIntegrity 检查 3DMigoto 目录中是否有 d3d11.dll 和 d3dx.ini
func CheckMigotoIntegrity(dir string) bool {
	return isRegularFile(filepath.Join(dir, D3D11DLLName)) && isRegularFile(filepath.Join(dir, D3DXConfigName))
}

// setOrRemove 值非空时写入，否则删除键
func setOrRemove(doc *Document, section, key, value string) {
	if value != "" {
		doc.Set(section, key, value)
		return
	}
	doc.Remove(section, key)
}

// intValue 读取整数键，不存在或无法解析时返回 nil
func intValue(file ini.File, section, key string) *int {
	v, ok := file.Get(section, key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}

// assignments 导出指定分组中的 key = value 行，分组名和键名转为小写
//
// 3DMigoto 的命令列表中有不含 = 的行，只导出简单赋值才能交给 ini 解析器。
func (d *Document) assignments(sections ...string) string {
	var b strings.Builder
	include := false
	for _, line := range d.lines {
		if name, ok := parseSectionHeader(line); ok {
			include = false
			for _, section := range sections {
				if strings.EqualFold(name, section) {
					include = true
				}
			}
			if include {
				b.WriteString("[" + strings.ToLower(name) + "]\n")
			}
			continue
		}
		if !include {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(trimmed, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		b.WriteString(strings.ToLower(strings.TrimSpace(key)) + " = " + strings.TrimSpace(value) + "\n")
	}
	return b.String()
}
