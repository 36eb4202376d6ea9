package modlib

import "strings"

// EncodeDisabled 给目录名加上禁用标记，已带标记时原样返回
func EncodeDisabled(name string) string {
	if strings.HasPrefix(name, DisablePrefix) {
		return name
	}
	return DisablePrefix + name
}

// EncodeEnabled 去掉目录名上的禁用标记
func EncodeEnabled(name string) string {
	return strings.TrimPrefix(name, DisablePrefix)
}

// Decode 解析目录名，返回显示名和启用状态
func Decode(name string) (string, bool) {
	if display, ok := strings.CutPrefix(name, DisablePrefix); ok {
		return display, false
	}
	return name, true
}

// encodeState 按目标状态编码目录名
func encodeState(name string, enabled bool) string {
	if enabled {
		return EncodeEnabled(name)
	}
	return EncodeDisabled(name)
}
