package modlib

import (
	"os"
	"regexp"
	"slices"
	"strings"
)

// sectionHeaderPattern 分组头：[name]，允许尾部的 ; 注释
var sectionHeaderPattern = regexp.MustCompile(`^\s*\[([^\]]*)\]\s*(;.*)?$`)

// Document 按行保存的 ini 文档，未改动的行原样保留
type Document struct {
	path            string
	lines           []string
	newline         string
	trailingNewline bool
}

// ParseDocument 解析文本，识别 \r\n 或 \n 换行
func ParseDocument(text string) *Document {
	doc := &Document{newline: "\n", trailingNewline: true}
	if strings.Contains(text, "\r\n") {
		doc.newline = "\r\n"
	}
	if text == "" {
		return doc
	}

	body, trailing := strings.CutSuffix(text, doc.newline)
	doc.trailingNewline = trailing
	doc.lines = strings.Split(body, doc.newline)
	return doc
}

// LoadDocument 读取 ini 文件
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapIOError("无法读取配置文件", path, err)
	}
	doc := ParseDocument(string(data))
	doc.path = path
	return doc, nil
}

// PatchFile 读取、修改并写回 ini 文件
func PatchFile(path string, patch func(*Document) error) error {
	doc, err := LoadDocument(path)
	if err != nil {
		return err
	}
	if err := patch(doc); err != nil {
		return err
	}
	return doc.Save()
}

// Path 返回文档对应的文件路径
func (d *Document) Path() string {
	return d.path
}

// Lines 返回文档的所有行
func (d *Document) Lines() []string {
	return append([]string(nil), d.lines...)
}

// String 序列化文档
func (d *Document) String() string {
	if len(d.lines) == 0 {
		return ""
	}
	text := strings.Join(d.lines, d.newline)
	if d.trailingNewline {
		text += d.newline
	}
	return text
}

// Save 覆盖写回原文件
func (d *Document) Save() error {
	if d.path == "" {
		return NewModError(ErrIO, "文档没有关联的文件路径", "", nil)
	}
	return d.SaveAs(d.path)
}

// SaveAs 写入指定文件，之后 Save 也写入该文件
func (d *Document) SaveAs(path string) error {
	if err := os.WriteFile(path, []byte(d.String()), 0o644); err != nil {
		return wrapIOError("无法写入配置文件", path, err)
	}
	d.path = path
	return nil
}

// Sections 按出现顺序返回所有分组名
func (d *Document) Sections() []string {
	var names []string
	for _, line := range d.lines {
		if name, ok := parseSectionHeader(line); ok {
			names = append(names, name)
		}
	}
	return names
}

// Get 读取键值，分组和键名不区分大小写；同名分组重复出现时返回第一个匹配
func (d *Document) Get(section, key string) (string, bool) {
	inSection := false
	for _, line := range d.lines {
		if name, ok := parseSectionHeader(line); ok {
			inSection = strings.EqualFold(name, strings.TrimSpace(section))
			continue
		}
		if !inSection {
			continue
		}
		if eq, ok := matchKey(line, key); ok {
			return strings.TrimSpace(line[eq+1:]), true
		}
	}
	return "", false
}

// Set 写入键值
//
// 同名分组可能出现多次，所有副本都参与查找：第一个匹配的键只替换值部分，其余
// 同名键被删除；所有副本都没有该键时插入到第一个副本的末尾（下一个分组头之前）；
// 没有该分组时在文末追加空行、分组头和键值。
func (d *Document) Set(section, key, value string) {
	target := strings.TrimSpace(section)
	lines := make([]string, 0, len(d.lines)+3)
	found := false
	seen := false
	inSection := false
	firstEnd := -1

	for _, line := range d.lines {
		if name, ok := parseSectionHeader(line); ok {
			if inSection && firstEnd < 0 {
				firstEnd = len(lines)
			}
			inSection = strings.EqualFold(name, target)
			seen = seen || inSection
			lines = append(lines, line)
			continue
		}
		if inSection {
			if eq, ok := matchKey(line, key); ok {
				if found {
					continue
				}
				line = strings.TrimRight(line[:eq], " \t") + " = " + value
				found = true
			}
		}
		lines = append(lines, line)
	}
	if inSection && firstEnd < 0 {
		firstEnd = len(lines)
	}

	switch {
	case !seen:
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "["+section+"]", key+" = "+value)
	case !found:
		lines = slices.Insert(lines, firstEnd, key+" = "+value)
	}
	d.lines = lines
}

// Remove 删除所有同名分组中的该键；分组或键不存在时什么也不做
func (d *Document) Remove(section, key string) {
	target := strings.TrimSpace(section)
	kept := make([]string, 0, len(d.lines))
	inSection := false
	removed := false

	for _, line := range d.lines {
		if name, ok := parseSectionHeader(line); ok {
			inSection = strings.EqualFold(name, target)
		} else if inSection {
			if _, ok := matchKey(line, key); ok {
				removed = true
				continue
			}
		}
		kept = append(kept, line)
	}
	if removed {
		d.lines = kept
	}
}

// parseSectionHeader 解析分组头，返回去掉空白的分组名
func parseSectionHeader(line string) (string, bool) {
	m := sectionHeaderPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// matchKey 判断一行是否为指定键，返回 = 的位置
func matchKey(line, key string) (int, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
		return 0, false
	}
	eq := strings.Index(line, "=")
	if eq < 0 {
		return 0, false
	}
	if !strings.EqualFold(strings.TrimSpace(line[:eq]), strings.TrimSpace(key)) {
		return 0, false
	}
	return eq, true
}
