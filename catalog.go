package modlib

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// maxScanLevel 扫描的最大层级，0 为模组根目录的直接子目录
const maxScanLevel = 2

// previewExtensions 预览图扩展名
var previewExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// configExtension 模组配置文件扩展名
const configExtension = ".ini"

// catalogVisitor 收集扫描结果，读取失败的节点直接丢弃
type catalogVisitor struct {
	root        string
	logger      *log.Logger
	mods        []ModEntry
	groups      map[string]struct{}
	rootLeafIDs map[string]struct{}
}

// Scan 扫描模组根目录，返回模组列表和分组列表
//
// 扫描是尽力而为的：无法读取的目录被跳过，不会导致整体失败。
func Scan(modsRoot string, logger *log.Logger) ScanResult {
	if logger == nil {
		logger = defaultLogger()
	}
	root, err := filepath.Abs(modsRoot)
	if err != nil {
		root = modsRoot
	}

	v := &catalogVisitor{
		root:        root,
		logger:      logger,
		groups:      make(map[string]struct{}),
		rootLeafIDs: make(map[string]struct{}),
	}
	v.visit(root, 0, "")
	v.collectRootGroups()

	groups := make([]string, 0, len(v.groups))
	for name := range v.groups {
		groups = append(groups, name)
	}
	slices.Sort(groups)

	mods := v.mods
	if mods == nil {
		mods = []ModEntry{}
	}
	return ScanResult{Mods: mods, Groups: groups}
}

// visit 检查 dir 的子目录；group 为第 0 层祖先目录的显示名
func (v *catalogVisitor) visit(dir string, level int, group string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		v.logger.Debug("跳过无法读取的目录", "dir", dir, "err", err)
		return
	}

	for _, entry := range entries {
		if entry.Name() == stagingDirName || !followsToDir(dir, entry) {
			continue
		}
		child := filepath.Join(dir, entry.Name())

		childGroup := group
		if level == 0 {
			childGroup, _ = Decode(entry.Name())
		}

		images, leaf, ok := v.inspect(child)
		if !ok {
			continue
		}
		if leaf {
			v.addMod(child, entry.Name(), level, childGroup, images)
			continue
		}
		if level < maxScanLevel {
			v.visit(child, level+1, childGroup)
		}
	}
}

// inspect 判断目录是否为叶子模组，并返回其中的预览图
func (v *catalogVisitor) inspect(dir string) (images []string, leaf bool, ok bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		v.logger.Debug("跳过无法读取的目录", "dir", dir, "err", err)
		return nil, false, false
	}

	hasConfig := false
	for _, entry := range entries {
		if followsToDir(dir, entry) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch {
		case slices.Contains(previewExtensions, ext):
			images = append(images, filepath.Join(dir, entry.Name()))
		case ext == configExtension:
			hasConfig = true
		}
	}
	slices.Sort(images)
	return images, len(images) > 0 || hasConfig, true
}

// addMod 记录一个叶子模组
func (v *catalogVisitor) addMod(dir, dirName string, level int, group string, images []string) {
	rel, err := filepath.Rel(v.root, dir)
	if err != nil {
		v.logger.Debug("无法计算相对路径", "dir", dir, "err", err)
		return
	}
	id := filepath.ToSlash(rel)
	name, enabled := Decode(dirName)

	if level == 0 {
		group = RootGroup
		v.rootLeafIDs[id] = struct{}{}
	}
	if images == nil {
		images = []string{}
	}

	v.mods = append(v.mods, ModEntry{
		ID:            id,
		Name:          name,
		Enabled:       enabled,
		Path:          dir,
		RelativePath:  id,
		PreviewImages: images,
		Group:         group,
		IsDir:         true,
	})
}

// collectRootGroups 第二遍：根目录下不是模组的子目录都是分组，空分组也会出现
func (v *catalogVisitor) collectRootGroups() {
	entries, err := os.ReadDir(v.root)
	if err != nil {
		v.logger.Debug("跳过无法读取的目录", "dir", v.root, "err", err)
		return
	}
	for _, entry := range entries {
		if entry.Name() == stagingDirName || !followsToDir(v.root, entry) {
			continue
		}
		if _, isMod := v.rootLeafIDs[entry.Name()]; isMod {
			continue
		}
		v.groups[entry.Name()] = struct{}{}
	}
}

// followsToDir 条目是否为目录，符号链接按其目标判断
func followsToDir(parent string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	return isDir(filepath.Join(parent, entry.Name()))
}
