package modlib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ExtractionPlan 解压计划：是否去掉所有条目共有的顶层目录
type ExtractionPlan struct {
	StripPrefix string // 要去掉的顶层目录名
	Strip       bool   // 是否去掉
}

// ExtractResult 解压结果
type ExtractResult struct {
	Destination string        `json:"destination"`
	Files       int           `json:"files"`
	Dirs        int           `json:"dirs"`
	TotalSize   int64         `json:"total_size"`
	StripPrefix string        `json:"strip_prefix,omitempty"`
	ProcessTime time.Duration `json:"process_time"`
	Warnings    []string      `json:"warnings,omitempty"`
}

// PlanExtraction 第一遍：统计所有条目的第一段路径
//
// 所有条目共用同一个第一段且该段是目录时才去掉；只含单个顶层文件的压缩包原样保留。
func PlanExtraction(entries []ArchiveEntry) ExtractionPlan {
	var commonRoot string
	rootIsDir := false
	for _, entry := range entries {
		segments := splitSegments(entry.Path)
		if len(segments) == 0 {
			continue
		}
		switch {
		case commonRoot == "":
			commonRoot = segments[0]
		case commonRoot != segments[0]:
			return ExtractionPlan{}
		}
		if len(segments) > 1 || entry.IsDir {
			rootIsDir = true
		}
	}
	if commonRoot == "" || !rootIsDir {
		return ExtractionPlan{}
	}
	return ExtractionPlan{StripPrefix: commonRoot, Strip: true}
}

// targetPath 应用计划后的相对路径；返回空串表示跳过该条目
func (p ExtractionPlan) targetPath(entryPath string) string {
	if !p.Strip {
		return entryPath
	}
	if entryPath == p.StripPrefix {
		return ""
	}
	if rest, ok := strings.CutPrefix(entryPath, p.StripPrefix+"/"); ok {
		return strings.TrimLeft(rest, "/")
	}
	return entryPath
}

// SmartExtractor 智能解压器
type SmartExtractor struct {
	validator SecurityValidator
	sanitizer *FilenameSanitizer
	progress  ProgressReporter
	logger    *log.Logger
}

// NewSmartExtractor 创建智能解压器，progress 可以为 nil
func NewSmartExtractor(logger *log.Logger, progress ProgressReporter) *SmartExtractor {
	if logger == nil {
		logger = defaultLogger()
	}
	if progress == nil {
		progress = NewSimpleProgressReporter(nil)
	}
	return &SmartExtractor{
		validator: NewSecurityValidator(),
		sanitizer: NewFilenameSanitizer(),
		progress:  progress,
		logger:    logger,
	}
}

// Extract 列出条目、生成计划并写入目标目录
func (e *SmartExtractor) Extract(ctx context.Context, reader ArchiveReader, destination string) (*ExtractResult, error) {
	entries, err := reader.Entries()
	if err != nil {
		return nil, err
	}
	plan := PlanExtraction(entries)
	if plan.Strip {
		e.logger.Debug("去掉公共顶层目录", "prefix", plan.StripPrefix)
	}
	return e.ExtractWithPlan(ctx, reader, destination, plan, entries)
}

// ExtractWithPlan 第二遍：按计划写入目标目录
func (e *SmartExtractor) ExtractWithPlan(ctx context.Context, reader ArchiveReader, destination string, plan ExtractionPlan, entries []ArchiveEntry) (*ExtractResult, error) {
	if err := ensureDirectoryExists(destination); err != nil {
		return nil, err
	}

	startTime := time.Now()
	result := &ExtractResult{
		Destination: destination,
		StripPrefix: plan.StripPrefix,
	}

	var totalBytes int64
	for _, entry := range entries {
		if entry.IsRegular() {
			totalBytes += entry.Size
		}
	}
	var doneBytes int64

	err := reader.Walk(func(entry ArchiveEntry, r io.Reader) error {
		if err := ctx.Err(); err != nil {
			return NewModError(ErrIO, "解压已取消", entry.Path, err)
		}

		rel := plan.targetPath(entry.Path)
		if rel == "" {
			return nil
		}
		if err := e.validator.ValidateEntryPath(rel); err != nil {
			return err
		}

		sanitized := e.sanitizer.SanitizePath(rel)
		if sanitized != rel {
			result.Warnings = append(result.Warnings, fmt.Sprintf("文件名安全化: %s -> %s", rel, sanitized))
		}

		target, err := PathSafeJoin(destination, sanitized)
		if err != nil {
			return err
		}

		switch {
		case entry.IsDir:
			if err := ensureDirectoryExists(target); err != nil {
				return err
			}
			result.Dirs++
			return nil
		case !entry.IsRegular() || r == nil:
			result.Warnings = append(result.Warnings, fmt.Sprintf("跳过非普通文件: %s", entry.Path))
			return nil
		}

		written, err := writeEntry(target, entry, r)
		if err != nil {
			return err
		}
		result.Files++
		result.TotalSize += written
		doneBytes += written
		e.progress.OnFileProgress(doneBytes, totalBytes, sanitized)
		return nil
	})

	result.ProcessTime = time.Since(startTime)
	for _, warning := range result.Warnings {
		e.logger.Warn(warning)
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// writeEntry 写入单个普通文件，已存在的同名文件会被覆盖
func writeEntry(target string, entry ArchiveEntry, r io.Reader) (int64, error) {
	if err := ensureDirectoryExists(filepath.Dir(target)); err != nil {
		return 0, err
	}

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode(entry))
	if err != nil {
		return 0, wrapIOError("无法创建目标文件", target, err)
	}

	written, err := io.Copy(dst, &archiveSource{r: r, path: entry.Path, encrypted: entry.Encrypted})
	closeErr := dst.Close()
	if err != nil {
		var me *ModError
		if errors.As(err, &me) {
			return written, err
		}
		return written, wrapIOError("文件写入失败", target, err)
	}
	if closeErr != nil {
		return written, wrapIOError("文件写入失败", target, closeErr)
	}

	if !entry.Modified.IsZero() {
		// 时间设置失败不影响解压结果
		_ = os.Chtimes(target, entry.Modified, entry.Modified)
	}
	return written, nil
}

// fileMode 写出文件使用的权限，保证所有者可读写
func fileMode(entry ArchiveEntry) os.FileMode {
	perm := entry.Mode.Perm()
	if perm == 0 {
		return 0o644
	}
	return perm | 0o600
}

// archiveSource 把读取端错误标记为压缩包损坏，以区分写入端的 IO 错误
//
// 加密条目的解码失败按密码错误处理：错误的密码可能通过校验字节，之后才在解压时暴露。
type archiveSource struct {
	r         io.Reader
	path      string
	encrypted bool
}

func (s *archiveSource) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		if s.encrypted || isPasswordError(err) {
			return n, NewModError(ErrPasswordRequired, "条目解密失败", s.path, err)
		}
		return n, NewModError(ErrArchiveCorrupt, "条目解码失败", s.path, err)
	}
	return n, err
}

// FlattenStaging 把外部工具解压出的临时目录整理到目标目录
//
// 临时目录下只有一个子目录时，移动该子目录的内容；否则移动所有顶层条目。
// 完成后删除临时目录。
func FlattenStaging(staging, destination string) (string, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", wrapIOError("无法读取临时目录", staging, err)
	}

	source := staging
	stripped := ""
	if len(entries) == 1 && entries[0].IsDir() {
		stripped = entries[0].Name()
		source = filepath.Join(staging, stripped)
	}

	// 要移动的条目与临时目录同名时先给临时目录改名，否则替换同名条目会删掉临时目录本身
	if filepath.Dir(filepath.Clean(staging)) == filepath.Clean(destination) {
		moved, err := os.ReadDir(source)
		if err != nil {
			return stripped, wrapIOError("无法读取临时目录", source, err)
		}
		if slices.ContainsFunc(moved, func(e os.DirEntry) bool { return e.Name() == filepath.Base(staging) }) {
			renamed := freeStagingName(destination, filepath.Base(staging), moved)
			if err := os.Rename(staging, renamed); err != nil {
				return stripped, wrapIOError("无法重命名临时目录", staging, err)
			}
			staging = renamed
			source = filepath.Join(staging, stripped)
		}
	}

	if err := moveDirContents(source, destination); err != nil {
		return stripped, err
	}
	if err := os.RemoveAll(staging); err != nil {
		return stripped, wrapIOError("无法删除临时目录", staging, err)
	}
	return stripped, nil
}

// freeStagingName 目标目录中既不存在、也不会被移入的临时目录名
func freeStagingName(destination, base string, moved []os.DirEntry) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s.%d", base, i)
		taken := slices.ContainsFunc(moved, func(e os.DirEntry) bool { return e.Name() == name })
		if !taken && !entryExists(filepath.Join(destination, name)) {
			return filepath.Join(destination, name)
		}
	}
}
