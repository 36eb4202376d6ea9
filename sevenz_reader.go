package modlib

import (
	"github.com/bodgit/sevenzip"
	"github.com/charmbracelet/log"
)

// sevenZArchiveReader 7Z读取器
type sevenZArchiveReader struct {
	path       string
	reader     *sevenzip.ReadCloser
	normalizer *entryNormalizer
}

// newSevenZReader 打开7Z文件，依次尝试候选密码
func newSevenZReader(path string, normalizer *entryNormalizer, passwords *passwordManager, logger *log.Logger) (ArchiveReader, error) {
	candidates := passwords.candidates()

	var lastErr error
	for i, password := range candidates {
		logger.Debug("尝试7Z密码", "attempt", i+1, "total", len(candidates), "password", maskPassword(password))

		reader, err := openSevenZipWithPassword(path, password)
		if err != nil {
			lastErr = err
			if isPasswordError(err) {
				continue
			}
			return nil, handle7zError(err, path)
		}

		// 头部未加密时密码错误要到读取内容才会暴露
		if err := checkSevenZPassword(reader); err != nil {
			reader.Close()
			lastErr = err
			if isPasswordError(err) {
				continue
			}
			return nil, handle7zError(err, path)
		}

		return &sevenZArchiveReader{
			path:       path,
			reader:     reader,
			normalizer: normalizer,
		}, nil
	}

	return nil, NewModError(ErrPasswordRequired, "7Z文件已加密且没有可用的密码", path, lastErr)
}

// openSevenZipWithPassword 使用密码打开7z文件
func openSevenZipWithPassword(archivePath, password string) (*sevenzip.ReadCloser, error) {
	if password != "" {
		return sevenzip.OpenReaderWithPassword(archivePath, password)
	}
	return sevenzip.OpenReader(archivePath)
}

// checkSevenZPassword 读取第一个普通文件以验证密码
func checkSevenZPassword(reader *sevenzip.ReadCloser) error {
	for _, file := range reader.File {
		if file.FileInfo().Mode().IsRegular() {
			return readThrough(file.Open)
		}
	}
	return nil
}

// Format 返回压缩格式
func (r *sevenZArchiveReader) Format() ArchiveFormat {
	return Format7Z
}

// Entries 列出全部条目
func (r *sevenZArchiveReader) Entries() ([]ArchiveEntry, error) {
	entries := make([]ArchiveEntry, 0, len(r.reader.File))
	for _, file := range r.reader.File {
		entry, skip, err := r.entryOf(file)
		if err != nil {
			return nil, err
		}
		if !skip {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Walk 顺序遍历条目
func (r *sevenZArchiveReader) Walk(fn WalkFunc) error {
	for _, file := range r.reader.File {
		entry, skip, err := r.entryOf(file)
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		if !entry.IsRegular() {
			if err := fn(entry, nil); err != nil {
				return err
			}
			continue
		}

		src, err := file.Open()
		if err != nil {
			return handle7zError(err, entry.Path)
		}
		err = fn(entry, src)
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// entryOf 把 7Z 文件头转换为 ArchiveEntry
func (r *sevenZArchiveReader) entryOf(file *sevenzip.File) (ArchiveEntry, bool, error) {
	name, skip, err := r.normalizer.normalize(file.Name)
	if err != nil || skip {
		return ArchiveEntry{}, skip, err
	}
	info := file.FileInfo()
	entry := ArchiveEntry{
		Path:     name,
		IsDir:    info.IsDir(),
		Mode:     info.Mode(),
		Modified: info.ModTime(),
	}
	if !entry.IsDir {
		entry.Size = info.Size()
	}
	return entry, false, nil
}

// Close 关闭7Z文件
func (r *sevenZArchiveReader) Close() error {
	return r.reader.Close()
}

// handle7zError 处理7Z相关错误
func handle7zError(err error, path string) error {
	return handleArchiveError(err, Format7Z, path)
}
