package modlib

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
	encryptedzip "github.com/yeka/zip"
)

// zipArchiveReader ZIP读取器，使用 yeka/zip 以支持加密条目
type zipArchiveReader struct {
	path       string
	reader     *encryptedzip.ReadCloser
	normalizer *entryNormalizer
	passwords  *passwordManager
	logger     *log.Logger

	password         string
	passwordResolved bool
}

// newZipReader 打开ZIP文件
func newZipReader(path string, normalizer *entryNormalizer, passwords *passwordManager, logger *log.Logger) (ArchiveReader, error) {
	reader, err := encryptedzip.OpenReader(path)
	if err != nil {
		return nil, handleZipError(err, path)
	}
	return &zipArchiveReader{
		path:       path,
		reader:     reader,
		normalizer: normalizer,
		passwords:  passwords,
		logger:     logger,
	}, nil
}

// Format 返回压缩格式
func (r *zipArchiveReader) Format() ArchiveFormat {
	return FormatZIP
}

// Entries 列出全部条目
func (r *zipArchiveReader) Entries() ([]ArchiveEntry, error) {
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
func (r *zipArchiveReader) Walk(fn WalkFunc) error {
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
		if err := r.walkFile(file, entry, fn); err != nil {
			return err
		}
	}
	return nil
}

// walkFile 打开单个文件并交给回调
func (r *zipArchiveReader) walkFile(file *encryptedzip.File, entry ArchiveEntry, fn WalkFunc) error {
	if file.IsEncrypted() {
		password, err := r.resolvePassword(file)
		if err != nil {
			return err
		}
		file.SetPassword(password)
	}

	src, err := file.Open()
	if err != nil {
		return handleZipError(err, entry.Path)
	}
	defer src.Close()

	if err := fn(entry, src); err != nil {
		return err
	}
	return nil
}

// resolvePassword 用第一个加密条目验证候选密码，结果在整个压缩包内复用
func (r *zipArchiveReader) resolvePassword(file *encryptedzip.File) (string, error) {
	if r.passwordResolved {
		return r.password, nil
	}

	candidates := r.passwords.candidates()
	for i, password := range candidates {
		r.logger.Debug("尝试ZIP密码", "attempt", i+1, "total", len(candidates), "password", maskPassword(password))
		file.SetPassword(password)
		if err := readThrough(file.Open); err == nil {
			r.password = password
			r.passwordResolved = true
			return password, nil
		}
	}

	return "", NewModError(ErrPasswordRequired, "ZIP文件已加密且没有可用的密码", r.path, nil)
}

// entryOf 把 ZIP 文件头转换为 ArchiveEntry
func (r *zipArchiveReader) entryOf(file *encryptedzip.File) (ArchiveEntry, bool, error) {
	name, skip, err := r.normalizer.normalize(file.Name)
	if err != nil || skip {
		return ArchiveEntry{}, skip, err
	}
	info := file.FileInfo()
	isDir := info.IsDir() || strings.HasSuffix(file.Name, "/")
	entry := ArchiveEntry{
		Path:      name,
		IsDir:     isDir,
		Mode:      info.Mode(),
		Modified:  info.ModTime(),
		Encrypted: file.IsEncrypted(),
	}
	if !isDir {
		entry.Size = int64(file.UncompressedSize64)
	}
	return entry, false, nil
}

// Close 关闭ZIP文件
func (r *zipArchiveReader) Close() error {
	return r.reader.Close()
}

// readThrough 完整读取一次内容以验证密码
func readThrough(open func() (io.ReadCloser, error)) error {
	rc, err := open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(io.Discard, rc)
	return err
}

// handleZipError 处理ZIP相关错误
func handleZipError(err error, path string) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()
	if strings.Contains(errorMsg, "not a valid zip file") {
		return NewModError(ErrArchiveCorrupt, "不是有效的ZIP文件", path, err)
	}
	if strings.Contains(errorMsg, "checksum") {
		return NewModError(ErrArchiveCorrupt, "ZIP文件校验和错误", path, err)
	}
	return handleArchiveError(err, FormatZIP, path)
}
