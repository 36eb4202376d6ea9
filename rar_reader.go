package modlib

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/nwaples/rardecode/v2"
)

// rarArchiveReader RAR读取器，使用 rardecode 原生解码
//
// rardecode 只能顺序读取，Entries 与 Walk 各自重新打开一次压缩包。
type rarArchiveReader struct {
	path       string
	password   string
	normalizer *entryNormalizer
}

// newRarReader 打开RAR文件，依次尝试候选密码
func newRarReader(path string, normalizer *entryNormalizer, passwords *passwordManager, logger *log.Logger) (ArchiveReader, error) {
	candidates := passwords.candidates()

	var lastErr error
	for i, password := range candidates {
		logger.Debug("尝试RAR密码", "attempt", i+1, "total", len(candidates), "password", maskPassword(password))

		encrypted, err := checkRarPassword(path, password)
		if err == nil {
			return &rarArchiveReader{
				path:       path,
				password:   password,
				normalizer: normalizer,
			}, nil
		}
		lastErr = err
		if !encrypted && !isPasswordError(err) {
			return nil, handleRarError(err, path)
		}
	}

	return nil, NewModError(ErrPasswordRequired, "RAR文件已加密且没有可用的密码", path, lastErr)
}

// openRar 打开RAR文件
func openRar(path, password string) (*rardecode.ReadCloser, error) {
	if password == "" {
		return rardecode.OpenReader(path)
	}
	return rardecode.OpenReader(path, rardecode.Password(password))
}

// checkRarPassword 读到第一个普通文件的内容为止，用于验证压缩包和密码
//
// encrypted 表示出错的条目是加密的，此时错误可能只是密码不对。
func checkRarPassword(path, password string) (encrypted bool, err error) {
	reader, err := openRar(path, password)
	if err != nil {
		return false, err
	}
	defer reader.Close()

	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if header.IsDir {
			continue
		}
		_, err = io.Copy(io.Discard, reader)
		return header.Encrypted, err
	}
}

// Format 返回压缩格式
func (r *rarArchiveReader) Format() ArchiveFormat {
	return FormatRAR
}

// Entries 列出全部条目
func (r *rarArchiveReader) Entries() ([]ArchiveEntry, error) {
	var entries []ArchiveEntry
	err := r.iterate(func(entry ArchiveEntry, _ *rardecode.ReadCloser) error {
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Walk 顺序遍历条目
func (r *rarArchiveReader) Walk(fn WalkFunc) error {
	return r.iterate(func(entry ArchiveEntry, reader *rardecode.ReadCloser) error {
		if !entry.IsRegular() {
			return fn(entry, nil)
		}
		return fn(entry, reader)
	})
}

// iterate 打开压缩包并遍历所有条目
func (r *rarArchiveReader) iterate(visit func(ArchiveEntry, *rardecode.ReadCloser) error) error {
	reader, err := openRar(r.path, r.password)
	if err != nil {
		return handleRarError(err, r.path)
	}
	defer reader.Close()

	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return handleRarError(err, r.path)
		}

		name, skip, err := r.normalizer.normalize(header.Name)
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		entry := ArchiveEntry{
			Path:      name,
			IsDir:     header.IsDir,
			Mode:      header.Mode(),
			Modified:  header.ModificationTime,
			Encrypted: header.Encrypted,
		}
		if !header.IsDir {
			entry.Size = header.UnPackedSize
		}
		if err := visit(entry, reader); err != nil {
			return err
		}
	}
}

// Close RAR读取器不持有打开的文件
func (r *rarArchiveReader) Close() error {
	return nil
}

// handleRarError 处理RAR相关错误
func handleRarError(err error, path string) error {
	return handleArchiveError(err, FormatRAR, path)
}
