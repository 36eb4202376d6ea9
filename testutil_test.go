package modlib

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

// zipFixture 测试压缩包中的一个条目，name 以 / 结尾时为目录
type zipFixture struct {
	name string
	body string
}

func writeZip(t *testing.T, path string, files []zipFixture) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for _, file := range files {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: file.name, Method: zip.Deflate})
		require.NoError(t, err)
		if file.body != "" {
			_, err = io.WriteString(fw, file.body)
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return path
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func mkdirAll(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0o755))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// newTestLibrary 在临时目录中创建模组库，删除分组直接永久删除
func newTestLibrary(t *testing.T, opts ...LibraryOption) (*Library, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Mods")
	base := []LibraryOption{
		WithLogger(quietLogger()),
		WithTrash(func(p string) error { return os.RemoveAll(p) }),
		WithUnrarPath(filepath.Join(t.TempDir(), "missing", "unrar")),
	}
	return NewLibrary(root, append(base, opts...)...), root
}
