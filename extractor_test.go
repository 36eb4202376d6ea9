package modlib

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanExtraction(t *testing.T) {
	file := func(p string) ArchiveEntry { return ArchiveEntry{Path: p} }
	dir := func(p string) ArchiveEntry { return ArchiveEntry{Path: p, IsDir: true} }

	tests := []struct {
		name    string
		entries []ArchiveEntry
		want    ExtractionPlan
	}{
		{"single root", []ArchiveEntry{dir("Pkg"), file("Pkg/a.ini"), file("Pkg/b/c.dds")}, ExtractionPlan{StripPrefix: "Pkg", Strip: true}},
		{"single root without dir entry", []ArchiveEntry{file("Pkg/a.ini")}, ExtractionPlan{StripPrefix: "Pkg", Strip: true}},
		{"two roots", []ArchiveEntry{file("A/a.ini"), file("B/b.ini")}, ExtractionPlan{}},
		{"root file and folder", []ArchiveEntry{file("Pkg/a.ini"), file("readme.txt")}, ExtractionPlan{}},
		{"single loose file", []ArchiveEntry{file("mod.ini")}, ExtractionPlan{}},
		{"empty", nil, ExtractionPlan{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlanExtraction(tt.entries))
		})
	}
}

func TestExtractionPlanTargetPath(t *testing.T) {
	plan := ExtractionPlan{StripPrefix: "Pkg", Strip: true}
	assert.Equal(t, "", plan.targetPath("Pkg"))
	assert.Equal(t, "a.ini", plan.targetPath("Pkg/a.ini"))
	assert.Equal(t, "sub/b.dds", plan.targetPath("Pkg/sub/b.dds"))
	assert.Equal(t, "PkgOther/x", plan.targetPath("PkgOther/x"))

	assert.Equal(t, "Pkg/a.ini", ExtractionPlan{}.targetPath("Pkg/a.ini"))
}

func TestExtractArchive(t *testing.T) {
	archive := writeZip(t, filepath.Join(t.TempDir(), "pkg.zip"), []zipFixture{
		{name: "Pkg/"},
		{name: "Pkg/mod.ini", body: "hello"},
		{name: "Pkg/empty/"},
	})
	dest := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(dest, "mod.ini"), "old content that is longer")

	result, err := ExtractArchive(context.Background(), archive, dest, &ExtractOptions{Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Files)
	assert.Equal(t, 1, result.Dirs)
	assert.Equal(t, int64(5), result.TotalSize)
	assert.Equal(t, "Pkg", result.StripPrefix)
	assert.Equal(t, "hello", readFile(t, filepath.Join(dest, "mod.ini")))
	assert.DirExists(t, filepath.Join(dest, "empty"))
}

func TestExtractSanitizesNames(t *testing.T) {
	archive := writeZip(t, filepath.Join(t.TempDir(), "pkg.zip"), []zipFixture{
		{name: "A/what?.ini", body: "x"},
		{name: "B/ok.ini", body: "y"},
	})
	dest := t.TempDir()

	result, err := ExtractArchive(context.Background(), archive, dest, &ExtractOptions{Logger: quietLogger()})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "A", "what_.ini"))
	assert.Len(t, result.Warnings, 1)
}

func TestIsSupported(t *testing.T) {
	archive := writeZip(t, filepath.Join(t.TempDir(), "pkg.zip"), []zipFixture{{name: "a", body: "b"}})
	ok, format := IsSupported(archive)
	assert.True(t, ok)
	assert.Equal(t, FormatZIP, format)

	other := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, other, "text")
	ok, format = IsSupported(other)
	assert.False(t, ok)
	assert.Equal(t, FormatUnknown, format)
}

func TestFlattenStagingSingleDirectory(t *testing.T) {
	dest := t.TempDir()
	staging := filepath.Join(dest, stagingDirName)
	writeFile(t, filepath.Join(staging, "Pkg", "mod.ini"), "x")
	writeFile(t, filepath.Join(staging, "Pkg", "sub", "a.dds"), "y")

	stripped, err := FlattenStaging(staging, dest)
	require.NoError(t, err)
	assert.Equal(t, "Pkg", stripped)
	assert.FileExists(t, filepath.Join(dest, "mod.ini"))
	assert.FileExists(t, filepath.Join(dest, "sub", "a.dds"))
	assert.NoDirExists(t, staging)
}

func TestFlattenStagingMultipleEntries(t *testing.T) {
	dest := t.TempDir()
	staging := filepath.Join(dest, stagingDirName)
	writeFile(t, filepath.Join(staging, "A", "a.ini"), "x")
	writeFile(t, filepath.Join(staging, "readme.txt"), "y")

	stripped, err := FlattenStaging(staging, dest)
	require.NoError(t, err)
	assert.Empty(t, stripped)
	assert.FileExists(t, filepath.Join(dest, "A", "a.ini"))
	assert.FileExists(t, filepath.Join(dest, "readme.txt"))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFlattenStagingEntryNamedLikeStaging(t *testing.T) {
	dest := t.TempDir()
	staging := filepath.Join(dest, stagingDirName)
	writeFile(t, filepath.Join(staging, stagingDirName, "a.ini"), "x")
	writeFile(t, filepath.Join(staging, "readme.txt"), "y")

	stripped, err := FlattenStaging(staging, dest)
	require.NoError(t, err)
	assert.Empty(t, stripped)
	assert.Equal(t, "x", readFile(t, filepath.Join(dest, stagingDirName, "a.ini")))
	assert.Equal(t, "y", readFile(t, filepath.Join(dest, "readme.txt")))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{stagingDirName, "readme.txt"}, names)
}

func TestFlattenStagingSingleRootContainingStagingName(t *testing.T) {
	dest := t.TempDir()
	staging := filepath.Join(dest, stagingDirName)
	writeFile(t, filepath.Join(staging, "Pkg", stagingDirName, "a.ini"), "x")
	writeFile(t, filepath.Join(staging, "Pkg", "mod.ini"), "y")

	stripped, err := FlattenStaging(staging, dest)
	require.NoError(t, err)
	assert.Equal(t, "Pkg", stripped)
	assert.Equal(t, "x", readFile(t, filepath.Join(dest, stagingDirName, "a.ini")))
	assert.Equal(t, "y", readFile(t, filepath.Join(dest, "mod.ini")))
	assert.NoDirExists(t, filepath.Join(dest, stagingDirName+".1"))
}
