package modlib

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMod(result ScanResult, id string) (ModEntry, bool) {
	for _, mod := range result.Mods {
		if mod.ID == id {
			return mod, true
		}
	}
	return ModEntry{}, false
}

func TestScanGroupWithEmptySubdirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Mods")
	writeFile(t, filepath.Join(root, "Ayaka", "Skin1", "preview.png"), "png")
	mkdirAll(t, filepath.Join(root, "Ayaka", "Skin2"))

	result := Scan(root, quietLogger())

	require.Len(t, result.Mods, 1)
	mod := result.Mods[0]
	assert.Equal(t, "Ayaka/Skin1", mod.ID)
	assert.Equal(t, mod.ID, mod.RelativePath)
	assert.Equal(t, "Skin1", mod.Name)
	assert.Equal(t, "Ayaka", mod.Group)
	assert.True(t, mod.Enabled)
	assert.True(t, mod.IsDir)
	assert.Equal(t, filepath.Join(root, "Ayaka", "Skin1"), mod.Path)
	assert.Equal(t, []string{filepath.Join(root, "Ayaka", "Skin1", "preview.png")}, mod.PreviewImages)

	_, found := findMod(result, "Ayaka")
	assert.False(t, found)
	_, found = findMod(result, "Ayaka/Skin2")
	assert.False(t, found)
	assert.Equal(t, []string{"Ayaka"}, result.Groups)
}

func TestScanRootLevelMods(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Mods")
	writeFile(t, filepath.Join(root, "DISABLED_Solo", "mod.ini"), "[Constants]")
	writeFile(t, filepath.Join(root, "Loose", "merged.INI"), "")
	mkdirAll(t, filepath.Join(root, "Empty"))

	result := Scan(root, quietLogger())

	solo, found := findMod(result, "DISABLED_Solo")
	require.True(t, found)
	assert.Equal(t, "Solo", solo.Name)
	assert.False(t, solo.Enabled)
	assert.Equal(t, RootGroup, solo.Group)

	loose, found := findMod(result, "Loose")
	require.True(t, found)
	assert.True(t, loose.Enabled)
	assert.Empty(t, loose.PreviewImages)

	assert.Equal(t, []string{"Empty"}, result.Groups)
}

func TestScanDepthLimit(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Mods")
	writeFile(t, filepath.Join(root, "G", "Sub", "Deep", "mod.ini"), "")
	writeFile(t, filepath.Join(root, "G", "A", "B", "TooDeep", "mod.ini"), "")

	result := Scan(root, quietLogger())

	deep, found := findMod(result, "G/Sub/Deep")
	require.True(t, found)
	assert.Equal(t, "G", deep.Group)

	_, found = findMod(result, "G/A/B/TooDeep")
	assert.False(t, found)
	assert.Len(t, result.Mods, 1)
}

func TestScanGroupUsesDecodedName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Mods")
	writeFile(t, filepath.Join(root, "DISABLED_Old", "Skin", "a.jpg"), "")

	result := Scan(root, quietLogger())

	mod, found := findMod(result, "DISABLED_Old/Skin")
	require.True(t, found)
	assert.Equal(t, "Old", mod.Group)
	assert.Equal(t, []string{"DISABLED_Old"}, result.Groups)
}

func TestScanPreviewImagesSorted(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Mods")
	dir := filepath.Join(root, "G", "Mod")
	writeFile(t, filepath.Join(dir, "b.PNG"), "")
	writeFile(t, filepath.Join(dir, "a.webp"), "")
	writeFile(t, filepath.Join(dir, "c.jpeg"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	result := Scan(root, quietLogger())

	mod, found := findMod(result, "G/Mod")
	require.True(t, found)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.webp"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "c.jpeg"),
	}, mod.PreviewImages)
}

func TestScanSkipsStagingAndFiles(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Mods")
	writeFile(t, filepath.Join(root, stagingDirName, "x", "mod.ini"), "")
	writeFile(t, filepath.Join(root, "readme.txt"), "")

	result := Scan(root, quietLogger())

	assert.Empty(t, result.Mods)
	assert.Empty(t, result.Groups)
}

func TestScanMissingRoot(t *testing.T) {
	result := Scan(filepath.Join(t.TempDir(), "nope"), quietLogger())
	assert.NotNil(t, result.Mods)
	assert.Empty(t, result.Mods)
	assert.Empty(t, result.Groups)
}

func TestScanFollowsSymlinkedDirectories(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("创建符号链接需要额外权限")
	}
	root := filepath.Join(t.TempDir(), "Mods")
	store := t.TempDir()
	writeFile(t, filepath.Join(store, "Skin", "mod.ini"), "[x]")
	writeFile(t, filepath.Join(store, "Linked", "Inner", "preview.png"), "png")
	mkdirAll(t, filepath.Join(root, "G"))
	require.NoError(t, os.Symlink(filepath.Join(store, "Skin"), filepath.Join(root, "G", "Skin")))
	require.NoError(t, os.Symlink(filepath.Join(store, "Linked"), filepath.Join(root, "Linked")))
	require.NoError(t, os.Symlink(filepath.Join(store, "missing"), filepath.Join(root, "G", "Dangling")))

	result := Scan(root, quietLogger())

	mod, found := findMod(result, "G/Skin")
	require.True(t, found)
	assert.Equal(t, "G", mod.Group)
	_, found = findMod(result, "Linked/Inner")
	assert.True(t, found)
	assert.Len(t, result.Mods, 2)
	assert.Equal(t, []string{"G", "Linked"}, result.Groups)
}
