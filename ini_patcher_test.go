package modlib

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReplacesValue(t *testing.T) {
	doc := ParseDocument("[Loader]\ntarget=old\n")

	doc.Set("Loader", "target", "C:/Game.exe")
	first := doc.String()
	assert.Equal(t, "[Loader]\ntarget = C:/Game.exe\n", first)

	doc.Set("Loader", "target", "C:/Game.exe")
	assert.Equal(t, first, doc.String())
}

func TestSetPreservesOtherLines(t *testing.T) {
	text := "; header comment\n[Loader]\n; keep me\nTarget  =  old ; note\n\nlaunch = x\n[Other]\nkey=1\n"
	doc := ParseDocument(text)

	doc.Set("loader", "target", "new")
	assert.Equal(t, "; header comment\n[Loader]\n; keep me\nTarget = new\n\nlaunch = x\n[Other]\nkey=1\n", doc.String())
}

func TestSetInsertsBeforeNextSection(t *testing.T) {
	doc := ParseDocument("[Loader]\ntarget = a\n[Logging]\nshow_warnings = 0\n")

	doc.Set("Loader", "delay", "5")
	assert.Equal(t, "[Loader]\ntarget = a\ndelay = 5\n[Logging]\nshow_warnings = 0\n", doc.String())

	doc.Set("Logging", "calls", "1")
	assert.Equal(t, "[Loader]\ntarget = a\ndelay = 5\n[Logging]\nshow_warnings = 0\ncalls = 1\n", doc.String())
}

func TestSetAppendsMissingSection(t *testing.T) {
	doc := ParseDocument("[Loader]\ntarget = a\n")
	doc.Set("Hunting", "hunting", "2")
	assert.Equal(t, "[Loader]\ntarget = a\n\n[Hunting]\nhunting = 2\n", doc.String())

	empty := ParseDocument("")
	empty.Set("Hunting", "hunting", "2")
	assert.Equal(t, "[Hunting]\nhunting = 2\n", empty.String())
}

func TestSetRemovesDuplicateKeys(t *testing.T) {
	doc := ParseDocument("[Loader]\ntarget = a\nTARGET = b\nlaunch = c\n")
	doc.Set("Loader", "target", "z")
	assert.Equal(t, "[Loader]\ntarget = z\nlaunch = c\n", doc.String())

	value, ok := doc.Get("loader", "Target")
	assert.True(t, ok)
	assert.Equal(t, "z", value)
}

func TestSetIgnoresCommentedKeys(t *testing.T) {
	doc := ParseDocument("[Loader]\n;target = commented\n#target = hash\n")
	doc.Set("Loader", "target", "real")
	assert.Equal(t, "[Loader]\n;target = commented\n#target = hash\ntarget = real\n", doc.String())
}

func TestSectionHeaderWithComment(t *testing.T) {
	doc := ParseDocument("  [Loader]  ; main loader\ntarget = a\n")
	doc.Set("LOADER", "target", "b")
	assert.Equal(t, "  [Loader]  ; main loader\ntarget = b\n", doc.String())
	assert.Equal(t, []string{"Loader"}, doc.Sections())
}

func TestRemove(t *testing.T) {
	original := "[Hunting]\nhunting = 2\n"
	doc := ParseDocument(original)
	doc.Remove("Loader", "launch")
	assert.Equal(t, original, doc.String())

	doc.Remove("Hunting", "missing")
	assert.Equal(t, original, doc.String())

	doc = ParseDocument("[Loader]\nlaunch = a\ntarget = t\nLaunch=b\n[Other]\nlaunch = keep\n")
	doc.Remove("loader", "LAUNCH")
	assert.Equal(t, "[Loader]\ntarget = t\n[Other]\nlaunch = keep\n", doc.String())
}

func TestRoundTripWithoutMutation(t *testing.T) {
	for _, text := range []string{
		"",
		"\n",
		"[a]\nk=v",
		"[a]\r\nk = v\r\n\r\n; c\r\n",
		"  ; only comments  \n\n\n",
	} {
		assert.Equal(t, text, ParseDocument(text).String(), "%q", text)
	}
}

func TestCRLFPreserved(t *testing.T) {
	doc := ParseDocument("[Loader]\r\ntarget=old\r\n")
	doc.Set("Loader", "target", "new")
	doc.Set("Logging", "show_warnings", "1")
	assert.Equal(t, "[Loader]\r\ntarget = new\r\n\r\n[Logging]\r\nshow_warnings = 1\r\n", doc.String())
}

func TestGet(t *testing.T) {
	doc := ParseDocument("[Loader]\ntarget =  C:/Game.exe \n[Other]\nx=1\n")

	value, ok := doc.Get("Loader", "target")
	assert.True(t, ok)
	assert.Equal(t, "C:/Game.exe", value)

	_, ok = doc.Get("Loader", "x")
	assert.False(t, ok)
	_, ok = doc.Get("Missing", "x")
	assert.False(t, ok)
}

func TestLoadAndSaveDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d3dx.ini")

	_, err := LoadDocument(path)
	assert.True(t, IsErrorType(err, ErrNotFound), "%v", err)

	writeFile(t, path, "[Loader]\ntarget=old\n")
	require.NoError(t, PatchFile(path, func(doc *Document) error {
		doc.Set("Loader", "target", "new")
		return nil
	}))
	assert.Equal(t, "[Loader]\ntarget = new\n", readFile(t, path))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path())

	copyPath := filepath.Join(t.TempDir(), "copy.ini")
	require.NoError(t, doc.SaveAs(copyPath))
	assert.Equal(t, "[Loader]\ntarget = new\n", readFile(t, copyPath))

	assert.Error(t, ParseDocument("x").Save())
}

func TestSetAcrossRepeatedSections(t *testing.T) {
	doc := ParseDocument("[Loader]\nlaunch = x\n[Other]\na=1\n[Loader]\ntarget = old\n")
	doc.Set("Loader", "target", "new")
	assert.Equal(t, "[Loader]\nlaunch = x\n[Other]\na=1\n[Loader]\ntarget = new\n", doc.String())

	doc = ParseDocument("[Loader]\ntarget = a\n[Other]\n[loader]\ntarget = b\n")
	doc.Set("Loader", "target", "c")
	assert.Equal(t, "[Loader]\ntarget = c\n[Other]\n[loader]\n", doc.String())

	doc = ParseDocument("[Loader]\nlaunch = x\n[Other]\na=1\n[Loader]\nlaunch_args = y\n")
	doc.Set("Loader", "delay", "3")
	assert.Equal(t, "[Loader]\nlaunch = x\ndelay = 3\n[Other]\na=1\n[Loader]\nlaunch_args = y\n", doc.String())
}

func TestGetAndRemoveAcrossRepeatedSections(t *testing.T) {
	doc := ParseDocument("[Loader]\nlaunch = x\n[Other]\ntarget = other\n[Loader]\ntarget = second\nlaunch = z\n")

	value, ok := doc.Get("Loader", "target")
	assert.True(t, ok)
	assert.Equal(t, "second", value)

	doc.Remove("Loader", "launch")
	assert.Equal(t, "[Loader]\n[Other]\ntarget = other\n[Loader]\ntarget = second\n", doc.String())
}
