package modlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestDecodeEntryName(t *testing.T) {
	h, err := NewEncodingHandler("")
	require.NoError(t, err)
	assert.Equal(t, "GBK", h.FallbackEncoding())

	name, enc, err := h.DecodeEntryName("模组/mod.ini")
	require.NoError(t, err)
	assert.Equal(t, "模组/mod.ini", name)
	assert.Equal(t, "UTF-8", enc)

	raw, err := simplifiedchinese.GBK.NewEncoder().String("神里绫华/贴图.dds")
	require.NoError(t, err)
	name, enc, err = h.DecodeEntryName(raw)
	require.NoError(t, err)
	assert.Equal(t, "神里绫华/贴图.dds", name)
	assert.Equal(t, "GBK", enc)
}

func TestDecodeEntryNameShiftJIS(t *testing.T) {
	h, err := NewEncodingHandler("sjis")
	require.NoError(t, err)

	raw, err := japanese.ShiftJIS.NewEncoder().String("テクスチャ.dds")
	require.NoError(t, err)
	name, _, err := h.DecodeEntryName(raw)
	require.NoError(t, err)
	assert.Equal(t, "テクスチャ.dds", name)
}

func TestUnsupportedEncoding(t *testing.T) {
	_, err := NewEncodingHandler("EBCDIC")
	assert.Error(t, err)

	for _, name := range SupportedNameEncodings() {
		_, err := NewEncodingHandler(name)
		assert.NoError(t, err, name)
	}
}

func TestSameEncodingFamily(t *testing.T) {
	assert.True(t, sameEncodingFamily("gbk", "GB18030"))
	assert.False(t, sameEncodingFamily("GBK", "BIG5"))
}
