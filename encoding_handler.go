package modlib

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// DefaultNameEncoding 条目名不是 UTF-8 时使用的备用编码
const DefaultNameEncoding = "GBK"

// EncodingHandler 编码处理器接口
type EncodingHandler interface {
	// DecodeEntryName 解码条目名，返回解码结果和实际使用的编码
	DecodeEntryName(raw string) (string, string, error)

	// DetectEncoding 用 chardet 猜测原始字节的编码（仅用于诊断）
	DetectEncoding(raw string) string

	// FallbackEncoding 返回备用编码名称
	FallbackEncoding() string
}

// defaultEncodingHandler 默认编码处理器实现
type defaultEncodingHandler struct {
	fallback string
	codec    encoding.Encoding
}

// NewEncodingHandler 创建新的编码处理器，fallback 为空时使用 DefaultNameEncoding
func NewEncodingHandler(fallback string) (EncodingHandler, error) {
	if fallback == "" {
		fallback = DefaultNameEncoding
	}
	codec := lookupEncoding(fallback)
	if codec == nil {
		return nil, fmt.Errorf("不支持的编码: %s", fallback)
	}
	return &defaultEncodingHandler{
		fallback: strings.ToUpper(fallback),
		codec:    codec,
	}, nil
}

// SupportedNameEncodings 获取支持的备用编码列表
func SupportedNameEncodings() []string {
	return []string{
		"GBK",
		"GB18030",
		"BIG5",
		"SHIFT_JIS",
		"EUC-KR",
		"ISO-8859-1",
		"CP866",
		"WINDOWS-1252",
	}
}

// lookupEncoding 根据编码名称获取编码
func lookupEncoding(name string) encoding.Encoding {
	switch strings.ToUpper(name) {
	case "GBK", "GB2312", "CP936":
		return simplifiedchinese.GBK
	case "GB18030":
		return simplifiedchinese.GB18030
	case "BIG5":
		return traditionalchinese.Big5
	case "SHIFT_JIS", "SJIS", "CP932":
		return japanese.ShiftJIS
	case "EUC-KR", "CP949":
		return korean.EUCKR
	case "ISO-8859-1", "LATIN1":
		return charmap.ISO8859_1
	case "CP866":
		return charmap.CodePage866
	case "CP1252", "WINDOWS-1252":
		return charmap.Windows1252
	default:
		return nil
	}
}

// DecodeEntryName 解码条目名
func (h *defaultEncodingHandler) DecodeEntryName(raw string) (string, string, error) {
	if utf8.ValidString(raw) {
		return raw, "UTF-8", nil
	}

	decoded, err := h.codec.NewDecoder().String(raw)
	if err != nil {
		return "", h.fallback, NewModError(ErrArchiveCorrupt,
			fmt.Sprintf("无法用 %s 解码条目名", h.fallback), strings.ToValidUTF8(raw, "?"), err)
	}
	return decoded, h.fallback, nil
}

// DetectEncoding 检测原始字节的编码
func (h *defaultEncodingHandler) DetectEncoding(raw string) string {
	if utf8.ValidString(raw) {
		return "UTF-8"
	}

	result, err := chardet.NewTextDetector().DetectBest([]byte(raw))
	if err != nil || result == nil {
		return ""
	}

	switch strings.ToUpper(result.Charset) {
	case "GB2312", "GBK", "GB-18030", "GB18030":
		return "GBK"
	case "BIG5":
		return "BIG5"
	case "SHIFT_JIS":
		return "SHIFT_JIS"
	case "EUC-KR":
		return "EUC-KR"
	default:
		return strings.ToUpper(result.Charset)
	}
}

// FallbackEncoding 返回备用编码名称
func (h *defaultEncodingHandler) FallbackEncoding() string {
	return h.fallback
}

// sameEncodingFamily 判断两个编码名是否属于同一家族（GBK 与 GB18030 视为相同）
func sameEncodingFamily(a, b string) bool {
	family := func(name string) string {
		switch name {
		case "GBK", "GB2312", "GB18030", "CP936":
			return "GB"
		default:
			return name
		}
	}
	return family(strings.ToUpper(a)) == family(strings.ToUpper(b))
}
