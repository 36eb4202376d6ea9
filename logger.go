package modlib

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger 创建带 modlib 前缀的日志记录器
func NewLogger(w io.Writer, level log.Level) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          "modlib",
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
}

// defaultLogger 未配置日志时使用的记录器
func defaultLogger() *log.Logger {
	return NewLogger(os.Stderr, log.InfoLevel)
}
