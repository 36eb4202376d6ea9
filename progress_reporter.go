package modlib

import "sync"

// ProgressCallback 解压进度回调函数
// current: 已写入字节数, total: 总字节数, filename: 当前处理的文件名
type ProgressCallback func(current, total int64, filename string)

// ProgressReporter 进度报告器接口
type ProgressReporter interface {
	// OnFileProgress 每写完一个文件调用一次
	OnFileProgress(current, total int64, filename string)
}

// SimpleProgressReporter 把进度转发给回调函数，可在多个安装任务间共享
type SimpleProgressReporter struct {
	mu       sync.Mutex
	callback ProgressCallback
}

// NewSimpleProgressReporter 创建简单进度报告器，callback 可以为 nil
func NewSimpleProgressReporter(callback ProgressCallback) *SimpleProgressReporter {
	return &SimpleProgressReporter{
		callback: callback,
	}
}

// OnFileProgress 报告文件进度
func (r *SimpleProgressReporter) OnFileProgress(current, total int64, filename string) {
	if r.callback == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callback(current, total, filename)
}
