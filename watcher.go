package modlib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultWatchDebounce 最后一个事件之后等待多久再通知
const defaultWatchDebounce = 500 * time.Millisecond

// defaultWatchIgnores 不会触发通知的路径
var defaultWatchIgnores = []string{
	"**/.DS_Store",
	"**/Thumbs.db",
	"**/__MACOSX",
	"**/__MACOSX/**",
	"**/" + stagingDirName,
	"**/" + stagingDirName + "/**",
	"**/*.tmp",
	"**/*~",
}

// WatchConfig 监视器配置
type WatchConfig struct {
	// Debounce 小于等于 0 时使用 defaultWatchDebounce
	Debounce time.Duration
	// Ignore 额外的 doublestar 忽略模式，与默认模式合并
	Ignore []string
	// OnChange 目录树发生变化时调用，不携带变化内容
	OnChange func()
	Logger   *log.Logger
}

// Watcher 递归监视模组根目录，变化时发出去抖后的通知
type Watcher struct {
	cfg      WatchConfig
	ignores  []string
	debounce time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	baseDir string
	timer   *time.Timer
	done    chan struct{}
	stopped chan struct{}
}

// NewWatcher 创建监视器，忽略模式在这里校验
func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	for _, pattern := range cfg.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q", pattern)
		}
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	ignores := make([]string, 0, len(defaultWatchIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultWatchIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	return &Watcher{
		cfg:      cfg,
		ignores:  ignores,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// StartWatch 开始监视 path；已在监视时先停止之前的订阅
func (w *Watcher) StartWatch(path string) error {
	w.StopWatch()

	absBase, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: resolve base directory: %w", err)
	}
	if !isDir(absBase) {
		return NewModError(ErrNotFound, "监视目录不存在", absBase, nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w.mu.Lock()
	w.fsw = fsw
	w.baseDir = absBase
	w.done = make(chan struct{})
	w.stopped = make(chan struct{})
	done, stopped := w.done, w.stopped
	w.mu.Unlock()

	if err := w.addDirectories(fsw, absBase); err != nil {
		w.StopWatch()
		return err
	}

	go w.loop(fsw, absBase, done, stopped)
	w.logger.Debug("开始监视", "dir", absBase)
	return nil
}

// StopWatch 停止监视，未在监视时什么也不做
func (w *Watcher) StopWatch() {
	w.mu.Lock()
	fsw, done, stopped := w.fsw, w.done, w.stopped
	w.fsw, w.done, w.stopped = nil, nil, nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if fsw == nil {
		return
	}
	close(done)
	if err := fsw.Close(); err != nil {
		w.logger.Warn("watch: close fsnotify", "err", err)
	}
	<-stopped
}

// loop 处理事件直到 done 关闭
func (w *Watcher) loop(fsw *fsnotify.Watcher, baseDir string, done, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-done:
			return

		case evt, ok := <-fsw.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.isIgnored(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(fsw, baseDir, evt.Name)
			}
			w.schedule(done)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch: fsnotify error", "err", err)
		}
	}
}

// schedule 重置去抖计时器
func (w *Watcher) schedule(done chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != done {
		return
	}
	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-done:
			return
		default:
		}
		if w.cfg.OnChange != nil {
			w.cfg.OnChange()
		}
	})
}

// addDirectories 把 baseDir 下所有未忽略的目录加入监视
func (w *Watcher) addDirectories(fsw *fsnotify.Watcher, baseDir string) error {
	walkErr := filepath.WalkDir(baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Debug("watch: skipping inaccessible path", "path", path, "err", walkDirErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(baseDir, path)
		if relErr != nil {
			return nil
		}
		if rel != "." && w.isIgnored(rel) {
			return filepath.SkipDir
		}
		if addErr := fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir 新建的目录也要监视
func (w *Watcher) maybeAddDir(fsw *fsnotify.Watcher, baseDir, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || w.isIgnored(rel) {
		return
	}
	if err := w.addDirectories(fsw, path); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		w.logger.Warn("watch: add new directory", "path", path, "err", err)
	}
}

// isIgnored 相对路径是否匹配忽略模式
func (w *Watcher) isIgnored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pattern := range w.ignores {
		if matched, err := doublestar.Match(pattern, normalized); err == nil && matched {
			return true
		}
	}
	return false
}
