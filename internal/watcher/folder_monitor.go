package watcher

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// ChangeHandler 处理一批去抖后的文件变化
type ChangeHandler interface {
	OnFilesChanged(paths []string)
}

// ChangeHandlerFunc 函数形式的 ChangeHandler
type ChangeHandlerFunc func(paths []string)

// OnFilesChanged 调用 f(paths)
func (f ChangeHandlerFunc) OnFilesChanged(paths []string) { f(paths) }

// FolderMonitor 监控若干文件夹，把静默期内的所有变化合并成一次回调
type FolderMonitor struct {
	watcher        *fsnotify.Watcher
	folders        []string
	fileExtensions []string
	handler        ChangeHandler
	debounceTime   time.Duration

	mutex    sync.Mutex
	pending  map[string]bool
	timer    *time.Timer
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewFolderMonitor 创建新的文件夹监控器，extensions 为空时接受所有文件
func NewFolderMonitor(folders []string, extensions []string, handler ChangeHandler, debounceTime time.Duration) (*FolderMonitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	return &FolderMonitor{
		watcher:        w,
		folders:        folders,
		fileExtensions: extensions,
		handler:        handler,
		debounceTime:   debounceTime,
		pending:        make(map[string]bool),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start 开始监控。不存在的文件夹会被跳过，但至少要有一个可监控
func (m *FolderMonitor) Start() error {
	added := 0
	for _, folder := range m.folders {
		if !utils.CheckDirExists(folder) {
			utils.Warn("监控目录不存在，跳过: %s", folder)
			continue
		}
		if err := m.watcher.Add(folder); err != nil {
			return fmt.Errorf("添加监控文件夹失败 %s: %w", folder, err)
		}
		added++
		utils.Info("开始监控文件夹: %s", folder)
	}
	if added == 0 {
		return utils.NewConfigError("CorpusRoot", "没有可监控的目录: %s", strings.Join(m.folders, ", "))
	}

	go m.watchLoop()
	return nil
}

// Stop 停止监控并丢弃尚未触发的变化，可重复调用
func (m *FolderMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.watcher.Close()

		m.mutex.Lock()
		if m.timer != nil {
			m.timer.Stop()
		}
		m.pending = make(map[string]bool)
		m.mutex.Unlock()
		utils.Info("停止监控文件夹")
	})
}

func (m *FolderMonitor) watchLoop() {
	for {
		select {
		case <-m.stopChan:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleFileEvent(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			utils.Error("监控文件夹时出错: %v", err)
		}
	}
}

func (m *FolderMonitor) handleFileEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !m.isTargetFile(event.Name) {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	select {
	case <-m.stopChan:
		return
	default:
	}

	m.pending[event.Name] = true
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounceTime, m.flush)
	utils.Debug("检测到文件变化: %s (%s)", event.Name, event.Op)
}

// 删除的文件无法 stat，只按扩展名判断
func (m *FolderMonitor) isTargetFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(m.fileExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, target := range m.fileExtensions {
		if ext == target {
			return true
		}
	}
	return false
}

func (m *FolderMonitor) flush() {
	m.mutex.Lock()
	paths := make([]string, 0, len(m.pending))
	for p := range m.pending {
		paths = append(paths, p)
	}
	m.pending = make(map[string]bool)
	m.timer = nil
	m.mutex.Unlock()

	if len(paths) == 0 || m.handler == nil {
		return
	}
	sort.Strings(paths)
	m.handler.OnFilesChanged(paths)
}
