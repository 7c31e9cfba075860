package watcher

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/scanner"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// RunFunc 语料变化后要重新执行的流程
type RunFunc func(ctx context.Context) error

// CorpusWatcher 监控语料目录，变化后重新运行数据准备流程。
// 同一时间只有一次运行，运行期间到来的变化会在结束后再触发一次。
type CorpusWatcher struct {
	monitor *FolderMonitor
	run     RunFunc
	ctx     context.Context

	mu      sync.Mutex
	running bool
	dirty   bool
	runs    int
}

// NewCorpusWatcher 创建语料监控器，监控 csv/、wav/、mid/ 三个子目录
func NewCorpusWatcher(ctx context.Context, config *models.Config, run RunFunc) (*CorpusWatcher, error) {
	s := scanner.NewCorpusScanner(config.UttPrefix, config.UttIDWidth)
	extensions := append([]string{}, s.LabelExtensions...)
	extensions = append(extensions, s.AudioExtension, s.MidiExtension)

	w := &CorpusWatcher{run: run, ctx: ctx}
	folders := []string{
		filepath.Join(config.CorpusRoot, scanner.LabelDir),
		filepath.Join(config.CorpusRoot, scanner.AudioDir),
		filepath.Join(config.CorpusRoot, scanner.MidiDir),
	}
	monitor, err := NewFolderMonitor(folders, extensions, ChangeHandlerFunc(w.OnFilesChanged), config.WatchDebounce())
	if err != nil {
		return nil, err
	}
	w.monitor = monitor
	return w, nil
}

// Start 启动监控
func (w *CorpusWatcher) Start() error {
	return w.monitor.Start()
}

// Stop 停止监控，不会中断正在进行的运行
func (w *CorpusWatcher) Stop() {
	w.monitor.Stop()
}

// Runs 已完成的运行次数
func (w *CorpusWatcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// OnFilesChanged 实现 ChangeHandler
func (w *CorpusWatcher) OnFilesChanged(paths []string) {
	utils.Info("语料发生变化 (%d 个文件)，重新生成数据", len(paths))

	w.mu.Lock()
	if w.running {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	for {
		if w.ctx.Err() != nil {
			break
		}
		if err := w.run(w.ctx); err != nil {
			utils.Error("重新生成数据失败: %v", err)
		}

		w.mu.Lock()
		w.runs++
		if !w.dirty {
			w.running = false
			w.mu.Unlock()
			return
		}
		w.dirty = false
		w.mu.Unlock()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}
