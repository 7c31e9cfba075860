package ui

import (
	"io"
	"sort"
	"sync"
)

// ProgressManager 按 ID 管理多个进度条，每个分区一个
type ProgressManager struct {
	progressBars map[string]*ProgressBar
	mutex        sync.Mutex
	enabled      bool
	out          io.Writer
}

// NewProgressManager 创建输出到 out 的进度管理器，enabled 为 false 时所有调用都是空操作
func NewProgressManager(out io.Writer, enabled bool) *ProgressManager {
	return &ProgressManager{
		progressBars: make(map[string]*ProgressBar),
		enabled:      enabled,
		out:          out,
	}
}

// Enabled 是否显示进度条
func (pm *ProgressManager) Enabled() bool {
	return pm.enabled
}

// CreateProgressBar 创建并注册一个新的进度条，同名进度条会先被结束
func (pm *ProgressManager) CreateProgressBar(id string, total int, prefix string, suffix string) {
	if !pm.enabled {
		return
	}

	pm.mutex.Lock()
	old := pm.progressBars[id]
	bar := NewProgressBar(pm.out, total, prefix, suffix)
	pm.progressBars[id] = bar
	pm.mutex.Unlock()

	if old != nil {
		old.Complete("已被替换")
	}
}

// GetProgressBar 获取已存在的进度条
func (pm *ProgressManager) GetProgressBar(id string) *ProgressBar {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	return pm.progressBars[id]
}

// UpdateProgressBar 更新进度条
func (pm *ProgressManager) UpdateProgressBar(id string, current int, suffix string) {
	if bar := pm.GetProgressBar(id); bar != nil {
		bar.Update(current, suffix)
	}
}

// CompleteProgressBar 完成并移除进度条
func (pm *ProgressManager) CompleteProgressBar(id string, suffix string) {
	pm.mutex.Lock()
	bar := pm.progressBars[id]
	delete(pm.progressBars, id)
	pm.mutex.Unlock()

	if bar != nil {
		bar.Complete(suffix)
	}
}

// CloseAll 完成所有进度条
func (pm *ProgressManager) CloseAll(suffix string) {
	pm.mutex.Lock()
	bars := pm.progressBars
	pm.progressBars = make(map[string]*ProgressBar)
	pm.mutex.Unlock()

	for _, id := range sortedIDs(bars) {
		bars[id].Complete(suffix)
	}
}

func sortedIDs(bars map[string]*ProgressBar) []string {
	ids := make([]string, 0, len(bars))
	for id := range bars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
