package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ProgressBar 终端进度条
type ProgressBar struct {
	Total     int       // 总步数
	Current   int       // 当前进度
	Prefix    string    // 前缀
	Suffix    string    // 后缀
	Width     int       // 进度条宽度
	StartTime time.Time // 开始时间

	out io.Writer
	mu  sync.Mutex
}

// NewProgressBar 创建输出到 out 的进度条
func NewProgressBar(out io.Writer, total int, prefix string, suffix string) *ProgressBar {
	return &ProgressBar{
		Total:     total,
		Prefix:    prefix,
		Suffix:    suffix,
		Width:     30,
		StartTime: time.Now(),
		out:       out,
	}
}

// Update 更新进度，超出范围的值被截断
func (p *ProgressBar) Update(current int, suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current < 0 {
		return
	}
	if current > p.Total {
		current = p.Total
	}
	p.Current = current
	if suffix != "" {
		p.Suffix = suffix
	}
	fmt.Fprint(p.out, color.CyanString("\r\033[2K%s", p.line()))
}

// Complete 完成进度条并换行
func (p *ProgressBar) Complete(suffix string) {
	p.Update(p.Total, suffix)
	fmt.Fprintln(p.out)
}

// Percent 当前完成比例 (0-1)，总数为0时视为已完成
func (p *ProgressBar) Percent() float64 {
	if p.Total <= 0 {
		return 1
	}
	return float64(p.Current) / float64(p.Total)
}

func (p *ProgressBar) line() string {
	percent := p.Percent()
	filled := int(percent * float64(p.Width))
	if filled > p.Width {
		filled = p.Width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.Width-filled)

	elapsed := time.Since(p.StartTime)
	var remaining time.Duration
	if p.Current > 0 && percent < 1 {
		remaining = time.Duration(float64(elapsed) / percent * (1 - percent))
	}

	return fmt.Sprintf("%s [%s] %3.0f%% | %d/%d | %s<%s | %s",
		p.Prefix, bar, percent*100, p.Current, p.Total,
		formatDuration(elapsed), formatDuration(remaining), p.Suffix)
}

// String 返回不含颜色的进度描述
func (p *ProgressBar) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

// 格式化为 MM:SS
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
