package utils

import (
	"fmt"
	"sort"
	"sync"
)

// ToolError 是数据准备工具错误的基础类型
type ToolError struct {
	Message string
	Cause   error
}

// Error 实现error接口
func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap 支持error chain
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// NewError 创建一个新的ToolError
func NewError(message string, cause error) error {
	return &ToolError{
		Message: message,
		Cause:   cause,
	}
}

// ConfigurationError 语料根目录缺失/为空、参数非法等配置错误
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("配置错误: %s - %s", e.Field, e.Message)
}

// NewConfigError 创建配置错误
func NewConfigError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// MalformedAlignmentError 对齐数据时间非单调或条目不完整
type MalformedAlignmentError struct {
	Utterance string
	Index     int // 出错条目的序号（从0开始），解析阶段为行号
	Reason    string
}

func (e *MalformedAlignmentError) Error() string {
	if e.Utterance == "" {
		return fmt.Sprintf("对齐数据格式错误 (条目 %d): %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("对齐数据格式错误 %s (条目 %d): %s", e.Utterance, e.Index, e.Reason)
}

// ErrorHandler 执行阶段操作，失败时清理并记录错误统计。不做重试：任何失败都终止本次运行。
type ErrorHandler struct {
	mu         sync.Mutex
	ErrorStats map[string]map[string]int // 操作 -> 错误信息 -> 计数
}

// NewErrorHandler 创建新的错误处理器
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		ErrorStats: make(map[string]map[string]int),
	}
}

// SafeExecute 执行函数，失败时先清理再返回包装后的错误
func (h *ErrorHandler) SafeExecute(operation string, fn func() error, cleanup func()) error {
	err := fn()
	if err == nil {
		return nil
	}
	h.updateErrorStats(operation, err.Error())

	if cleanup != nil {
		Debug("操作 %s 失败，执行清理", operation)
		cleanup()
	}
	return NewError(fmt.Sprintf("操作 %s 失败", operation), err)
}

func (h *ErrorHandler) updateErrorStats(operation string, errMsg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ErrorStats[operation] == nil {
		h.ErrorStats[operation] = make(map[string]int)
	}
	h.ErrorStats[operation][errMsg]++
}

// GetErrorStats 获取错误统计信息
func (h *ErrorHandler) GetErrorStats() map[string]map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ErrorStats
}

// PrintErrorStats 打印错误统计信息
func (h *ErrorHandler) PrintErrorStats() {
	stats := h.GetErrorStats()
	if len(stats) == 0 {
		Debug("没有错误记录")
		return
	}

	ops := make([]string, 0, len(stats))
	for op := range stats {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		for errMsg, count := range stats[op] {
			Warn("操作 %s: %s (%d次)", op, errMsg, count)
		}
	}
}
