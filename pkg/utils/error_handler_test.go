package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeExecute(t *testing.T) {
	require.NoError(t, InitLogger(LogLevelNormal, ""))
	handler := NewErrorHandler()

	// 成功执行且不需要清理
	executed := false
	cleaned := false
	err := handler.SafeExecute("test_safe_success", func() error {
		executed = true
		return nil
	}, func() {
		cleaned = true
	})
	assert.NoError(t, err)
	assert.True(t, executed)
	assert.False(t, cleaned)

	// 失败执行并需要清理
	cleaned = false
	testErr := errors.New("预期错误")
	err = handler.SafeExecute("test_safe_fail", func() error {
		return testErr
	}, func() {
		cleaned = true
	})
	assert.Error(t, err)
	assert.True(t, cleaned)
	assert.ErrorIs(t, err, testErr)

	stats := handler.GetErrorStats()
	assert.Equal(t, 1, stats["test_safe_fail"]["预期错误"])
	handler.PrintErrorStats()
}

func TestTypedErrorsSurviveWrapping(t *testing.T) {
	handler := NewErrorHandler()

	err := handler.SafeExecute("split", func() error {
		return NewConfigError("CorpusRoot", "目录不存在: %s", "/nope")
	}, nil)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "CorpusRoot", cfgErr.Field)
	assert.Contains(t, err.Error(), "/nope")

	err = handler.SafeExecute("segment", func() error {
		return &MalformedAlignmentError{Utterance: "csd_001", Index: 3, Reason: "时间非单调"}
	}, nil)
	var alignErr *MalformedAlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, 3, alignErr.Index)
	assert.Contains(t, err.Error(), "csd_001")
}

func TestToolErrorUnwrap(t *testing.T) {
	cause := errors.New("底层错误")
	err := NewError("外层", cause)
	assert.Equal(t, "外层: 底层错误", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Equal(t, "仅消息", NewError("仅消息", nil).Error())
}
