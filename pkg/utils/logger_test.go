package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	// 控制台日志
	err := InitLogger(LogLevelNormal, "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())

	// 文件日志，目录不存在时自动创建
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	err = InitLogger(LogLevelVerbose, logFile)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Info("写入文件的日志")
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "写入文件的日志")

	require.NoError(t, InitLogger(LogLevelNormal, ""))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("verbose"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
	assert.Equal(t, logrus.WarnLevel, ParseLevel(LogLevelQuiet))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("不存在的级别"))
}

func TestProgressModeRedirectsToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "progress.log")
	require.NoError(t, InitLogger(LogLevelNormal, ""))

	require.NoError(t, EnableProgressMode(logFile))
	Warn("进度条期间的警告")
	DisableProgressMode()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "进度条期间的警告")
}

func TestWithFieldLogging(t *testing.T) {
	require.NoError(t, InitLogger(LogLevelNormal, ""))

	// 只验证能正常执行
	WithField("key", "value").Info("Test with field")
	WithFields(logrus.Fields{
		"key1": "value1",
		"key2": "value2",
	}).Info("Test with fields")
}
