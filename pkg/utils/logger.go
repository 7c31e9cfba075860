package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// 日志级别常量
const (
	LogLevelVerbose = "VERBOSE"
	LogLevelNormal  = "INFO"
	LogLevelQuiet   = "WARN"
)

var (
	// Log 全局日志实例
	Log = logrus.New()
	// 进度条模式下日志不再写到终端
	progressMode bool
)

// InitLogger 初始化日志系统
// level: VERBOSE/INFO/WARN，也接受 logrus 的级别名 (debug, error ...)
// logFile: 日志文件路径，空字符串表示仅输出到控制台
func InitLogger(level string, logFile string) error {
	Log = logrus.New()
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	out, err := logOutput(logFile)
	if err != nil {
		return err
	}
	Log.SetOutput(out)
	Log.SetLevel(ParseLevel(level))

	// 直接使用 logrus 包级函数的代码与 Log 保持一致
	logrus.SetFormatter(Log.Formatter)
	logrus.SetOutput(out)
	logrus.SetLevel(Log.GetLevel())
	return nil
}

func logOutput(logFile string) (io.Writer, error) {
	if progressMode && logFile == "" {
		logFile = filepath.Join(os.TempDir(), "svsprep.log")
	}
	if logFile == "" {
		return os.Stdout, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	if progressMode {
		return file, nil
	}
	// 同时输出到文件和控制台
	return io.MultiWriter(os.Stdout, file), nil
}

// ParseLevel 把配置中的级别字符串转换为 logrus 级别，无法识别时返回 Info
func ParseLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case LogLevelVerbose:
		return logrus.DebugLevel
	case LogLevelNormal, "":
		return logrus.InfoLevel
	case LogLevelQuiet:
		return logrus.WarnLevel
	}
	if lvl, err := logrus.ParseLevel(level); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}

// EnableProgressMode 启用进度条模式，日志改写到文件
func EnableProgressMode(logFile string) error {
	progressMode = true
	return InitLogger(Log.GetLevel().String(), logFile)
}

// DisableProgressMode 恢复终端日志输出
func DisableProgressMode() {
	progressMode = false
	Log.SetOutput(os.Stdout)
	logrus.SetOutput(os.Stdout)
}

// Debug 输出调试日志
func Debug(format string, args ...interface{}) {
	Log.Debugf(format, args...)
}

// Info 输出信息日志
func Info(format string, args ...interface{}) {
	Log.Infof(format, args...)
}

// Warn 输出警告日志
func Warn(format string, args ...interface{}) {
	Log.Warnf(format, args...)
}

// Error 输出错误日志
func Error(format string, args ...interface{}) {
	Log.Errorf(format, args...)
}

// WithField 创建带字段的日志条目
func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

// WithFields 创建带多个字段的日志条目
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}
