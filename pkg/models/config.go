package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// Config 表示数据准备流水线的配置，启动时校验一次，之后只读
type Config struct {
	CorpusRoot string `json:"corpus_root" yaml:"corpus_root" mapstructure:"corpus_root"` // 原始语料根目录（含 wav/ csv/ mid/）
	OutputRoot string `json:"output_root" yaml:"output_root" mapstructure:"output_root"` // 输出根目录
	SampleRate int    `json:"fs" yaml:"fs" mapstructure:"fs"`                            // 目标采样率

	UttPrefix  string `json:"utt_prefix" yaml:"utt_prefix" mapstructure:"utt_prefix"`       // 话语ID前缀，同时是默认说话人
	UttIDWidth int    `json:"utt_id_width" yaml:"utt_id_width" mapstructure:"utt_id_width"` // 文件名左侧补零后的宽度
	Speaker    string `json:"speaker" yaml:"speaker" mapstructure:"speaker"`                // 说话人ID，空则使用前缀

	// 固定划分表：文件名包含其中任一标记即归入对应划分，评测集优先
	ValidationTokens []string `json:"validation_tokens" yaml:"validation_tokens" mapstructure:"validation_tokens"`
	EvaluationTokens []string `json:"evaluation_tokens" yaml:"evaluation_tokens" mapstructure:"evaluation_tokens"`

	TrainDir      string `json:"train_dir" yaml:"train_dir" mapstructure:"train_dir"`
	ValidationDir string `json:"validation_dir" yaml:"validation_dir" mapstructure:"validation_dir"`
	EvaluationDir string `json:"evaluation_dir" yaml:"evaluation_dir" mapstructure:"evaluation_dir"`
	SegmentSuffix string `json:"segment_suffix" yaml:"segment_suffix" mapstructure:"segment_suffix"` // 切分后目录后缀

	SilenceSymbols []string `json:"silence_symbols" yaml:"silence_symbols" mapstructure:"silence_symbols"`
	MinSilenceMs   int      `json:"min_silence_ms" yaml:"min_silence_ms" mapstructure:"min_silence_ms"` // 静音段切分阈值（毫秒）

	TokenFile       string `json:"token_file" yaml:"token_file" mapstructure:"token_file"` // 相对输出根目录
	MaxWorkers      int    `json:"max_workers" yaml:"max_workers" mapstructure:"max_workers"`
	ShowProgress    bool   `json:"show_progress" yaml:"show_progress" mapstructure:"show_progress"`
	WatchDebounceMs int    `json:"watch_debounce_ms" yaml:"watch_debounce_ms" mapstructure:"watch_debounce_ms"`
	LogLevel        string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFile         string `json:"log_file" yaml:"log_file" mapstructure:"log_file"`
}

// NewDefaultConfig 创建默认配置（CSD 语料的划分与命名）
func NewDefaultConfig() *Config {
	return &Config{
		CorpusRoot:       "",
		OutputRoot:       "data",
		SampleRate:       24000,
		UttPrefix:        "csd",
		UttIDWidth:       20,
		Speaker:          "",
		ValidationTokens: []string{"046"},
		EvaluationTokens: []string{"047", "048", "049", "050"},
		TrainDir:         "tr_no_dev",
		ValidationDir:    "dev",
		EvaluationDir:    "eval",
		SegmentSuffix:    "_seg",
		SilenceSymbols:   []string{"pau", "sil", "br"},
		MinSilenceMs:     500,
		TokenFile:        "tokens.txt",
		MaxWorkers:       4,
		ShowProgress:     false,
		WatchDebounceMs:  2000,
		LogLevel:         "INFO",
		LogFile:          "",
	}
}

// Validate 验证配置是否有效，不访问文件系统
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CorpusRoot) == "" {
		return utils.NewConfigError("CorpusRoot", "未设置语料根目录")
	}
	if strings.TrimSpace(c.OutputRoot) == "" {
		return utils.NewConfigError("OutputRoot", "未设置输出目录")
	}
	if c.SampleRate <= 0 {
		return utils.NewConfigError("SampleRate", "必须为正数，当前为 %d", c.SampleRate)
	}
	if c.UttPrefix == "" || strings.ContainsAny(c.UttPrefix, " \t") {
		return utils.NewConfigError("UttPrefix", "不能为空或包含空白字符")
	}
	if strings.ContainsAny(c.Speaker, " \t") {
		return utils.NewConfigError("Speaker", "不能包含空白字符")
	}
	if c.UttIDWidth < 0 || c.UttIDWidth > 64 {
		return utils.NewConfigError("UttIDWidth", "必须在0-64之间")
	}

	dirs := map[string]string{
		"TrainDir":      c.TrainDir,
		"ValidationDir": c.ValidationDir,
		"EvaluationDir": c.EvaluationDir,
	}
	seen := make(map[string]bool)
	for field, dir := range dirs {
		if dir == "" || strings.ContainsRune(dir, filepath.Separator) {
			return utils.NewConfigError(field, "必须是非空的目录名")
		}
		if seen[dir] {
			return utils.NewConfigError(field, "与其他划分目录重名: %s", dir)
		}
		seen[dir] = true
	}
	if c.SegmentSuffix == "" {
		return utils.NewConfigError("SegmentSuffix", "不能为空，否则切分结果会覆盖话语级目录")
	}

	if len(c.SilenceSymbols) == 0 {
		return utils.NewConfigError("SilenceSymbols", "至少需要一个静音符号")
	}
	if c.MinSilenceMs < 0 {
		return utils.NewConfigError("MinSilenceMs", "不能为负数")
	}
	if c.MaxWorkers < 1 || c.MaxWorkers > 64 {
		return utils.NewConfigError("MaxWorkers", "必须在1-64之间")
	}
	if c.WatchDebounceMs < 0 {
		return utils.NewConfigError("WatchDebounceMs", "不能为负数")
	}
	if c.TokenFile == "" {
		return utils.NewConfigError("TokenFile", "不能为空")
	}
	return nil
}

// PartitionDir 返回划分的话语级目录
func (c *Config) PartitionDir(p Partition) string {
	switch p {
	case PartitionValidation:
		return filepath.Join(c.OutputRoot, c.ValidationDir)
	case PartitionEvaluation:
		return filepath.Join(c.OutputRoot, c.EvaluationDir)
	default:
		return filepath.Join(c.OutputRoot, c.TrainDir)
	}
}

// SegmentDir 返回划分切分后的目录
func (c *Config) SegmentDir(p Partition) string {
	return c.PartitionDir(p) + c.SegmentSuffix
}

// TokenPath 返回词表文件路径
func (c *Config) TokenPath() string {
	return filepath.Join(c.OutputRoot, c.TokenFile)
}

// SpeakerID 返回说话人ID，未配置时与语料前缀相同
func (c *Config) SpeakerID() string {
	if c.Speaker != "" {
		return c.Speaker
	}
	return c.UttPrefix
}

// MinSilence 返回静音阈值
func (c *Config) MinSilence() time.Duration {
	return time.Duration(c.MinSilenceMs) * time.Millisecond
}

// WatchDebounce 返回监听模式的去抖时长
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

// LoadFromFile 从 YAML（或 JSON）文件加载配置并校验
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("读取配置文件失败: %v", err)
		return err
	}

	// YAML 是 JSON 的超集，两种格式都用 yaml 解码
	if err := yaml.Unmarshal(data, c); err != nil {
		logrus.Errorf("解析配置文件失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}
	return nil
}

// SaveToFile 保存配置到文件，扩展名为 .json 时写 JSON，否则写 YAML
func (c *Config) SaveToFile(path string) error {
	if err := utils.EnsureDirExists(filepath.Dir(path)); err != nil {
		logrus.Errorf("创建目录失败: %v", err)
		return err
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		logrus.Errorf("写入配置文件失败: %v", err)
		return err
	}
	return nil
}

// PrintConfig 打印当前配置
func (c *Config) PrintConfig() {
	data, err := yaml.Marshal(c)
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return
	}
	logrus.Infof("当前配置:\n%s", string(data))
}
