package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// 环境变量前缀，例如 SVSPREP_CORPUS_ROOT
const envPrefix = "SVSPREP"

// 命令行参数 -> 配置键
var flagKeys = map[string]string{
	"corpus":         "corpus_root",
	"output":         "output_root",
	"fs":             "fs",
	"speaker":        "speaker",
	"min-silence-ms": "min_silence_ms",
	"workers":        "max_workers",
	"progress":       "show_progress",
	"log-level":      "log_level",
	"log-file":       "log_file",
}

func registerFlags(flags *pflag.FlagSet) {
	def := models.NewDefaultConfig()
	flags.StringP("config", "c", "", "配置文件路径 (yaml/json)")
	flags.String("corpus", def.CorpusRoot, "原始语料根目录 (含 csv/ wav/ mid/)")
	flags.StringP("output", "o", def.OutputRoot, "输出根目录")
	flags.Int("fs", def.SampleRate, "目标采样率")
	flags.String("speaker", def.Speaker, "说话人ID，默认与话语前缀相同")
	flags.Int("min-silence-ms", def.MinSilenceMs, "切分所需的最短静音（毫秒）")
	flags.IntP("workers", "j", def.MaxWorkers, "并发处理的话语数")
	flags.Bool("progress", def.ShowProgress, "显示进度条（日志改写到文件）")
	flags.String("log-level", def.LogLevel, "日志级别 (VERBOSE, INFO, WARN 或 debug/info/warn/error)")
	flags.String("log-file", def.LogFile, "日志文件路径")
}

// newViper 按 默认值 < 配置文件 < 环境变量 < 命令行参数 的优先级组装配置源
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	configFile, _ := flags.GetString("config")
	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, utils.NewConfigError("config", "读取配置文件失败 %s: %v", configFile, err)
		}
		utils.Debug("使用配置文件: %s", v.ConfigFileUsed())
	}
	return v, nil
}

// 默认配置的每个键都注册为默认值，这样环境变量可以覆盖任意键
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(models.NewDefaultConfig())
	if err != nil {
		return err
	}
	var defaults map[string]interface{}
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return err
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return nil
}

// loadConfig 从 viper 解析出校验过的配置
func loadConfig(v *viper.Viper) (*models.Config, error) {
	config := models.NewDefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, utils.NewError("解析配置失败", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
