// Package controller 按步骤驱动数据准备流水线：划分、切分、说话人清单、符号表
package controller

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ccp-p/asr-media-cli/svsprep/internal/ui"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/export"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/segment"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/speaker"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/splitter"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/tokens"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// Stage 流水线步骤
type Stage string

const (
	StageSplit    Stage = "split"
	StageSegment  Stage = "segment"
	StageSpeakers Stage = "speakers"
	StageTokens   Stage = "tokens"
)

// AllStages 完整流水线的步骤顺序
func AllStages() []Stage {
	return []Stage{StageSplit, StageSegment, StageSpeakers, StageTokens}
}

// ParseStage 解析步骤名
func ParseStage(name string) (Stage, error) {
	for _, s := range AllStages() {
		if strings.EqualFold(name, string(s)) {
			return s, nil
		}
	}
	return "", utils.NewConfigError("Stage", "未知步骤: %s", name)
}

// Pipeline 数据准备流水线。配置在创建时校验并复制，之后只读
type Pipeline struct {
	config   models.Config
	handler  *utils.ErrorHandler
	progress *ui.ProgressManager
}

// NewPipeline 校验配置并创建流水线，progress 可为 nil
func NewPipeline(config *models.Config, progress *ui.ProgressManager) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := *config
	c.ValidationTokens = append([]string(nil), config.ValidationTokens...)
	c.EvaluationTokens = append([]string(nil), config.EvaluationTokens...)
	c.SilenceSymbols = append([]string(nil), config.SilenceSymbols...)

	return &Pipeline{
		config:   c,
		handler:  utils.NewErrorHandler(),
		progress: progress,
	}, nil
}

// Config 返回流水线使用的配置副本
func (p *Pipeline) Config() models.Config {
	return p.config
}

// ErrorHandler 返回记录错误统计的处理器
func (p *Pipeline) ErrorHandler() *utils.ErrorHandler {
	return p.handler
}

// Split 把原始语料划分为三个话语级目录
func (p *Pipeline) Split() ([]models.StageResult, error) {
	return splitter.NewSplitter(&p.config, p.handler).Run()
}

// Segment 在长静音处切分每个划分，结果写入 <划分目录><后缀>
func (p *Pipeline) Segment(ctx context.Context) ([]models.StageResult, error) {
	builder := segment.NewBuilder(p.config.SilenceSymbols, p.config.MinSilence())
	batch := segment.NewBatchProcessor(builder, p.config.MaxWorkers, p.handler)
	if p.progress != nil && p.progress.Enabled() {
		batch.SetProgressReporter(p.progress)
	}

	results := make([]models.StageResult, 0, 3)
	for _, part := range models.Partitions() {
		result, err := batch.ProcessPartition(ctx, p.config.PartitionDir(part), p.config.SegmentDir(part))
		if err != nil {
			return nil, err
		}
		result.Partition = part
		results = append(results, result)
	}
	return results, nil
}

// Speakers 为每个切分目录写出 utt2spk/spk2utt，并校验二者互逆
func (p *Pipeline) Speakers() ([]models.StageResult, error) {
	results := make([]models.StageResult, 0, 3)
	for _, part := range models.Partitions() {
		start := time.Now()
		dir := p.config.SegmentDir(part)
		segPath := filepath.Join(dir, export.FileSegments)
		if !utils.CheckFileExists(segPath) {
			return nil, utils.NewConfigError("SegmentDir", "缺少 segments，请先运行切分: %s", segPath)
		}

		ids, err := speaker.ReadIDs(segPath)
		if err != nil {
			return nil, utils.NewError("读取segments失败", err)
		}

		utt2spk := filepath.Join(dir, export.FileUtt2Spk)
		spk2utt := filepath.Join(dir, export.FileSpk2Utt)
		err = p.handler.SafeExecute("speakers", func() error {
			if err := speaker.FromIDs(ids, p.config.SpeakerID()).Write(utt2spk, spk2utt); err != nil {
				return err
			}
			return checkSpeakerFiles(utt2spk, spk2utt)
		}, nil)
		if err != nil {
			return nil, err
		}

		results = append(results, models.StageResult{
			Stage:     string(StageSpeakers),
			Partition: part,
			OutputDir: dir,
			OutputFiles: map[string]string{
				export.FileUtt2Spk: utt2spk,
				export.FileSpk2Utt: spk2utt,
			},
			Segments:      len(ids),
			ProcessTimeMs: time.Since(start).Milliseconds(),
		})
	}
	return results, nil
}

func checkSpeakerFiles(utt2spkPath, spk2uttPath string) error {
	utt2spk, err := speaker.ReadUtt2Spk(utt2spkPath)
	if err != nil {
		return err
	}
	spk2utt, err := speaker.ReadSpk2Utt(spk2uttPath)
	if err != nil {
		return err
	}
	return speaker.Check(utt2spk, spk2utt)
}

// Tokens 由训练集切分后的 text 生成符号表
func (p *Pipeline) Tokens() (models.StageResult, error) {
	start := time.Now()
	dir := p.config.SegmentDir(models.PartitionTrain)
	textPath := filepath.Join(dir, export.FileText)
	if !utils.CheckFileExists(textPath) {
		return models.StageResult{}, utils.NewConfigError("SegmentDir", "缺少训练集 text，请先运行切分: %s", textPath)
	}

	out := p.config.TokenPath()
	n, err := tokens.WriteTokenList(textPath, out)
	if err != nil {
		return models.StageResult{}, err
	}
	return models.StageResult{
		Stage:         string(StageTokens),
		Partition:     models.PartitionTrain,
		OutputDir:     filepath.Dir(out),
		OutputFiles:   map[string]string{filepath.Base(out): out},
		Segments:      n,
		ProcessTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// Run 依次执行给定步骤，未指定时执行全部步骤
func (p *Pipeline) Run(ctx context.Context, stages ...Stage) (*models.Result, error) {
	if len(stages) == 0 {
		stages = AllStages()
	}
	result := &models.Result{RunID: uuid.NewString()}
	log := utils.WithField("run_id", result.RunID)
	log.Infof("开始运行: %s", joinStages(stages))

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := time.Now()
		var (
			stageResults []models.StageResult
			err          error
		)
		switch stage {
		case StageSplit:
			stageResults, err = p.Split()
		case StageSegment:
			stageResults, err = p.Segment(ctx)
		case StageSpeakers:
			stageResults, err = p.Speakers()
		case StageTokens:
			var r models.StageResult
			r, err = p.Tokens()
			stageResults = []models.StageResult{r}
		default:
			err = utils.NewConfigError("Stage", "未知步骤: %s", stage)
		}
		if err != nil {
			log.WithField("stage", stage).Errorf("步骤失败: %v", err)
			return result, err
		}

		result.Stages = append(result.Stages, stageResults...)
		log.WithFields(logrus.Fields{
			"stage":   stage,
			"elapsed": utils.FormatTimeDuration(time.Since(start).Seconds()),
		}).Info("步骤完成")
	}
	return result, nil
}

func joinStages(stages []Stage) string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}

// PrintSummary 打印彩色的运行摘要
func PrintSummary(w io.Writer, result *models.Result) {
	title := color.New(color.FgGreen, color.Bold)
	title.Fprintf(w, "\n运行完成 (%s)\n", result.RunID)
	for _, s := range result.Stages {
		line := fmt.Sprintf("  %-9s %-10s 话语=%-5d 片段=%-6d 用时=%dms",
			s.Stage, s.Partition, s.Utterances, s.Segments, s.ProcessTimeMs)
		fmt.Fprint(w, line)
		color.New(color.FgCyan).Fprintf(w, "  %s\n", s.OutputDir)
	}
}
