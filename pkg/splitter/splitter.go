// Package splitter 按固定划分表把语料分到训练/验证/评测三个集合，并写出话语级清单。
package splitter

import (
	"strings"
	"time"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/alignment"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/export"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/scanner"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// SplitTable 预先定义的划分表。文件名包含评测标记的归入评测集，
// 否则包含验证标记的归入验证集，其余为训练集。
type SplitTable struct {
	Validation []string
	Evaluation []string
}

// Assign 返回话语所属的划分
func (t SplitTable) Assign(name string) models.Partition {
	if containsAny(name, t.Evaluation) {
		return models.PartitionEvaluation
	}
	if containsAny(name, t.Validation) {
		return models.PartitionValidation
	}
	return models.PartitionTrain
}

func containsAny(name string, tokens []string) bool {
	for _, tok := range tokens {
		if tok != "" && strings.Contains(name, tok) {
			return true
		}
	}
	return false
}

// Splitter 语料划分器
type Splitter struct {
	Config  *models.Config
	Table   SplitTable
	Scanner *scanner.CorpusScanner
	Handler *utils.ErrorHandler
}

// NewSplitter 创建划分器，配置需已校验
func NewSplitter(config *models.Config, handler *utils.ErrorHandler) *Splitter {
	if handler == nil {
		handler = utils.NewErrorHandler()
	}
	return &Splitter{
		Config: config,
		Table: SplitTable{
			Validation: config.ValidationTokens,
			Evaluation: config.EvaluationTokens,
		},
		Scanner: scanner.NewCorpusScanner(config.UttPrefix, config.UttIDWidth),
		Handler: handler,
	}
}

// Partition 扫描语料并读取标注，返回各划分的话语（按ID排序）
func (s *Splitter) Partition() (map[models.Partition][]models.Utterance, error) {
	if s.Config.SampleRate <= 0 {
		return nil, utils.NewConfigError("SampleRate", "必须为正数，当前为 %d", s.Config.SampleRate)
	}

	utts, err := s.Scanner.ScanCorpus(s.Config.CorpusRoot)
	if err != nil {
		return nil, err
	}

	parts := make(map[models.Partition][]models.Utterance, 3)
	for _, p := range models.Partitions() {
		parts[p] = []models.Utterance{}
	}
	for _, u := range utts {
		u.SampleRate = s.Config.SampleRate
		u.Alignment, err = alignment.ReadCorpusLabel(u.ID, u.LabelPath)
		if err != nil {
			return nil, err
		}
		p := s.Table.Assign(u.Name)
		parts[p] = append(parts[p], u)
	}
	return parts, nil
}

// Run 重新生成全部划分目录，返回每个划分的统计
func (s *Splitter) Run() ([]models.StageResult, error) {
	parts, err := s.Partition()
	if err != nil {
		return nil, err
	}

	results := make([]models.StageResult, 0, len(parts))
	for _, p := range models.Partitions() {
		start := time.Now()
		utts := parts[p]
		if len(utts) == 0 {
			utils.Warn("划分 %s 没有任何话语", p)
		}

		dir := s.Config.PartitionDir(p)
		manifest := export.UtteranceManifest(utts, s.Config.SpeakerID(), s.Config.SampleRate)
		files, err := export.NewManifestExporter(dir, s.Handler).Export(manifest, nil, nil)
		if err != nil {
			return nil, err
		}

		utils.WithFields(map[string]interface{}{
			"partition":  p,
			"utterances": len(utts),
		}).Infof("划分完成: %s", dir)

		results = append(results, models.StageResult{
			Stage:         "split",
			Partition:     p,
			OutputDir:     dir,
			OutputFiles:   files,
			Utterances:    len(utts),
			ProcessTimeMs: time.Since(start).Milliseconds(),
		})
	}
	return results, nil
}
