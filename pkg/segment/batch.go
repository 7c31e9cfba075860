package segment

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/alignment"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/export"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// ProgressReporter 进度显示接口，由 ui.ProgressManager 实现
type ProgressReporter interface {
	CreateProgressBar(id string, total int, prefix string, suffix string)
	UpdateProgressBar(id string, current int, suffix string)
	CompleteProgressBar(id string, suffix string)
}

// BatchProcessor 并发切分一个划分中的所有话语。话语之间互不依赖，
// 输出顺序与输入顺序一致，与并发数无关。
type BatchProcessor struct {
	Builder        *Builder
	MaxConcurrency int
	Progress       ProgressReporter
	Handler        *utils.ErrorHandler
}

// NewBatchProcessor 创建批处理器
func NewBatchProcessor(builder *Builder, maxConcurrency int, handler *utils.ErrorHandler) *BatchProcessor {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if handler == nil {
		handler = utils.NewErrorHandler()
	}
	return &BatchProcessor{
		Builder:        builder,
		MaxConcurrency: maxConcurrency,
		Handler:        handler,
	}
}

// SetProgressReporter 设置进度管理器
func (p *BatchProcessor) SetProgressReporter(reporter ProgressReporter) {
	p.Progress = reporter
}

// BuildAll 切分所有话语，遇到第一个错误即取消其余任务并返回该错误
func (p *BatchProcessor) BuildAll(ctx context.Context, utts []models.Utterance, barID string) ([]models.Segment, error) {
	if len(utts) == 0 {
		return []models.Segment{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if p.Progress != nil {
		p.Progress.CreateProgressBar(barID, len(utts), "切分 "+barID, fmt.Sprintf("0/%d", len(utts)))
	}

	perUtt := make([][]models.Segment, len(utts))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		done     int
	)
	sem := make(chan struct{}, p.MaxConcurrency) // 信号量限制并发

	for i := range utts {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				defer func() { <-sem }()
				if ctx.Err() != nil {
					return
				}

				segs, err := p.Builder.Build(utts[index])

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
						cancel()
					}
					return
				}
				perUtt[index] = segs
				done++
				if p.Progress != nil {
					p.Progress.UpdateProgressBar(barID, done, fmt.Sprintf("%d/%d", done, len(utts)))
				}
			}(i)
			continue
		}
		break
	}
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		if p.Progress != nil {
			p.Progress.CompleteProgressBar(barID, "失败")
		}
		return nil, firstErr
	}
	if p.Progress != nil {
		p.Progress.CompleteProgressBar(barID, "完成")
	}

	var all []models.Segment
	for _, segs := range perUtt {
		all = append(all, segs...)
	}
	return all, nil
}

// ProcessPartition 读取话语级目录 inDir 的 label，切分后把 segments/label/text
// 写入 outDir，并复制 wav.scp 和 midi.scp
func (p *BatchProcessor) ProcessPartition(ctx context.Context, inDir, outDir string) (models.StageResult, error) {
	start := time.Now()
	result := models.StageResult{Stage: "segment", OutputDir: outDir}

	labelPath := filepath.Join(inDir, export.FileLabel)
	if !utils.CheckFileExists(labelPath) {
		return result, utils.NewConfigError("PartitionDir", "缺少话语级 label，请先运行划分: %s", labelPath)
	}
	utts, err := alignment.ReadLabelFile(labelPath)
	if err != nil {
		return result, err
	}

	segs, err := p.BuildAll(ctx, utts, filepath.Base(inDir))
	if err != nil {
		return result, err
	}

	copies := make(map[string]string)
	for _, name := range []string{export.FileWavScp, export.FileMidiScp} {
		if src := filepath.Join(inDir, name); utils.CheckFileExists(src) {
			copies[name] = src
		}
	}

	exporter := export.NewManifestExporter(outDir, p.Handler)
	files, err := exporter.Export(export.SegmentManifest(segs), copies, func(stage *utils.StagingDir) error {
		return export.ExportJSON(segs, stage.File(export.FileSegmentsJSON))
	})
	if err != nil {
		return result, err
	}
	files[export.FileSegmentsJSON] = filepath.Join(outDir, export.FileSegmentsJSON)

	logrus.WithFields(logrus.Fields{
		"dir":        outDir,
		"utterances": len(utts),
		"segments":   len(segs),
	}).Info("切分完成")

	result.OutputFiles = files
	result.Utterances = len(utts)
	result.Segments = len(segs)
	result.ProcessTimeMs = time.Since(start).Milliseconds()
	return result, nil
}
