package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// FileSegmentsJSON 段信息报告的文件名
const FileSegmentsJSON = "segments.json"

// SegmentEntry 段内一个符号，时间相对段起点（秒）
type SegmentEntry struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Symbol string  `json:"symbol"`
}

// SegmentReport 表示一个段
type SegmentReport struct {
	ID       string         `json:"id"`
	Start    float64        `json:"start"` // 在原话语中的开始时间（秒）
	End      float64        `json:"end"`
	Text     string         `json:"text"`
	Symbols  []SegmentEntry `json:"symbols"`
	Duration float64        `json:"duration"`
}

// UtteranceReport 表示一条话语的切分结果
type UtteranceReport struct {
	Utterance string          `json:"utterance"`
	Segments  []SegmentReport `json:"segments"`
}

// GenerateJSONContent 按话语分组生成报告，保持段的原有顺序
func GenerateJSONContent(segs []models.Segment) []UtteranceReport {
	var reports []UtteranceReport
	for _, s := range segs {
		if len(reports) == 0 || reports[len(reports)-1].Utterance != s.UtteranceID {
			reports = append(reports, UtteranceReport{Utterance: s.UtteranceID})
		}

		rel := s.RelativeEntries()
		symbols := make([]SegmentEntry, len(rel))
		for i, e := range rel {
			symbols[i] = SegmentEntry{Start: e.Start.Seconds(), End: e.End.Seconds(), Symbol: e.Symbol}
		}
		last := &reports[len(reports)-1]
		last.Segments = append(last.Segments, SegmentReport{
			ID:       s.ID,
			Start:    s.Start.Seconds(),
			End:      s.End.Seconds(),
			Text:     s.Transcript(),
			Symbols:  symbols,
			Duration: (s.End - s.Start).Seconds(),
		})
	}
	return reports
}

// ExportJSON 导出段信息报告，内容只取决于输入，重复运行结果逐字节相同
func ExportJSON(segs []models.Segment, path string) error {
	data, err := json.MarshalIndent(GenerateJSONContent(segs), "", "  ")
	if err != nil {
		return fmt.Errorf("JSON编码失败: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("写入JSON文件失败: %w", err)
	}
	utils.Debug("已导出JSON文件: %s", path)
	return nil
}
