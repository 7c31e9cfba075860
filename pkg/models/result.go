package models

// StageResult 单个阶段的统计信息
type StageResult struct {
	Stage         string            `json:"stage"`
	Partition     Partition         `json:"partition,omitempty"`
	OutputDir     string            `json:"output_dir"`
	OutputFiles   map[string]string `json:"output_files"`
	Utterances    int               `json:"utterances"`
	Segments      int               `json:"segments,omitempty"`
	ProcessTimeMs int64             `json:"process_time_ms"`
}

// Result 一次流水线运行的统计
type Result struct {
	RunID  string        `json:"run_id"`
	Stages []StageResult `json:"stages"`
}
