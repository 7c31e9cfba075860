package models

import (
	"strings"
	"time"
)

// AlignmentEntry 对齐序列中的一个条目：符号及其起止时间
type AlignmentEntry struct {
	Start  time.Duration // 开始时间
	End    time.Duration // 结束时间
	Symbol string        // 音素/音节符号
	Pitch  string        // 音高（语料标注中有时提供，可为空）
}

// Duration 返回条目时长
func (e AlignmentEntry) Duration() time.Duration {
	return e.End - e.Start
}

// Utterance 表示一条原始录音
type Utterance struct {
	ID         string // 语料内唯一的话语ID，如 csd_000...0001
	Name       string // 语料中的原始文件名（不含扩展名）
	AudioPath  string // wav 路径
	MidiPath   string // 乐谱 mid 路径，可为空
	LabelPath  string // 对齐标注文件路径
	SampleRate int    // 目标采样率
	Alignment  []AlignmentEntry
}

// Partition 数据集划分
type Partition string

const (
	PartitionTrain      Partition = "train"
	PartitionValidation Partition = "validation"
	PartitionEvaluation Partition = "evaluation"
)

// Partitions 按固定顺序返回所有划分
func Partitions() []Partition {
	return []Partition{PartitionTrain, PartitionValidation, PartitionEvaluation}
}

// Segment 话语中以长静音切分出的一段
type Segment struct {
	ID          string
	UtteranceID string
	Start       time.Duration // 在原话语中的开始时间
	End         time.Duration // 在原话语中的结束时间
	Entries     []AlignmentEntry
}

// Transcript 返回不带时间信息的符号序列
func (s Segment) Transcript() string {
	symbols := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		symbols[i] = e.Symbol
	}
	return strings.Join(symbols, " ")
}

// RelativeEntries 返回以段开始时间为零点的条目
func (s Segment) RelativeEntries() []AlignmentEntry {
	out := make([]AlignmentEntry, len(s.Entries))
	for i, e := range s.Entries {
		e.Start -= s.Start
		e.End -= s.Start
		out[i] = e
	}
	return out
}
