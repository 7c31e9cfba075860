package export

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/alignment"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/speaker"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// 清单文件名，与下游语音语料工具约定一致
const (
	FileWavScp   = "wav.scp"
	FileMidiScp  = "midi.scp"
	FileText     = "text"
	FileLabel    = "label"
	FileSegments = "segments"
	FileUtt2Spk  = "utt2spk"
	FileSpk2Utt  = "spk2utt"
)

// Manifest 一个数据目录中的所有清单：文件名 -> 行
type Manifest map[string][]string

// FormatWavScp 生成 wav.scp 行：通过 sox 管道转换为单声道16bit并重采样到目标采样率
func FormatWavScp(id, audioPath string, fs int) string {
	return fmt.Sprintf("%s sox -t wavpcm %s -c 1 -t wavpcm -b 16 -r %d - |", id, audioPath, fs)
}

// UtteranceManifest 生成话语级清单。utts 需已按ID排序。
func UtteranceManifest(utts []models.Utterance, spk string, fs int) Manifest {
	m := Manifest{
		FileWavScp: make([]string, 0, len(utts)),
		FileText:   make([]string, 0, len(utts)),
		FileLabel:  make([]string, 0, len(utts)),
	}

	ids := make([]string, 0, len(utts))
	var midi []string
	for _, u := range utts {
		ids = append(ids, u.ID)
		m[FileWavScp] = append(m[FileWavScp], FormatWavScp(u.ID, u.AudioPath, fs))
		m[FileLabel] = append(m[FileLabel], alignment.FormatLabelRecord(u.ID, u.Alignment))
		m[FileText] = append(m[FileText], u.ID+" "+models.Segment{Entries: u.Alignment}.Transcript())
		if u.MidiPath != "" {
			midi = append(midi, u.ID+" "+u.MidiPath)
		}
	}
	if len(midi) > 0 {
		m[FileMidiScp] = midi
	}

	spkMap := speaker.FromIDs(ids, spk)
	m[FileUtt2Spk] = spkMap.Utt2SpkLines()
	m[FileSpk2Utt] = spkMap.Spk2UttLines()
	return m
}

// SegmentManifest 生成段级清单 segments / label / text。segs 按话语和时间顺序排列。
func SegmentManifest(segs []models.Segment) Manifest {
	m := Manifest{
		FileSegments: make([]string, 0, len(segs)),
		FileLabel:    make([]string, 0, len(segs)),
		FileText:     make([]string, 0, len(segs)),
	}
	for _, s := range segs {
		m[FileSegments] = append(m[FileSegments], fmt.Sprintf("%s %s %s %s",
			s.ID, s.UtteranceID, utils.FormatSeconds(s.Start), utils.FormatSeconds(s.End)))
		m[FileLabel] = append(m[FileLabel], alignment.FormatLabelRecord(s.ID, s.RelativeEntries()))
		m[FileText] = append(m[FileText], s.ID+" "+s.Transcript())
	}
	return m
}

// ManifestExporter 把清单写入数据目录。先写暂存目录，全部成功后整体替换目标目录。
type ManifestExporter struct {
	OutputFolder string
	Handler      *utils.ErrorHandler
}

// NewManifestExporter 创建一个新的清单导出器
func NewManifestExporter(outputFolder string, handler *utils.ErrorHandler) *ManifestExporter {
	if handler == nil {
		handler = utils.NewErrorHandler()
	}
	return &ManifestExporter{
		OutputFolder: outputFolder,
		Handler:      handler,
	}
}

// Export 写出清单，copies 为需要原样复制进目录的文件（目标文件名 -> 源路径）。
// 返回文件名到最终路径的映射。
func (e *ManifestExporter) Export(m Manifest, copies map[string]string, extra func(stage *utils.StagingDir) error) (map[string]string, error) {
	stage, err := utils.NewStagingDir(e.OutputFolder)
	if err != nil {
		return nil, err
	}

	written := make(map[string]string)
	err = e.Handler.SafeExecute("export "+filepath.Base(e.OutputFolder), func() error {
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := utils.WriteLines(stage.File(name), m[name]); err != nil {
				return err
			}
			written[name] = filepath.Join(e.OutputFolder, name)
		}
		for name, src := range copies {
			if err := utils.CopyFile(src, stage.File(name)); err != nil {
				return err
			}
			written[name] = filepath.Join(e.OutputFolder, name)
		}
		if extra != nil {
			if err := extra(stage); err != nil {
				return err
			}
		}
		return stage.Commit()
	}, stage.Discard)
	if err != nil {
		return nil, err
	}

	utils.Info("已导出数据目录: %s (%d 个文件)", e.OutputFolder, len(written))
	return written, nil
}
