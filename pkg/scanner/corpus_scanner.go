package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// 语料目录布局
const (
	LabelDir = "csv"
	AudioDir = "wav"
	MidiDir  = "mid"
)

// CorpusScanner 扫描原始语料目录，找出所有话语
type CorpusScanner struct {
	Prefix          string   // 话语ID前缀
	IDWidth         int      // 文件名补零后的宽度
	LabelExtensions []string // 标注文件扩展名
	AudioExtension  string
	MidiExtension   string
}

// NewCorpusScanner 创建新的语料扫描器
func NewCorpusScanner(prefix string, idWidth int) *CorpusScanner {
	return &CorpusScanner{
		Prefix:          prefix,
		IDWidth:         idWidth,
		LabelExtensions: []string{".csv", ".txt", ".lab"},
		AudioExtension:  ".wav",
		MidiExtension:   ".mid",
	}
}

// UtteranceID 由文件名生成话语ID，名字左侧补零到固定宽度
func (s *CorpusScanner) UtteranceID(name string) string {
	if pad := s.IDWidth - len(name); pad > 0 {
		name = strings.Repeat("0", pad) + name
	}
	return s.Prefix + "_" + name
}

// ScanCorpus 扫描语料根目录（非递归读取 csv/ 子目录），返回按名称排序的话语。
// 根目录缺失、为空或没有任何标注文件时返回 ConfigurationError。
func (s *CorpusScanner) ScanCorpus(root string) ([]models.Utterance, error) {
	if !utils.CheckDirExists(root) {
		return nil, utils.NewConfigError("CorpusRoot", "语料目录不存在: %s", root)
	}

	labelDir := filepath.Join(root, LabelDir)
	entries, err := os.ReadDir(labelDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, utils.NewConfigError("CorpusRoot", "语料目录缺少 %s/ 子目录: %s", LabelDir, root)
		}
		return nil, utils.NewError("读取标注目录失败", err)
	}

	logrus.Infof("开始扫描语料: %s", root)

	var utts []models.Utterance
	seen := make(map[string]string)
	for _, entry := range entries {
		// 跳过目录和隐藏文件
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !s.isLabelFile(ext) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if prev, dup := seen[name]; dup {
			return nil, utils.NewConfigError("CorpusRoot", "同名标注文件重复: %s 与 %s", prev, entry.Name())
		}
		seen[name] = entry.Name()

		audio := filepath.Join(root, AudioDir, name+s.AudioExtension)
		if !utils.CheckFileExists(audio) {
			return nil, utils.NewConfigError("CorpusRoot", "标注 %s 缺少对应音频 %s", entry.Name(), audio)
		}

		utt := models.Utterance{
			ID:        s.UtteranceID(name),
			Name:      name,
			AudioPath: audio,
			LabelPath: filepath.Join(labelDir, entry.Name()),
		}
		if midi := filepath.Join(root, MidiDir, name+s.MidiExtension); utils.CheckFileExists(midi) {
			utt.MidiPath = midi
		}
		utts = append(utts, utt)
	}

	if len(utts) == 0 {
		return nil, utils.NewConfigError("CorpusRoot", "语料目录为空: %s", root)
	}

	sort.Slice(utts, func(i, j int) bool { return utts[i].ID < utts[j].ID })
	if err := checkUniqueIDs(utts); err != nil {
		return nil, err
	}

	logrus.Infof("扫描完成，共找到 %d 条话语", len(utts))
	return utts, nil
}

func (s *CorpusScanner) isLabelFile(ext string) bool {
	for _, labelExt := range s.LabelExtensions {
		if ext == labelExt {
			return true
		}
	}
	return false
}

func checkUniqueIDs(utts []models.Utterance) error {
	for i := 1; i < len(utts); i++ {
		if utts[i].ID == utts[i-1].ID {
			return utils.NewConfigError("UttIDWidth", "话语ID冲突: %s", utts[i].ID)
		}
	}
	return nil
}
