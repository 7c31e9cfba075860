package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// 创建测试语料目录
func setupTestCorpus(t *testing.T) string {
	root := t.TempDir()
	for _, dir := range []string{LabelDir, AudioDir, MidiDir} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}

	testFiles := []string{
		"csv/kr002a.csv",
		"csv/kr001a.csv",
		"csv/.hidden.csv", // 隐藏文件
		"csv/notes.md",    // 非标注文件
		"wav/kr001a.wav",
		"wav/kr002a.wav",
		"mid/kr001a.mid", // kr002a 没有乐谱
	}
	for _, name := range testFiles {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("0 1 60 a\n"), 0644))
	}
	return root
}

func TestScanCorpus(t *testing.T) {
	root := setupTestCorpus(t)

	s := NewCorpusScanner("csd", 10)
	utts, err := s.ScanCorpus(root)
	require.NoError(t, err)
	require.Len(t, utts, 2)

	assert.Equal(t, "csd_0000kr001a", utts[0].ID)
	assert.Equal(t, "kr001a", utts[0].Name)
	assert.Equal(t, filepath.Join(root, "wav", "kr001a.wav"), utts[0].AudioPath)
	assert.Equal(t, filepath.Join(root, "mid", "kr001a.mid"), utts[0].MidiPath)
	assert.Equal(t, filepath.Join(root, "csv", "kr001a.csv"), utts[0].LabelPath)

	assert.Equal(t, "csd_0000kr002a", utts[1].ID)
	assert.Empty(t, utts[1].MidiPath)
}

func TestScanCorpusConfigurationErrors(t *testing.T) {
	s := NewCorpusScanner("csd", 20)
	var cfgErr *utils.ConfigurationError

	// 根目录不存在
	_, err := s.ScanCorpus(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorAs(t, err, &cfgErr)

	// 根目录为空
	_, err = s.ScanCorpus(t.TempDir())
	assert.ErrorAs(t, err, &cfgErr)

	// 有 csv/ 但没有标注文件
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, LabelDir), 0755))
	_, err = s.ScanCorpus(root)
	assert.ErrorAs(t, err, &cfgErr)

	// 标注缺少音频
	require.NoError(t, os.WriteFile(filepath.Join(root, LabelDir, "kr003a.csv"), []byte("0 1 a\n"), 0644))
	_, err = s.ScanCorpus(root)
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "kr003a")
}

func TestUtteranceID(t *testing.T) {
	s := NewCorpusScanner("csd", 6)
	assert.Equal(t, "csd_000001", s.UtteranceID("1"))
	assert.Equal(t, "csd_toolongname", s.UtteranceID("toolongname"))

	s.IDWidth = 0
	assert.Equal(t, "csd_1", s.UtteranceID("1"))
}
