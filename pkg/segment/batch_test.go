package segment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/alignment"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// 模拟的进度管理器
type MockProgressReporter struct {
	mock.Mock
}

func (m *MockProgressReporter) CreateProgressBar(id string, total int, prefix string, suffix string) {
	m.Called(id, total, prefix, suffix)
}

func (m *MockProgressReporter) UpdateProgressBar(id string, current int, suffix string) {
	m.Called(id, current, suffix)
}

func (m *MockProgressReporter) CompleteProgressBar(id string, suffix string) {
	m.Called(id, suffix)
}

func makeUtterances(n int) []models.Utterance {
	utts := make([]models.Utterance, n)
	for i := range utts {
		utts[i] = models.Utterance{
			ID:        fmt.Sprintf("csd_%03d", i),
			Alignment: seq("la", 200, "pau", 500, "li", 200, "pau", 100, "lu", 300),
		}
	}
	return utts
}

func TestBuildAllKeepsInputOrder(t *testing.T) {
	utts := makeUtterances(25)

	for _, workers := range []int{1, 4, 16} {
		p := NewBatchProcessor(newTestBuilder(), workers, nil)
		segs, err := p.BuildAll(context.Background(), utts, "train")
		require.NoError(t, err)
		require.Len(t, segs, 50)

		for i, s := range segs {
			assert.Equal(t, utts[i/2].ID, s.UtteranceID)
			assert.Equal(t, SegmentID(utts[i/2].ID, i%2), s.ID)
		}
	}
}

func TestBuildAllReportsProgress(t *testing.T) {
	reporter := new(MockProgressReporter)
	reporter.On("CreateProgressBar", "dev", 3, mock.Anything, mock.Anything).Return()
	reporter.On("UpdateProgressBar", "dev", mock.AnythingOfType("int"), mock.Anything).Return()
	reporter.On("CompleteProgressBar", "dev", "完成").Return()

	p := NewBatchProcessor(newTestBuilder(), 2, nil)
	p.SetProgressReporter(reporter)
	_, err := p.BuildAll(context.Background(), makeUtterances(3), "dev")
	require.NoError(t, err)

	reporter.AssertNumberOfCalls(t, "UpdateProgressBar", 3)
	reporter.AssertCalled(t, "UpdateProgressBar", "dev", 3, "3/3")
	reporter.AssertCalled(t, "CompleteProgressBar", "dev", "完成")
}

func TestBuildAllFailsFast(t *testing.T) {
	utts := makeUtterances(10)
	utts[4].Alignment = []models.AlignmentEntry{{Start: ms(100), End: ms(50), Symbol: "la"}}

	p := NewBatchProcessor(newTestBuilder(), 3, nil)
	segs, err := p.BuildAll(context.Background(), utts, "eval")
	assert.Nil(t, segs)
	var alignErr *utils.MalformedAlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, "csd_004", alignErr.Utterance)
}

func TestBuildAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewBatchProcessor(newTestBuilder(), 2, nil)
	_, err := p.BuildAll(ctx, makeUtterances(5), "train")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessPartition(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "dev")
	out := filepath.Join(root, "dev_seg")
	require.NoError(t, os.MkdirAll(in, 0755))

	utts := makeUtterances(2)
	lines := []string{
		alignment.FormatLabelRecord(utts[0].ID, utts[0].Alignment),
		alignment.FormatLabelRecord(utts[1].ID, utts[1].Alignment),
	}
	require.NoError(t, utils.WriteLines(filepath.Join(in, "label"), lines))
	require.NoError(t, utils.WriteLines(filepath.Join(in, "wav.scp"), []string{"csd_000 a.wav", "csd_001 b.wav"}))

	p := NewBatchProcessor(newTestBuilder(), 2, nil)
	result, err := p.ProcessPartition(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Utterances)
	assert.Equal(t, 4, result.Segments)

	segments, err := os.ReadFile(filepath.Join(out, "segments"))
	require.NoError(t, err)
	assert.Equal(t, "csd_000_0000 csd_000 0 0.7\ncsd_000_0001 csd_000 0.7 1.3\n"+
		"csd_001_0000 csd_001 0 0.7\ncsd_001_0001 csd_001 0.7 1.3\n", string(segments))

	label, err := os.ReadFile(filepath.Join(out, "label"))
	require.NoError(t, err)
	assert.Contains(t, string(label), "csd_000_0001 0 0.2 li 0.2 0.3 pau 0.3 0.6 lu\n")

	text, err := os.ReadFile(filepath.Join(out, "text"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "csd_001_0000 la pau\n")

	assert.FileExists(t, filepath.Join(out, "wav.scp"))
	assert.NoFileExists(t, filepath.Join(out, "midi.scp"))
	assert.FileExists(t, filepath.Join(out, "segments.json"))
}

func TestProcessPartitionRequiresLabel(t *testing.T) {
	p := NewBatchProcessor(newTestBuilder(), 1, nil)
	_, err := p.ProcessPartition(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "out"))
	var cfgErr *utils.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
