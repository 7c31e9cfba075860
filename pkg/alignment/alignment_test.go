package alignment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestParseCorpusLabel(t *testing.T) {
	input := strings.Join([]string{
		"start,end,pitch,syllable",
		"0.0,0.5,0,pau",
		"0.5,1.25,60,la",
		"",
		"1.25 1.5 la", // 三字段、空白分隔
	}, "\n")

	entries, err := ParseCorpusLabel("csd_1", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, models.AlignmentEntry{Start: 0, End: ms(500), Symbol: "pau", Pitch: "0"}, entries[0])
	assert.Equal(t, "60", entries[1].Pitch)
	assert.Equal(t, ms(1250), entries[1].End)
	assert.Equal(t, "", entries[2].Pitch)
	assert.Equal(t, "la", entries[2].Symbol)
}

func TestParseCorpusLabelErrors(t *testing.T) {
	_, err := ParseCorpusLabel("u", strings.NewReader("0.0 0.5\n"))
	var alignErr *utils.MalformedAlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, 1, alignErr.Index)

	_, err = ParseCorpusLabel("u", strings.NewReader("start end sym\n0.0 x la\n"))
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, 2, alignErr.Index)

	// 超出 time.Duration 范围的时间不能回绕成看似合法的值
	_, err = ParseCorpusLabel("u", strings.NewReader("0 1 la\n20000000000 21000000000 pau\n"))
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, 2, alignErr.Index)

	_, err = ParseCorpusLabel("u", strings.NewReader("-0.5 1 la\n"))
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, 1, alignErr.Index)
}

func TestValidate(t *testing.T) {
	good := []models.AlignmentEntry{
		{Start: 0, End: ms(100), Symbol: "a"},
		{Start: ms(150), End: ms(200), Symbol: "b"}, // 允许条目间有间隙
	}
	assert.NoError(t, Validate("u", good))

	cases := map[string][]models.AlignmentEntry{
		"empty":     nil,
		"zero":      {{Start: ms(100), End: ms(100), Symbol: "a"}},
		"reversed":  {{Start: ms(200), End: ms(100), Symbol: "a"}},
		"overlap":   {{Start: 0, End: ms(200), Symbol: "a"}, {Start: ms(100), End: ms(300), Symbol: "b"}},
		"no-symbol": {{Start: 0, End: ms(100)}},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			var alignErr *utils.MalformedAlignmentError
			assert.ErrorAs(t, Validate("u", entries), &alignErr)
		})
	}
}

func TestLabelRecordRoundTrip(t *testing.T) {
	entries := []models.AlignmentEntry{
		{Start: 0, End: ms(500), Symbol: "pau"},
		{Start: ms(500), End: ms(1234), Symbol: "la"},
	}
	line := FormatLabelRecord("csd_0001", entries)
	assert.Equal(t, "csd_0001 0 0.5 pau 0.5 1.234 la", line)

	id, parsed, err := ParseLabelRecord(line)
	require.NoError(t, err)
	assert.Equal(t, "csd_0001", id)
	assert.Equal(t, entries, parsed)
}

func TestParseLabelRecordMissingDuration(t *testing.T) {
	_, _, err := ParseLabelRecord("csd_0001 0 0.5 pau 0.5 la")
	var alignErr *utils.MalformedAlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, "csd_0001", alignErr.Utterance)
}

func TestReadCorpusLabelAndLabelFile(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "kr046a.csv")
	require.NoError(t, os.WriteFile(csv, []byte("start end pitch syllable\n0 1 60 a\n0.5 2 62 b\n"), 0644))

	_, err := ReadCorpusLabel("csd_kr046a", csv)
	var alignErr *utils.MalformedAlignmentError
	require.ErrorAs(t, err, &alignErr, "重叠条目应被拒绝")

	label := filepath.Join(dir, "label")
	require.NoError(t, os.WriteFile(label, []byte("u1 0 1 a 1 2 b\n\nu2 0 0.5 c\n"), 0644))
	utts, err := ReadLabelFile(label)
	require.NoError(t, err)
	require.Len(t, utts, 2)
	assert.Equal(t, "u1", utts[0].ID)
	assert.Len(t, utts[0].Alignment, 2)
	assert.Equal(t, "c", utts[1].Alignment[0].Symbol)
}
