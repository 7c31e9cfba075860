// Package segment 在足够长的静音处把话语切分成段。
//
// 一段连续的静音条目（静音串）跨度不小于阈值、且前后都有非静音条目时构成切分点。
// 切分位置取静音串内部离其时间中点最近的条目边界（相等时取靠后的边界），
// 因此静音条目不会被拆开，所有段按顺序拼接后与原对齐序列完全一致。
// 位于话语开头或结尾的静音串不切分，始终留在相邻的段中。
package segment

import (
	"fmt"
	"time"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/alignment"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
)

// Builder 段切分器
type Builder struct {
	Silences   map[string]bool
	MinSilence time.Duration
}

// NewBuilder 创建段切分器
func NewBuilder(silences []string, minSilence time.Duration) *Builder {
	set := make(map[string]bool, len(silences))
	for _, s := range silences {
		set[s] = true
	}
	return &Builder{Silences: set, MinSilence: minSilence}
}

// SegmentID 由话语ID和段序号生成段ID
func SegmentID(uttID string, ordinal int) string {
	return fmt.Sprintf("%s_%04d", uttID, ordinal)
}

// Build 校验话语的对齐序列并切分
func (b *Builder) Build(utt models.Utterance) ([]models.Segment, error) {
	if err := alignment.Validate(utt.ID, utt.Alignment); err != nil {
		return nil, err
	}

	entries := utt.Alignment
	bounds := append([]int{0}, b.CutPoints(entries)...)
	bounds = append(bounds, len(entries))

	segs := make([]models.Segment, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		from, to := bounds[i], bounds[i+1]
		end := entries[len(entries)-1].End
		if to < len(entries) {
			// 与下一段首尾相接，条目间的空隙归前一段
			end = entries[to].Start
		}
		segs = append(segs, models.Segment{
			ID:          SegmentID(utt.ID, i),
			UtteranceID: utt.ID,
			Start:       entries[from].Start,
			End:         end,
			Entries:     entries[from:to:to],
		})
	}
	return segs, nil
}

// CutPoints 返回切分边界的条目下标（升序，均在 (0, len) 内）。
// 下标 k 表示在 entries[k-1] 与 entries[k] 之间切开。
// 只有前后都有非静音条目的静音串才参与切分，位于开头或结尾的静音串再长也不切。
func (b *Builder) CutPoints(entries []models.AlignmentEntry) []int {
	var cuts []int
	n := len(entries)
	for i := 0; i < n; {
		if !b.Silences[entries[i].Symbol] {
			i++
			continue
		}
		j := i
		for j+1 < n && b.Silences[entries[j+1].Symbol] {
			j++
		}
		if i > 0 && j < n-1 && entries[j].End-entries[i].Start >= b.MinSilence {
			cuts = append(cuts, nearestBoundary(entries, i, j))
		}
		i = j + 1
	}
	return cuts
}

// nearestBoundary 在静音串 entries[first..last] 的边界中找离时间中点最近的一个
func nearestBoundary(entries []models.AlignmentEntry, first, last int) int {
	mid := entries[first].Start + (entries[last].End-entries[first].Start)/2
	boundaryTime := func(k int) time.Duration {
		if k > last {
			return entries[last].End
		}
		return entries[k].Start
	}

	best := first
	bestDist := absDuration(boundaryTime(first) - mid)
	for k := first + 1; k <= last+1; k++ {
		if d := absDuration(boundaryTime(k) - mid); d <= bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
