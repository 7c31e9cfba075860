// Package alignment 读写对齐序列：语料中的逐行标注文件，以及 label 清单中的单行记录。
package alignment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// ParseCorpusLabel 解析语料标注文件。每行为 "start end symbol" 或
// "start end pitch symbol"，分隔符可以是空白或逗号；首字段为 start 的表头行和空行会被跳过。
func ParseCorpusLabel(utt string, r io.Reader) ([]models.AlignmentEntry, error) {
	var entries []models.AlignmentEntry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := splitFields(scanner.Text())
		if len(fields) == 0 || strings.EqualFold(fields[0], "start") {
			continue
		}

		var entry models.AlignmentEntry
		switch len(fields) {
		case 3:
			entry.Symbol = fields[2]
		case 4:
			entry.Pitch = fields[2]
			entry.Symbol = fields[3]
		default:
			return nil, &utils.MalformedAlignmentError{
				Utterance: utt, Index: lineNo,
				Reason: fmt.Sprintf("需要3或4个字段，实际 %d 个", len(fields)),
			}
		}

		var err error
		if entry.Start, err = utils.ParseSeconds(fields[0]); err != nil {
			return nil, &utils.MalformedAlignmentError{Utterance: utt, Index: lineNo, Reason: "开始时间无法解析: " + fields[0]}
		}
		if entry.End, err = utils.ParseSeconds(fields[1]); err != nil {
			return nil, &utils.MalformedAlignmentError{Utterance: utt, Index: lineNo, Reason: "结束时间无法解析: " + fields[1]}
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.NewError("读取标注失败 "+utt, err)
	}
	return entries, nil
}

// ReadCorpusLabel 读取并校验语料标注文件
func ReadCorpusLabel(utt, path string) ([]models.AlignmentEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, utils.NewError("打开标注文件失败", err)
	}
	defer f.Close()

	entries, err := ParseCorpusLabel(utt, f)
	if err != nil {
		return nil, err
	}
	if err := Validate(utt, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Validate 检查对齐序列：每个条目时长为正，条目按时间排序且互不重叠
func Validate(utt string, entries []models.AlignmentEntry) error {
	if len(entries) == 0 {
		return &utils.MalformedAlignmentError{Utterance: utt, Index: 0, Reason: "对齐序列为空"}
	}
	for i, e := range entries {
		if e.Symbol == "" {
			return &utils.MalformedAlignmentError{Utterance: utt, Index: i, Reason: "缺少符号"}
		}
		if e.Start < 0 {
			return &utils.MalformedAlignmentError{Utterance: utt, Index: i, Reason: "开始时间为负"}
		}
		if e.End <= e.Start {
			return &utils.MalformedAlignmentError{
				Utterance: utt, Index: i,
				Reason: fmt.Sprintf("符号 %s 没有时长 (%s-%s)", e.Symbol, utils.FormatSeconds(e.Start), utils.FormatSeconds(e.End)),
			}
		}
		if i > 0 && e.Start < entries[i-1].End {
			return &utils.MalformedAlignmentError{
				Utterance: utt, Index: i,
				Reason: fmt.Sprintf("时间非单调: %s 早于上一条目结束 %s", utils.FormatSeconds(e.Start), utils.FormatSeconds(entries[i-1].End)),
			}
		}
	}
	return nil
}

// FormatLabelRecord 生成 label 清单中的一行: "<id> start end sym start end sym ..."
func FormatLabelRecord(id string, entries []models.AlignmentEntry) string {
	var b strings.Builder
	b.WriteString(id)
	for _, e := range entries {
		b.WriteByte(' ')
		b.WriteString(utils.FormatSeconds(e.Start))
		b.WriteByte(' ')
		b.WriteString(utils.FormatSeconds(e.End))
		b.WriteByte(' ')
		b.WriteString(e.Symbol)
	}
	return b.String()
}

// ParseLabelRecord 解析 label 清单中的一行，不做时间校验
func ParseLabelRecord(line string) (string, []models.AlignmentEntry, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, &utils.MalformedAlignmentError{Reason: "空记录"}
	}
	id, rest := fields[0], fields[1:]
	if len(rest)%3 != 0 {
		return id, nil, &utils.MalformedAlignmentError{
			Utterance: id, Index: len(rest) / 3,
			Reason: "字段数不是3的倍数，存在缺少时长的符号",
		}
	}

	entries := make([]models.AlignmentEntry, 0, len(rest)/3)
	for i := 0; i < len(rest); i += 3 {
		start, err := utils.ParseSeconds(rest[i])
		if err != nil {
			return id, nil, &utils.MalformedAlignmentError{Utterance: id, Index: i / 3, Reason: "开始时间无法解析: " + rest[i]}
		}
		end, err := utils.ParseSeconds(rest[i+1])
		if err != nil {
			return id, nil, &utils.MalformedAlignmentError{Utterance: id, Index: i / 3, Reason: "结束时间无法解析: " + rest[i+1]}
		}
		entries = append(entries, models.AlignmentEntry{Start: start, End: end, Symbol: rest[i+2]})
	}
	return id, entries, nil
}

// ReadLabelFile 读取 label 清单，返回按文件顺序排列的话语
func ReadLabelFile(path string) ([]models.Utterance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, utils.NewError("打开label清单失败", err)
	}
	defer f.Close()

	var utts []models.Utterance
	scanner := bufio.NewScanner(f)
	// 整首歌的标注在一行内，可能超过默认的64KB
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, entries, err := ParseLabelRecord(line)
		if err != nil {
			return nil, err
		}
		utts = append(utts, models.Utterance{ID: id, LabelPath: path, Alignment: entries})
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.NewError("读取label清单失败", err)
	}
	return utts, nil
}
