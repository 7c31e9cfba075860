// Package speaker 生成 utt2spk / spk2utt 两个互逆的说话人清单
package speaker

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// Map 话语ID到说话人ID的映射
type Map map[string]string

// FromIDs 给所有ID标记同一个说话人
func FromIDs(ids []string, spk string) Map {
	m := make(Map, len(ids))
	for _, id := range ids {
		m[id] = spk
	}
	return m
}

// Utt2SpkLines 返回按话语ID排序的 utt2spk 行
func (m Map) Utt2SpkLines() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = id + " " + m[id]
	}
	return lines
}

// Invert 返回 spk2utt：说话人 -> 排序后的话语ID列表
func (m Map) Invert() map[string][]string {
	out := make(map[string][]string)
	for utt, spk := range m {
		out[spk] = append(out[spk], utt)
	}
	for spk := range out {
		sort.Strings(out[spk])
	}
	return out
}

// Spk2UttLines 返回按说话人排序的 spk2utt 行
func (m Map) Spk2UttLines() []string {
	inv := m.Invert()
	spks := make([]string, 0, len(inv))
	for spk := range inv {
		spks = append(spks, spk)
	}
	sort.Strings(spks)

	lines := make([]string, len(spks))
	for i, spk := range spks {
		lines[i] = spk + " " + strings.Join(inv[spk], " ")
	}
	return lines
}

// Write 写出 utt2spk 和 spk2utt 两个文件，要么都更新，要么都保持原样
func (m Map) Write(utt2spkPath, spk2uttPath string) error {
	return utils.WriteFilesAtomic(
		utils.LineFile{Path: utt2spkPath, Lines: m.Utt2SpkLines()},
		utils.LineFile{Path: spk2uttPath, Lines: m.Spk2UttLines()},
	)
}

// ReadUtt2Spk 读取 utt2spk 文件
func ReadUtt2Spk(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := make(Map)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s 第%d行格式错误: 需要 <utt> <spk>", path, lineNo)
		}
		if _, dup := m[fields[0]]; dup {
			return nil, fmt.Errorf("%s 第%d行: 话语 %s 重复", path, lineNo, fields[0])
		}
		m[fields[0]] = fields[1]
	}
	return m, scanner.Err()
}

// ReadSpk2Utt 读取 spk2utt 文件
func ReadSpk2Utt(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string][]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		out[fields[0]] = append(out[fields[0]], fields[1:]...)
	}
	return out, scanner.Err()
}

// Check 校验两个清单互逆：每个话语恰好出现在一个说话人列表中，且与 utt2spk 一致
func Check(utt2spk Map, spk2utt map[string][]string) error {
	seen := make(map[string]bool, len(utt2spk))
	for spk, utts := range spk2utt {
		for _, utt := range utts {
			if seen[utt] {
				return fmt.Errorf("话语 %s 出现在多个说话人列表中", utt)
			}
			seen[utt] = true
			if got, ok := utt2spk[utt]; !ok || got != spk {
				return fmt.Errorf("话语 %s: spk2utt 为 %s，utt2spk 为 %q", utt, spk, got)
			}
		}
	}
	if len(seen) != len(utt2spk) {
		return fmt.Errorf("utt2spk 有 %d 条，spk2utt 只覆盖 %d 条", len(utt2spk), len(seen))
	}
	return nil
}

// ReadIDs 读取清单文件（segments、text 等）每行的第一列
func ReadIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
			ids = append(ids, fields[0])
		}
	}
	return ids, scanner.Err()
}
