// Package tokens 从训练集文本生成训练框架需要的符号表
package tokens

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// 特殊符号
const (
	Blank  = "<blank>"
	Unk    = "<unk>"
	SosEos = "<sos/eos>"
)

// Count 统计 text 文件（每行 "<id> sym sym ..."）中各符号出现次数
func Count(textPath string) (map[string]int, error) {
	f, err := os.Open(textPath)
	if err != nil {
		return nil, utils.NewError("打开text失败", err)
	}
	defer f.Close()

	counts := make(map[string]int)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		for _, sym := range fields[1:] {
			counts[sym]++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.NewError("读取text失败", err)
	}
	return counts, nil
}

// Build 按出现次数降序（次数相同按符号排序）生成符号表，
// 首部为 <blank>、<unk>，末尾为 <sos/eos>
func Build(counts map[string]int) []string {
	symbols := make([]string, 0, len(counts))
	for sym := range counts {
		if sym == Blank || sym == Unk || sym == SosEos {
			continue
		}
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool {
		if counts[symbols[i]] != counts[symbols[j]] {
			return counts[symbols[i]] > counts[symbols[j]]
		}
		return symbols[i] < symbols[j]
	})

	list := make([]string, 0, len(symbols)+3)
	list = append(list, Blank, Unk)
	list = append(list, symbols...)
	return append(list, SosEos)
}

// WriteTokenList 由 text 文件生成符号表并写入 out，返回符号数
func WriteTokenList(textPath, out string) (int, error) {
	counts, err := Count(textPath)
	if err != nil {
		return 0, err
	}
	list := Build(counts)
	if err := utils.EnsureDirExists(filepath.Dir(out)); err != nil {
		return 0, err
	}
	if err := utils.WriteFilesAtomic(utils.LineFile{Path: out, Lines: list}); err != nil {
		return 0, err
	}
	utils.Info("已生成符号表: %s (%d 个符号)", out, len(list))
	return len(list), nil
}
