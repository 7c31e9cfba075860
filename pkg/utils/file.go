package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CheckFileExists 检查文件是否存在
func CheckFileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// CheckDirExists 检查目录是否存在
func CheckDirExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDirExists 确保目录存在，如果不存在则创建
func EnsureDirExists(dirPath string) error {
	if dirPath == "" {
		return nil // 空路径视为可选
	}
	if !CheckDirExists(dirPath) {
		return os.MkdirAll(dirPath, 0755)
	}
	return nil
}

// WriteLines 写入行文件，每行以\n结尾
func WriteLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("写入文件失败 %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("写入文件失败 %s: %w", path, err)
	}
	return f.Close()
}

// LineFile 待写入的行文件
type LineFile struct {
	Path  string
	Lines []string
}

// WriteFilesAtomic 先把所有文件写到各自目录下的临时文件，全部成功后再逐个改名到位。
// 任一文件写入失败时删除已写的临时文件，目标文件保持原样。
func WriteFilesAtomic(files ...LineFile) error {
	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}

	for _, file := range files {
		f, err := os.CreateTemp(filepath.Dir(file.Path), "."+filepath.Base(file.Path)+".tmp-")
		if err != nil {
			cleanup()
			return fmt.Errorf("创建临时文件失败 %s: %w", file.Path, err)
		}
		tmp := f.Name()
		f.Close()
		temps = append(temps, tmp)

		if err := WriteLines(tmp, file.Lines); err != nil {
			cleanup()
			return err
		}
		if err := os.Chmod(tmp, 0644); err != nil {
			cleanup()
			return err
		}
	}

	for i, file := range files {
		if err := os.Rename(temps[i], file.Path); err != nil {
			cleanup()
			return fmt.Errorf("替换文件失败 %s: %w", file.Path, err)
		}
	}
	return nil
}

// CopyFile 复制文件，目标已存在时覆盖
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("复制文件失败 %s -> %s: %w", src, dst, err)
	}
	return out.Close()
}

// StagingDir 在目标目录旁创建临时目录，所有输出写完后再整体替换目标目录，
// 失败时目标目录保持原样（或不存在），不会留下半成品。
type StagingDir struct {
	Target string
	Path   string
}

// NewStagingDir 为 target 创建暂存目录
func NewStagingDir(target string) (*StagingDir, error) {
	parent := filepath.Dir(target)
	if err := EnsureDirExists(parent); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(target)+".tmp-")
	if err != nil {
		return nil, fmt.Errorf("创建暂存目录失败: %w", err)
	}
	if err := os.Chmod(tmp, 0755); err != nil {
		os.RemoveAll(tmp)
		return nil, err
	}
	return &StagingDir{Target: target, Path: tmp}, nil
}

// File 返回暂存目录中的文件路径
func (s *StagingDir) File(name string) string {
	return filepath.Join(s.Path, name)
}

// Commit 删除旧的目标目录并把暂存目录改名为目标目录
func (s *StagingDir) Commit() error {
	if err := os.RemoveAll(s.Target); err != nil {
		return fmt.Errorf("删除旧输出目录失败: %w", err)
	}
	if err := os.Rename(s.Path, s.Target); err != nil {
		return fmt.Errorf("提交输出目录失败: %w", err)
	}
	return nil
}

// Discard 丢弃暂存目录
func (s *StagingDir) Discard() {
	if err := os.RemoveAll(s.Path); err != nil {
		Warn("清理暂存目录失败 %s: %v", s.Path, err)
	}
}
