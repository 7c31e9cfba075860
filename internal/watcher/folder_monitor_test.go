package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

type recordingHandler struct {
	mu      sync.Mutex
	batches [][]string
}

func (h *recordingHandler) OnFilesChanged(paths []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, paths)
}

func (h *recordingHandler) snapshot() [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]string{}, h.batches...)
}

func TestIsTargetFile(t *testing.T) {
	m, err := NewFolderMonitor(nil, []string{".csv", ".wav"}, nil, time.Second)
	require.NoError(t, err)
	defer m.Stop()

	assert.True(t, m.isTargetFile("/c/csv/001.csv"))
	assert.True(t, m.isTargetFile("/c/wav/001.WAV"))
	assert.False(t, m.isTargetFile("/c/csv/001.mid"))
	assert.False(t, m.isTargetFile("/c/csv/.001.csv.swp"))
}

func TestFolderMonitorDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	handler := &recordingHandler{}
	m, err := NewFolderMonitor([]string{dir}, []string{".csv"}, handler, 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer m.Stop()

	for _, name := range []string{"001.csv", "002.csv", "ignored.tmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("0 1 la\n"), 0644))
	}

	require.Eventually(t, func() bool { return len(handler.snapshot()) > 0 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	batches := handler.snapshot()
	require.Len(t, batches, 1, "静默期内的变化只触发一次")
	assert.Equal(t, []string{filepath.Join(dir, "001.csv"), filepath.Join(dir, "002.csv")}, batches[0])
}

func TestFolderMonitorRequiresExistingFolder(t *testing.T) {
	m, err := NewFolderMonitor([]string{filepath.Join(t.TempDir(), "missing")}, nil, nil, time.Second)
	require.NoError(t, err)
	defer m.Stop()

	var cfgErr *utils.ConfigurationError
	assert.ErrorAs(t, m.Start(), &cfgErr)
}

func TestFolderMonitorStopIsIdempotent(t *testing.T) {
	m, err := NewFolderMonitor([]string{t.TempDir()}, nil, nil, time.Second)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	m.Stop()
	m.Stop()
}

func TestCorpusWatcherCoalescesRuns(t *testing.T) {
	config := models.NewDefaultConfig()
	config.CorpusRoot = t.TempDir()

	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	w, err := NewCorpusWatcher(context.Background(), config, func(ctx context.Context) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			<-release
		}
		return nil
	})
	require.NoError(t, err)
	defer w.Stop()

	done := make(chan struct{})
	go func() {
		w.OnFilesChanged([]string{"a.csv"})
		close(done)
	}()

	// 第一次运行尚未结束时的两批变化合并为一次补跑
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 10*time.Millisecond)
	w.OnFilesChanged([]string{"b.csv"})
	w.OnFilesChanged([]string{"c.csv"})
	close(release)

	<-done
	assert.Equal(t, 2, w.Runs())
}

func TestCorpusWatcherStopsWhenCanceled(t *testing.T) {
	config := models.NewDefaultConfig()
	config.CorpusRoot = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w, err := NewCorpusWatcher(ctx, config, func(ctx context.Context) error {
		t.Fatal("上下文取消后不应再运行")
		return nil
	})
	require.NoError(t, err)
	defer w.Stop()

	w.OnFilesChanged([]string{"a.csv"})
	assert.Equal(t, 0, w.Runs())
}
