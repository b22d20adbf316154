package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oqtopus-team/oqtopus-qir/common"
	"go.uber.org/zap"
)

const queueLengthKeyInMetrics = "queue_length"

// QueueSizer is the part of the system components the metrics log reads.
type QueueSizer interface {
	GetCurrentQueueSize() int
}

// MetricsLog writes the queue length as a JSON line to a daily file every
// Period.
type MetricsLog struct {
	FileDir string
	Period  time.Duration

	dl     *dailyLogger
	logger *slog.Logger
	sc     QueueSizer
}

func NewMetricsLog(fileDir string, period time.Duration, sc QueueSizer) (*MetricsLog, error) {
	if err := common.IsDirWritable(fileDir); err != nil {
		zap.L().Error("failed to set up metrics log", zap.Error(err))
		return nil, fmt.Errorf("failed to write to %s: %w", fileDir, err)
	}
	dl := newDailyLogger(fileDir)
	return &MetricsLog{
		FileDir: fileDir,
		Period:  period,
		dl:      dl,
		logger:  slog.New(slog.NewJSONHandler(dl, nil)),
		sc:      sc,
	}, nil
}

// Run writes metrics until ctx is done.
func (m *MetricsLog) Run(ctx context.Context) error {
	t := time.NewTicker(m.Period)
	defer t.Stop()
	defer m.Cleanup()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Task()
		}
	}
}

func (m *MetricsLog) Task() {
	m.logger.Info(
		"Metrics",
		slog.Int(
			queueLengthKeyInMetrics,
			m.sc.GetCurrentQueueSize()),
	)
}

func (m *MetricsLog) Cleanup() {
	m.dl.Close()
}

type dailyLogger struct {
	mu              sync.Mutex
	fileDir         string
	currentFileName string
	file            *os.File
}

func newDailyLogger(fileDir string) *dailyLogger {
	return &dailyLogger{
		fileDir: fileDir,
	}
}

func (dl *dailyLogger) Write(p []byte) (n int, err error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	fileName := fmt.Sprintf("metrics-%s.log", time.Now().Format("2006-01-02"))
	if dl.file == nil || dl.currentFileName != fileName {
		if dl.file != nil {
			dl.file.Close()
		}
		var err error
		dl.file, err = os.OpenFile(filepath.Join(dl.fileDir, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, err
		}
		dl.currentFileName = fileName
	}
	return dl.file.Write(p)
}

func (dl *dailyLogger) Close() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file != nil {
		err := dl.file.Close()
		dl.file = nil
		return err
	}
	return nil
}
