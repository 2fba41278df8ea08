package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/config"
	"github.com/khaledhikmat/vs-steer/service/framepool"
)

type testConfig struct {
	config.IService
	logFolder string
}

func (c testConfig) GetLogFolder() string {
	return c.logFolder
}

func TestPredictionLogger(t *testing.T) {
	dir := t.TempDir()
	pool := framepool.NewFixed(2, 96, 96, model.PixelFormatRGB565)
	svcs := ServicesFactory{
		CfgSvc:  testConfig{IService: config.NewHardCoded(), logFolder: dir},
		PoolSvc: pool,
	}

	queues := Queues{
		Input:  make(chan *model.Frame, 1),
		Output: make(chan *model.Frame),
		Result: make(chan struct{}),
	}
	p := register(t, queues, testOptions(1, setRaw(12)))

	ctx, cancel := context.WithCancel(context.Background())
	errorStream := make(chan interface{}, 1)
	statsStream := make(chan interface{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		PredictionLogger(ctx, svcs, p, queues, errorStream, statsStream)
	}()

	f, err := pool.Get(context.Background())
	require.NoError(t, err)
	f.Seq = 42
	queues.Input <- f

	path := filepath.Join(dir, predictionsFile)
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		return err == nil && len(b) > 0
	}, waitFor, 5*time.Millisecond)

	cancel()
	<-done

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	scanner := bufio.NewScanner(file)
	require.True(t, scanner.Scan())
	var pred model.Prediction
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &pred))
	assert.Equal(t, uint64(42), pred.Seq)
	assert.Equal(t, 12, pred.Raw)

	stats := (<-statsStream).(model.ConsumerStats)
	assert.Equal(t, 1, stats.Signals)
	assert.Equal(t, 1, stats.Forwarded)
	assert.Zero(t, stats.Errors)
	assert.Equal(t, 1, pool.Stats().Returns)
	assert.Empty(t, errorStream)
}
