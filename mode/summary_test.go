package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/khaledhikmat/vs-steer/model"
)

func TestSummarizeKeepsLatestSnapshot(t *testing.T) {
	stats := []model.ProcessorStats{
		{Pipeline: "a", Frames: 10, InvokeFailures: 1, AvgInvokeTime: 0.02, Timestamp: 100},
		{Pipeline: "a", Frames: 30, InvokeFailures: 2, AvgInvokeTime: 0.02, Timestamp: 200},
		{Pipeline: "b", Frames: 10, BridgeFailures: 3, AvgInvokeTime: 0.06, Timestamp: 150},
	}

	got := summarize(stats)
	assert.Equal(t, 2, got.pipelines)
	assert.Equal(t, int64(40), got.frames)
	assert.Equal(t, int64(3), got.bridgeFailures)
	assert.Equal(t, int64(2), got.invokeFailures)
	assert.InDelta(t, 0.03, got.avgInvokeTime, 1e-9)
}
