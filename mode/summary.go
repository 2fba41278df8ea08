package mode

import "github.com/khaledhikmat/vs-steer/model"

type statsSummary struct {
	pipelines      int
	frames         int64
	bridgeFailures int64
	invokeFailures int64
	avgInvokeTime  float64
}

// summarize keeps the latest snapshot of every pipeline; counters in a
// snapshot are cumulative for that pipeline's lifetime.
func summarize(stats []model.ProcessorStats) statsSummary {
	latest := map[string]model.ProcessorStats{}
	for _, s := range stats {
		if prev, ok := latest[s.Pipeline]; ok && prev.Timestamp > s.Timestamp {
			continue
		}
		latest[s.Pipeline] = s
	}

	var sum statsSummary
	var invokeTime float64
	for _, s := range latest {
		sum.pipelines++
		sum.frames += s.Frames
		sum.bridgeFailures += s.BridgeFailures
		sum.invokeFailures += s.InvokeFailures
		invokeTime += s.AvgInvokeTime * float64(s.Frames)
	}
	if sum.frames > 0 {
		sum.avgInvokeTime = invokeTime / float64(sum.frames)
	}
	return sum
}
