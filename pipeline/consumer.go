package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/lgr"
)

const predictionsFile = "predictions.jsonl"

// PredictionLogger is the downstream end of the pipeline: it appends every
// signalled prediction to a rotating JSON log and recycles forwarded frames.
func PredictionLogger(canx context.Context, svcs ServicesFactory, p *Pipeline, queues Queues, errorStream chan interface{}, statsStream chan interface{}) {
	w := lgr.NewFileWriter(filepath.Join(svcs.CfgSvc.GetLogFolder(), predictionsFile), 10)
	defer w.Close()
	enc := json.NewEncoder(w)

	startTime := time.Now()
	stats := model.ConsumerStats{Name: "predictionLogger"}
	defer func() {
		now := time.Now()
		stats.Uptime = int64(now.Sub(startTime).Seconds())
		stats.Timestamp = now.Unix()
		statsStream <- stats
	}()

	var last time.Time
	for {
		select {
		case <-canx.Done():
			lgr.Logger.Info(
				"prediction logger context cancelled",
			)
			return

		case <-queues.Result:
			stats.Signals++
			pred, ok := p.Result()
			if !ok || pred.Timestamp.Equal(last) {
				// The frame was rejected by the bridge
				continue
			}
			last = pred.Timestamp
			if err := enc.Encode(pred); err != nil {
				stats.Errors++
				errorStream <- model.GenError("prediction_logger",
					err,
					map[string]interface{}{"seq": pred.Seq},
					"error writing prediction")
			}

		case f := <-queues.Output:
			stats.Forwarded++
			if f.Source != model.SourcePool {
				continue
			}
			if err := svcs.PoolSvc.Return(f); err != nil {
				stats.Errors++
				lgr.Logger.Warn(
					"forwarded frame not returned",
					slog.Uint64("seq", f.Seq),
					slog.Any("error", err),
				)
			}
		}
	}
}
