package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/vs-steer/pipeline"
	"github.com/khaledhikmat/vs-steer/service/inference"
	"github.com/khaledhikmat/vs-steer/service/lgr"
)

// Inspect loads the configured model into an engine without starting any
// loop, reports its tensors and summarises the processor stats stored so far.
func Inspect(_ context.Context, svcs pipeline.ServicesFactory) error {
	cfgSvc := svcs.CfgSvc

	buf, backend, err := loadModel(cfgSvc.GetModelPath(), cfgSvc.GetInferenceBackend())
	if err != nil {
		return err
	}

	engine, err := inference.NewContext(buf, cfgSvc.GetArenaSize(), backend)
	if err != nil {
		return err
	}
	defer engine.Close()

	schema := engine.Schema()
	lgr.Logger.Info(
		"model",
		slog.String("path", cfgSvc.GetModelPath()),
		slog.Uint64("schema", uint64(schema.Version)),
		slog.String("description", schema.Description),
		slog.Any("input", schema.Input),
		slog.Any("output", schema.Output),
		slog.Int("arenaSize", engine.Arena().Size()),
		slog.Int("arenaUsed", engine.Arena().Used()),
	)

	stats, err := svcs.DataSvc.RetrieveProcessorStats()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		lgr.Logger.Info("no processor stats recorded yet")
		return nil
	}

	summary := summarize(stats)
	lgr.Logger.Info(
		"processor stats",
		slog.Int("snapshots", len(stats)),
		slog.Int("pipelines", summary.pipelines),
		slog.Int64("frames", summary.frames),
		slog.Int64("bridgeFailures", summary.bridgeFailures),
		slog.Int64("invokeFailures", summary.invokeFailures),
		slog.Float64("avgInvokeTime", summary.avgInvokeTime),
	)
	return nil
}
