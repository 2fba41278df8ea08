package mode

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/pipeline"
	"github.com/khaledhikmat/vs-steer/service/data"
	"github.com/khaledhikmat/vs-steer/service/inference"
	"github.com/khaledhikmat/vs-steer/service/lgr"
)

type Processor func(canxCtx context.Context, svcs pipeline.ServicesFactory) error

// backends maps the configured inference backend to an engine factory.
// "mean" runs without a network, for dry runs on machines without a model runtime.
var backends = map[string]inference.BackendFactory{
	"dnn":  inference.NewDNN,
	"mean": inference.NewFake(inference.MeanInvoke),
}

func loadModel(path string, backend string) ([]byte, inference.BackendFactory, error) {
	factory, ok := backends[backend]
	if !ok {
		return nil, nil, xerrors.Errorf("unknown inference backend %q", backend)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, xerrors.Errorf("error reading model %s: %w", path, err)
	}
	return buf, factory, nil
}

func procStats(datasvc data.IService, stats interface{}) {
	var err error
	switch stats := stats.(type) {
	case model.ProcessorStats:
		err = datasvc.NewProcessorStats(stats)
	case model.FramerStats:
		err = datasvc.NewFramerStats(stats)
	case model.ConsumerStats:
		err = datasvc.NewConsumerStats(stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
		return
	}

	if err != nil {
		lgr.Logger.Error(
			"failed to store stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}
