package mode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/pipeline"
	"github.com/khaledhikmat/vs-steer/service/lgr"
)

const statsPeriod = 30 * time.Second

// Run registers the steering pipeline behind a framer and a prediction
// logger. SIGUSR1 enables the gate and SIGUSR2 disables it.
func Run(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	cfgSvc := svcs.CfgSvc

	buf, backend, err := loadModel(cfgSvc.GetModelPath(), cfgSvc.GetInferenceBackend())
	if err != nil {
		return err
	}

	// Create an error stream
	errorStream := make(chan interface{})

	// Create a stats stream
	statsStream := make(chan interface{})

	queues := pipeline.Queues{
		Input:   make(chan *model.Frame, cfgSvc.GetInputQueueDepth()),
		Control: make(chan bool, 1),
		Result:  make(chan struct{}, 1),
	}
	if cfgSvc.GetForwardFrames() {
		queues.Output = make(chan *model.Frame, 1)
	}

	opts := pipeline.Options{
		PoolReturn:  cfgSvc.GetPoolReturn(),
		Model:       buf,
		ArenaSize:   cfgSvc.GetArenaSize(),
		Backend:     backend,
		Colorspace:  svcs.ColorSvc,
		Pool:        svcs.PoolSvc,
		FrameWidth:  cfgSvc.GetFrameWidth(),
		FrameHeight: cfgSvc.GetFrameHeight(),
		Rotation:    cfgSvc.GetRotation(),
		Debug:       cfgSvc.GetDebugMode(),
		YieldDelay:  time.Duration(cfgSvc.GetYieldDelayMillis()) * time.Millisecond,
		Affinity: &pipeline.CoreAffinity{
			Process: cfgSvc.GetProcessCore(),
			Control: cfgSvc.GetControlCore(),
		},
		Tracer: otel.Tracer("github.com/khaledhikmat/vs-steer/pipeline"),
	}
	if opts.Debug {
		sink := lgr.NewFileWriter(filepath.Join(cfgSvc.GetLogFolder(), "diagnostics.jsonl"), 50)
		defer sink.Close()
		opts.DebugSink = sink
	}

	pipeline.RegisterMetrics(prometheus.DefaultRegisterer)
	p, err := pipeline.Register(canxCtx, queues, opts)
	if err != nil {
		return err
	}

	metricsSrv := serveMetrics(cfgSvc.GetMetricsAddress())
	defer metricsSrv.Close()

	// Gate control from the outside world
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigChan)

	// Framers and consumers must comply with the signatures in pipeline/type.go
	framer := pipeline.NewFramer(cfgSvc.GetCameraSource())
	var consumer pipeline.Consumer = pipeline.PredictionLogger

	go framer(canxCtx, svcs, queues.Input, errorStream, statsStream)
	go consumer(canxCtx, svcs, p, queues, errorStream, statsStream)

	ticker := time.NewTicker(statsPeriod)
	defer ticker.Stop()

	// Wait for cancellation, gate signals, stats or errors
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"run mode context cancelled",
			)
			goto resume

		case sig := <-sigChan:
			enabled := sig == syscall.SIGUSR1
			lgr.Logger.Info(
				"gate signal received",
				slog.Any("signal", sig),
				slog.Bool("enabled", enabled),
			)
			queues.Control <- enabled

		case <-ticker.C:
			procStats(svcs.DataSvc, p.Stats())
			lgr.Logger.Debug(
				"frame pool",
				slog.Any("stats", svcs.PoolSvc.Stats()),
			)

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

	// Wait in a non-blocking way for all the go routines to exit
	// This is needed because the go routines may need to report stats as they are exiting
resume:
	lgr.Logger.Info(
		"run mode is waiting for all go routines to exit",
	)

	pipelineDone := make(chan error, 1)
	go func() {
		pipelineDone <- p.Wait()
	}()

	timer := time.NewTimer(time.Duration(cfgSvc.GetModeMaxShutdownTime()) * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			// Timer expired, proceed with shutdown
			lgr.Logger.Info(
				"run mode shutdown waiting period expired. Exiting now",
				slog.Duration("period", time.Duration(cfgSvc.GetModeMaxShutdownTime())*time.Second),
			)
			return nil

		case err := <-pipelineDone:
			if err != nil {
				procError(svcs.DataSvc, model.GenError("run_mode",
					err,
					map[string]interface{}{"pipeline": p.ID()},
					"error closing pipeline"))
			}
			procStats(svcs.DataSvc, p.Stats())

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Logger.Error(
				"metrics server exited",
				slog.String("address", addr),
				slog.Any("error", err),
			)
		}
	}()

	return srv
}
