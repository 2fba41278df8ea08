package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-steer/mode"
	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/pipeline"
	"github.com/khaledhikmat/vs-steer/service/colorspace"
	"github.com/khaledhikmat/vs-steer/service/config"
	"github.com/khaledhikmat/vs-steer/service/data"
	"github.com/khaledhikmat/vs-steer/service/framepool"
	"github.com/khaledhikmat/vs-steer/service/lgr"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"run":     mode.Run,
	"inspect": mode.Inspect,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil {
			lgr.Logger.Warn("no .env file loaded", slog.Any("error", xerrors.New(err.Error())))
		}
	}

	modeType := "run"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	// Config service
	cfgSvc := config.NewEnv()

	// Re-create the logger now that the log folder is known
	logOpts := lgr.EnvOptions()
	logOpts.File = filepath.Join(cfgSvc.GetLogFolder(), "steer.log")
	lgr.Init(logOpts)

	// Colorspace service
	colorSvc, err := colorspace.NewOpenCV(cfgSvc.GetRotation())
	if err != nil {
		lgr.Logger.Error("invalid rotation", slog.Int("rotation", cfgSvc.GetRotation()), slog.Any("error", err))
		panic("invalid rotation")
	}

	svcs := pipeline.ServicesFactory{
		CfgSvc:  cfgSvc,
		DataSvc: data.NewFilesDB(cfgSvc),
		// Frame pool service
		PoolSvc: framepool.NewFixed(cfgSvc.GetFramePoolSize(),
			cfgSvc.GetFrameWidth(),
			cfgSvc.GetFrameHeight(),
			model.PixelFormat(cfgSvc.GetPixelFormat())),
		ColorSvc: colorSvc,
	}

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	// Wait for cancellation or mode proc
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"steer context cancelled",
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Error(
				"steer mode processor exited",
				slog.String("mode", modeType),
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
		canxFn()
		return
	}

	lgr.Logger.Info(
		"steer is waiting for the mode processor to exit",
	)

	// The only way to exit the main function is to wait for the shutdown
	// duration or for the mode processor to return
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"steer shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"steer mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
	}
}
