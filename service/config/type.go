package config

type IService interface {
	GetModeMaxShutdownTime() int
	GetInputFolder() string
	GetLogFolder() string
	GetMetricsAddress() string

	GetModelPath() string
	GetInferenceBackend() string
	GetArenaSize() int

	GetFrameWidth() int
	GetFrameHeight() int
	GetPixelFormat() string
	GetRotation() int
	GetFramePoolSize() int
	GetInputQueueDepth() int

	GetPoolReturn() bool
	GetForwardFrames() bool
	GetDebugMode() bool
	GetYieldDelayMillis() int
	GetProcessCore() int
	GetControlCore() int

	GetCameraSource() string
	GetFramerFPS() int
}
