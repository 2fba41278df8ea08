package config

import (
	"os"
	"strconv"
	"strings"
)

// envService reads STEER_* variables and falls back to the hardcoded defaults.
type envService struct {
	defaults IService
}

func NewEnv() IService {
	return &envService{
		defaults: NewHardCoded(),
	}
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return envInt("STEER_SHUTDOWN_SECONDS", svc.defaults.GetModeMaxShutdownTime())
}

func (svc *envService) GetInputFolder() string {
	return envString("STEER_INPUT_FOLDER", svc.defaults.GetInputFolder())
}

func (svc *envService) GetLogFolder() string {
	return envString("STEER_LOG_FOLDER", svc.defaults.GetLogFolder())
}

func (svc *envService) GetMetricsAddress() string {
	return envString("STEER_METRICS_ADDRESS", svc.defaults.GetMetricsAddress())
}

func (svc *envService) GetModelPath() string {
	return envString("STEER_MODEL_PATH", svc.defaults.GetModelPath())
}

func (svc *envService) GetInferenceBackend() string {
	return strings.ToLower(envString("STEER_INFERENCE_BACKEND", svc.defaults.GetInferenceBackend()))
}

func (svc *envService) GetArenaSize() int {
	return envInt("STEER_ARENA_SIZE", svc.defaults.GetArenaSize())
}

func (svc *envService) GetFrameWidth() int {
	return envInt("STEER_FRAME_WIDTH", svc.defaults.GetFrameWidth())
}

func (svc *envService) GetFrameHeight() int {
	return envInt("STEER_FRAME_HEIGHT", svc.defaults.GetFrameHeight())
}

func (svc *envService) GetPixelFormat() string {
	return strings.ToLower(envString("STEER_PIXEL_FORMAT", svc.defaults.GetPixelFormat()))
}

func (svc *envService) GetRotation() int {
	return envInt("STEER_ROTATION", svc.defaults.GetRotation())
}

func (svc *envService) GetFramePoolSize() int {
	return envInt("STEER_FRAME_POOL_SIZE", svc.defaults.GetFramePoolSize())
}

func (svc *envService) GetInputQueueDepth() int {
	return envInt("STEER_INPUT_QUEUE_DEPTH", svc.defaults.GetInputQueueDepth())
}

func (svc *envService) GetPoolReturn() bool {
	return envBool("STEER_POOL_RETURN", svc.defaults.GetPoolReturn())
}

func (svc *envService) GetForwardFrames() bool {
	return envBool("STEER_FORWARD_FRAMES", svc.defaults.GetForwardFrames())
}

func (svc *envService) GetDebugMode() bool {
	return envBool("STEER_DEBUG", svc.defaults.GetDebugMode())
}

func (svc *envService) GetYieldDelayMillis() int {
	return envInt("STEER_YIELD_DELAY_MS", svc.defaults.GetYieldDelayMillis())
}

func (svc *envService) GetProcessCore() int {
	return envInt("STEER_PROCESS_CORE", svc.defaults.GetProcessCore())
}

func (svc *envService) GetControlCore() int {
	return envInt("STEER_CONTROL_CORE", svc.defaults.GetControlCore())
}

func (svc *envService) GetCameraSource() string {
	return envString("STEER_CAMERA_SOURCE", svc.defaults.GetCameraSource())
}

func (svc *envService) GetFramerFPS() int {
	return envInt("STEER_FRAMER_FPS", svc.defaults.GetFramerFPS())
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Unparseable values fall back to the default.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}
