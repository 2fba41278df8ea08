package config

type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return 5
}

func (svc *hardcodedService) GetInputFolder() string {
	return "./settings"
}

func (svc *hardcodedService) GetLogFolder() string {
	return "./logs"
}

func (svc *hardcodedService) GetMetricsAddress() string {
	return ":9090"
}

func (svc *hardcodedService) GetModelPath() string {
	return "./models/pilotnet.tflite"
}

func (svc *hardcodedService) GetInferenceBackend() string {
	return "dnn"
}

func (svc *hardcodedService) GetArenaSize() int {
	// 256KB for tensors plus 1MB of kernel scratch space
	return 256*1024 + 1024*1024
}

func (svc *hardcodedService) GetFrameWidth() int {
	return 96
}

func (svc *hardcodedService) GetFrameHeight() int {
	return 96
}

func (svc *hardcodedService) GetPixelFormat() string {
	return "rgb565"
}

func (svc *hardcodedService) GetRotation() int {
	return 0
}

func (svc *hardcodedService) GetFramePoolSize() int {
	return 2
}

func (svc *hardcodedService) GetInputQueueDepth() int {
	return 2
}

func (svc *hardcodedService) GetPoolReturn() bool {
	return true
}

func (svc *hardcodedService) GetForwardFrames() bool {
	return false
}

func (svc *hardcodedService) GetDebugMode() bool {
	return false
}

func (svc *hardcodedService) GetYieldDelayMillis() int {
	return 10
}

func (svc *hardcodedService) GetProcessCore() int {
	return 0
}

func (svc *hardcodedService) GetControlCore() int {
	return 1
}

func (svc *hardcodedService) GetCameraSource() string {
	return "random"
}

func (svc *hardcodedService) GetFramerFPS() int {
	return 15
}
