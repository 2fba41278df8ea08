package inference

import (
	"encoding/binary"
	"image"
	"math"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"
)

// dnnBackend runs the model through OpenCV's dnn module. OpenCV works on
// float blobs, so quantized views are dequantized on the way in and
// requantized on the way out.
type dnnBackend struct {
	net gocv.Net
}

// NewDNN loads the model through a temporary .tflite file; OpenCV picks the
// importer from the file extension.
func NewDNN(model []byte, _ *Schema) (Backend, error) {
	path, err := stageModel(model)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	net := gocv.ReadNet(path, "")
	if net.Empty() {
		return nil, xerrors.New("error reading model: empty network")
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting target: %w", err)
	}

	return &dnnBackend{net: net}, nil
}

func (b *dnnBackend) Invoke(in, out *TensorView) error {
	h, w, c := in.Height(), in.Width(), in.Channels()
	mt, ok := floatMatType(c)
	if !ok {
		return xerrors.Errorf("unsupported input channels: %d", c)
	}

	img, err := gocv.NewMatFromBytes(h, w, mt, float32Bytes(dequantizeAll(in)))
	if err != nil {
		return xerrors.Errorf("error building input mat: %w", err)
	}
	defer img.Close()

	blob := gocv.BlobFromImage(img, 1.0, image.Pt(w, h), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	b.net.SetInput(blob, "")
	res := b.net.Forward("")
	defer res.Close()

	data, err := res.DataPtrFloat32()
	if err != nil {
		return xerrors.Errorf("error reading output: %w", err)
	}
	return quantizeInto(out, data)
}

func (b *dnnBackend) Close() error {
	return b.net.Close()
}

func stageModel(model []byte) (string, error) {
	f, err := os.CreateTemp("", "model-*.tflite")
	if err != nil {
		return "", xerrors.Errorf("error staging model: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(model); err != nil {
		os.Remove(f.Name())
		return "", xerrors.Errorf("error staging model: %w", err)
	}
	return f.Name(), nil
}

func floatMatType(channels int) (gocv.MatType, bool) {
	switch channels {
	case 1:
		return gocv.MatTypeCV32FC1, true
	case 3:
		return gocv.MatTypeCV32FC3, true
	}
	return 0, false
}

func dequantizeAll(t *TensorView) []float32 {
	out := make([]float32, t.Elements())
	for i := range out {
		out[i] = float32(t.Float(i))
	}
	return out
}

func quantizeInto(t *TensorView, values []float32) error {
	n := t.Elements()
	if len(values) < n {
		return xerrors.Errorf("network produced %d values, output tensor holds %d", len(values), n)
	}
	for i := 0; i < n; i++ {
		t.SetFloat(i, float64(values[i]))
	}
	return nil
}

func float32Bytes(values []float32) []byte {
	b := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}
