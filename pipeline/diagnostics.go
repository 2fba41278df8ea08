package pipeline

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/khaledhikmat/vs-steer/service/inference"
)

const dumpQueueDepth = 4

type dumpFormat struct {
	Height   int    `json:"height"`
	Width    int    `json:"width"`
	Channels int    `json:"channels"`
	Model    string `json:"model"`
}

type dumpRecord struct {
	Format      dumpFormat `json:"format"`
	Framebuffer string     `json:"framebuffer"`
}

// Dumper writes prepared input tensors to a sink, one JSON line each. It never
// blocks the caller: records that do not fit in the queue are dropped.
type Dumper struct {
	model   string
	records chan dumpRecord
	dropped atomic.Int64
	written atomic.Int64
	wg      sync.WaitGroup
	logger  *slog.Logger
}

func NewDumper(w io.Writer, modelName string, logger *slog.Logger) *Dumper {
	d := &Dumper{
		model:   modelName,
		records: make(chan dumpRecord, dumpQueueDepth),
		logger:  logger,
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		enc := json.NewEncoder(w)
		for rec := range d.records {
			if err := enc.Encode(rec); err != nil {
				d.logger.Warn("diagnostic dump write failed", slog.Any("error", err))
				continue
			}
			d.written.Add(1)
		}
	}()

	return d
}

// Dump queues a copy of t and reports whether it was accepted.
func (d *Dumper) Dump(t *inference.TensorView) bool {
	rec := dumpRecord{
		Format: dumpFormat{
			Height:   t.Height(),
			Width:    t.Width(),
			Channels: t.Channels(),
			Model:    d.model,
		},
		Framebuffer: base64.StdEncoding.EncodeToString(t.Bytes()),
	}

	select {
	case d.records <- rec:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

func (d *Dumper) Dropped() int64 { return d.dropped.Load() }
func (d *Dumper) Written() int64 { return d.written.Load() }

// Close flushes queued records. Dump must not be called afterwards.
func (d *Dumper) Close() {
	close(d.records)
	d.wg.Wait()
}
