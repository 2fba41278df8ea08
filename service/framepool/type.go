package framepool

import (
	"context"

	"github.com/khaledhikmat/vs-steer/model"
	"golang.org/x/xerrors"
)

var ErrNotOwned = xerrors.New("frame is not checked out from this pool")

type Stats struct {
	Size        int `json:"size"`
	Available   int `json:"available"`
	Outstanding int `json:"outstanding"`
	Returns     int `json:"returns"`
	Frees       int `json:"frees"`
	Lost        int `json:"lost"`
}

// IService is the capture side's buffer pool. Get blocks until a buffer is
// free, which is how a slow pipeline pushes back on the camera.
type IService interface {
	Get(ctx context.Context) (*model.Frame, error)
	Return(f *model.Frame) error
	Free(f *model.Frame)
	Stats() Stats
}
