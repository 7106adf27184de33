package preview

import (
	"fmt"

	"gocv.io/x/gocv"

	"ipcam-cli/internal/capture"
	"ipcam-cli/pkg/models"
)

// EncodeJPEG compresses a frame. Gray and BGRA rasters are converted to BGR.
func EncodeJPEG(f models.Frame) ([]byte, error) {
	mat, err := capture.BGRMat(f)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", f.Seq, err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
