package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"ipcam-cli/pkg/models"
)

// ErrUnsupportedFrame is returned for rasters that are not 8-bit gray, BGR
// or BGRA, or whose data does not match their size.
var ErrUnsupportedFrame = errors.New("capture: unsupported frame layout")

// checkFrame returns the Mat type for f. Zero channels means BGR.
func checkFrame(f models.Frame) (gocv.MatType, int, error) {
	ch := f.Channels
	if ch == 0 {
		ch = 3
	}

	var mt gocv.MatType
	switch ch {
	case 1:
		mt = gocv.MatTypeCV8UC1
	case 3:
		mt = gocv.MatTypeCV8UC3
	case 4:
		mt = gocv.MatTypeCV8UC4
	default:
		return 0, 0, fmt.Errorf("%w: %d channels", ErrUnsupportedFrame, f.Channels)
	}

	if f.Width <= 0 || f.Height <= 0 || len(f.Data) != f.Width*f.Height*ch {
		return 0, 0, fmt.Errorf("%w: %d bytes for %dx%dx%d", ErrUnsupportedFrame, len(f.Data), f.Width, f.Height, ch)
	}
	return mt, ch, nil
}

// BGRMat wraps f in a 3-channel BGR Mat, converting gray and BGRA rasters.
// The caller closes the result.
func BGRMat(f models.Frame) (gocv.Mat, error) {
	mt, ch, err := checkFrame(f)
	if err != nil {
		return gocv.Mat{}, err
	}

	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, mt, f.Data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("capture: wrap frame %d: %w", f.Seq, err)
	}
	if ch == 3 {
		return mat, nil
	}
	defer mat.Close()

	code := gocv.ColorGrayToBGR
	if ch == 4 {
		code = gocv.ColorBGRAToBGR
	}
	bgr := gocv.NewMat()
	gocv.CvtColor(mat, &bgr, code)
	return bgr, nil
}
