package capture

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"ipcam-cli/pkg/models"
)

// gocvSource decodes an RTSP stream with OpenCV's FFmpeg backend.
type gocvSource struct {
	cap    *gocv.VideoCapture
	img    gocv.Mat
	width  int
	height int
}

// OpenGoCV is the production Opener.
func OpenGoCV(_ context.Context, uri string) (Source, error) {
	cap, err := gocv.OpenVideoCaptureWithAPI(uri, gocv.VideoCaptureFFmpeg)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("capture not opened")
	}

	return &gocvSource{
		cap:    cap,
		img:    gocv.NewMat(),
		width:  int(cap.Get(gocv.VideoCaptureFrameWidth)),
		height: int(cap.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

func (s *gocvSource) Read(f *models.Frame) error {
	if ok := s.cap.Read(&s.img); !ok || s.img.Empty() {
		return ErrNoFrame
	}

	// ToBytes copies, so the frame owns its raster once handed off.
	f.Width = s.img.Cols()
	f.Height = s.img.Rows()
	f.Channels = s.img.Channels()
	f.Data = s.img.ToBytes()
	return nil
}

func (s *gocvSource) Size() (int, int) {
	return s.width, s.height
}

func (s *gocvSource) Close() error {
	err := s.img.Close()
	if cerr := s.cap.Close(); cerr != nil {
		return cerr
	}
	return err
}
