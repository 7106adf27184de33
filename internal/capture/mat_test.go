package capture

import (
	"errors"
	"testing"

	"ipcam-cli/pkg/models"
)

func TestCheckFrame(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		size     int
		wantErr  bool
	}{
		{"bgr", 3, 4 * 2 * 3, false},
		{"unset channels is bgr", 0, 4 * 2 * 3, false},
		{"gray", 1, 4 * 2, false},
		{"bgra", 4, 4 * 2 * 4, false},
		{"two channels", 2, 4 * 2 * 2, true},
		{"short data", 3, 4 * 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := models.Frame{Width: 4, Height: 2, Channels: tt.channels, Data: make([]byte, tt.size)}
			_, _, err := checkFrame(f)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnsupportedFrame) {
				t.Errorf("checkFrame() error = %v, want ErrUnsupportedFrame", err)
			}
		})
	}
}

func TestBGRMat_RejectsBeforeWrapping(t *testing.T) {
	_, err := BGRMat(models.Frame{Width: 4, Height: 2, Channels: 2, Data: make([]byte, 16)})
	if !errors.Is(err, ErrUnsupportedFrame) {
		t.Errorf("BGRMat() error = %v, want ErrUnsupportedFrame", err)
	}
}
