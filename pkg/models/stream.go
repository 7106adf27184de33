package models

import "time"

// StreamParameters are the Image.I0 settings exposed to the user.
type StreamParameters struct {
	FPS         int `json:"fps"`
	Compression int `json:"compression"`
}

// Frame is a single decoded BGR raster. It has no identity beyond its
// sequence number and is handed off once.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	Channels  int
	Data      []byte
}
