package client

import (
	"context"

	"ipcam-cli/pkg/models"
)

// GetPosition reads the current pan, tilt and zoom.
func (c *AxisClient) GetPosition(ctx context.Context, ep models.CameraEndpoint) (models.Position, error) {
	const op = "get position"

	fields, err := c.query(ctx, op, PTZPath, map[string]string{"query": "position"}, ep)
	if err != nil {
		return models.Position{}, err
	}

	pos := models.Position{Fields: fields}
	for name, dst := range map[string]*float64{"pan": &pos.Pan, "tilt": &pos.Tilt, "zoom": &pos.Zoom} {
		if *dst, err = number(fields, name); err != nil {
			return models.Position{}, &Error{Op: op, Kind: KindMalformedResponse, Err: err}
		}
	}

	return pos, nil
}

// GetLimits reads the operating range of the three axes.
func (c *AxisClient) GetLimits(ctx context.Context, ep models.CameraEndpoint) (models.Limits, error) {
	const op = "get limits"

	fields, err := c.query(ctx, op, PTZPath, map[string]string{"query": "limits"}, ep)
	if err != nil {
		return models.Limits{}, err
	}

	var l models.Limits
	bounds := map[string]*float64{
		"MinPan": &l.Pan.Min, "MaxPan": &l.Pan.Max,
		"MinTilt": &l.Tilt.Min, "MaxTilt": &l.Tilt.Max,
		"MinZoom": &l.Zoom.Min, "MaxZoom": &l.Zoom.Max,
	}
	for name, dst := range bounds {
		if *dst, err = number(fields, name); err != nil {
			return models.Limits{}, &Error{Op: op, Kind: KindMalformedResponse, Err: err}
		}
	}

	return l, nil
}

// SetPosition moves the camera to an absolute position. Values are sent as
// given; range checking is the caller's job.
func (c *AxisClient) SetPosition(ctx context.Context, pan, tilt, zoom float64, ep models.CameraEndpoint) error {
	form := map[string]string{
		"camera":        "1",
		"imagerotation": "0",
		"pan":           formatFloat(pan),
		"tilt":          formatFloat(tilt),
		"zoom":          formatFloat(zoom),
	}

	return c.update(ctx, "set position", PTZPath, form, ep)
}
