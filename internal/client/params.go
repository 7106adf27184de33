package client

import (
	"context"

	"ipcam-cli/pkg/models"
)

// Parameter names as listed by param.cgi (with the root. prefix) and as
// accepted by action=update (without it).
const (
	ParamGroup       = "Image.I0"
	ParamFPS         = "Image.I0.Stream.FPS"
	ParamCompression = "Image.I0.Appearance.Compression"

	listedFPS         = "root." + ParamFPS
	listedCompression = "root." + ParamCompression
)

// GetStreamParameters lists the Image.I0 group and keeps only frame rate
// and compression. The returned fields hold exactly those two entries.
func (c *AxisClient) GetStreamParameters(ctx context.Context, ep models.CameraEndpoint) (models.StreamParameters, models.Fields, error) {
	const op = "get stream parameters"

	all, err := c.query(ctx, op, ParamPath, map[string]string{"action": "list", "group": ParamGroup}, ep)
	if err != nil {
		return models.StreamParameters{}, nil, err
	}

	fields := make(models.Fields, 2)
	for _, name := range []string{listedFPS, listedCompression} {
		if v, ok := all[name]; ok {
			fields[name] = v
		}
	}

	fps, err := number(fields, listedFPS)
	if err != nil {
		return models.StreamParameters{}, nil, &Error{Op: op, Kind: KindMalformedResponse, Err: err}
	}
	compression, err := number(fields, listedCompression)
	if err != nil {
		return models.StreamParameters{}, nil, &Error{Op: op, Kind: KindMalformedResponse, Err: err}
	}

	return models.StreamParameters{FPS: int(fps), Compression: int(compression)}, fields, nil
}

// SetStreamParameters updates frame rate and compression.
func (c *AxisClient) SetStreamParameters(ctx context.Context, fps, compression int, ep models.CameraEndpoint) error {
	form := map[string]string{
		"action":         "update",
		ParamFPS:         formatInt(fps),
		ParamCompression: formatInt(compression),
	}

	return c.update(ctx, "set stream parameters", ParamPath, form, ep)
}
