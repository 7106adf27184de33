package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"ipcam-cli/pkg/models"
)

// CGI paths of the VAPIX control API
const (
	PTZPath   = "/axis-cgi/com/ptz.cgi"
	ParamPath = "/axis-cgi/param.cgi"
)

// DefaultTimeout bounds every query (position, limits, parameter list).
const DefaultTimeout = 3 * time.Second

// AxisClient issues one-shot, digest-authenticated requests against a
// camera's CGI endpoints. It holds no per-camera state: the endpoint is
// passed on every call.
type AxisClient struct {
	Config ClientConfig
	log    zerolog.Logger
	now    func() time.Time
}

type ClientConfig struct {
	Scheme       string        // "http" unless the camera is fronted by TLS
	Timeout      time.Duration // queries; DefaultTimeout when zero
	SetTimeout   time.Duration // updates; zero leaves them unbounded
	StrictStatus bool          // fail updates on non-2xx replies
	Logger       zerolog.Logger
}

func New(cfg ClientConfig) *AxisClient {
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &AxisClient{
		Config: cfg,
		log:    cfg.Logger.With().Str("component", "axis-client").Logger(),
		now:    time.Now,
	}
}

// request builds a resty request for one endpoint. Digest credentials are
// client-scoped in resty, so each call gets its own client.
func (c *AxisClient) request(ctx context.Context, ep models.CameraEndpoint) *resty.Request {
	r := resty.New().
		SetBaseURL(fmt.Sprintf("%s://%s", c.Config.Scheme, ep.Address)).
		SetDigestAuth(ep.Username, ep.Password).
		SetHeader("Accept", "text/plain")

	return r.R().SetContext(ctx)
}

// query posts form to path and parses the reply. Used by every getter.
func (c *AxisClient) query(ctx context.Context, op, path string, form map[string]string, ep models.CameraEndpoint) (models.Fields, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Config.Timeout)
	defer cancel()

	resp, err := c.request(ctx, ep).
		SetFormData(form).
		Post(path)

	if err != nil {
		return nil, newError(op, err)
	}

	if resp.IsError() {
		return nil, &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("camera replied %s", resp.Status())}
	}

	fields, err := ParseFields(resp.String())
	if err != nil {
		return nil, &Error{Op: op, Kind: KindMalformedResponse, Err: err}
	}

	c.log.Debug().Str("op", op).Str("address", ep.Address).Int("fields", len(fields)).Msg("query ok")
	return fields, nil
}

// update posts an html=no/timestamp form. The reply body carries nothing
// useful; only the transport outcome matters unless StrictStatus is set.
func (c *AxisClient) update(ctx context.Context, op, path string, form map[string]string, ep models.CameraEndpoint) error {
	if c.Config.SetTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Config.SetTimeout)
		defer cancel()
	}

	form["html"] = "no"
	form["timestamp"] = strconv.FormatInt(c.now().Unix(), 10)

	resp, err := c.request(ctx, ep).
		SetFormData(form).
		Post(path)

	if err != nil {
		return newError(op, err)
	}

	if c.Config.StrictStatus && resp.IsError() {
		return &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("camera replied %s", resp.Status())}
	}

	c.log.Debug().Str("op", op).Str("address", ep.Address).Int("status", resp.StatusCode()).Msg("update sent")
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}
