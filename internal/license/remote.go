package license

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/errs"
)

// Remote bind/check verdicts.
const (
	BindOK        = "ok"
	BindInvalid   = "invalid"
	BindElsewhere = "bound_elsewhere"
	BindRevoked   = "revoked"
)

type BindResult struct {
	Status    string `json:"status"`
	ExpiresAt int64  `json:"expires_at"`
	Message   string `json:"message"`
}

// RemoteAuthority is the vendor-side license service. Calls are synchronous
// with a bounded timeout; a transport failure surfaces as
// errs.RemoteUnreachable so the gatekeeper can degrade to cached state.
type RemoteAuthority interface {
	Bind(ctx context.Context, key, hardwareID string) (*BindResult, error)
	Check(ctx context.Context, key, hardwareID string) (*BindResult, error)
}

type Authority struct {
	client *resty.Client
}

func NewAuthority(baseURL string, timeout time.Duration) *Authority {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Authority{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
	}
}

func (a *Authority) Bind(ctx context.Context, key, hardwareID string) (*BindResult, error) {
	return a.post(ctx, "/v1/licenses/bind", key, hardwareID)
}

func (a *Authority) Check(ctx context.Context, key, hardwareID string) (*BindResult, error) {
	return a.post(ctx, "/v1/licenses/check", key, hardwareID)
}

func (a *Authority) post(ctx context.Context, path, key, hardwareID string) (*BindResult, error) {
	var result BindResult
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"key": key, "hardware_id": hardwareID}).
		SetResult(&result).
		SetError(&result).
		Post(path)
	if err != nil {
		return nil, errors.Wrap(errs.RemoteUnreachable, err.Error())
	}
	if resp.StatusCode() >= 500 || result.Status == "" {
		return nil, errors.Wrapf(errs.RemoteUnreachable, "authority returned %d", resp.StatusCode())
	}
	return &result, nil
}
