// Package vendoclient is the HTTP SDK used by slot controllers and captive
// portals to talk to a vendo server.
package vendoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vendo-org/vendo/pkg/retrypolicy"
)

type Client struct {
	baseURL  string
	deviceID string
	http     *http.Client
}

func New(baseURL, deviceID string, hc *http.Client) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, deviceID: deviceID, http: hc}
}

// AcquireLock claims a slot before reporting a credit. A busy slot comes
// back as *SlotBusyError with the server's retry hint.
func (c *Client) AcquireLock(ctx context.Context, slotID, owner string) (*Lock, error) {
	if slotID == "" {
		return nil, fmt.Errorf("slotID required")
	}
	var out Lock
	code, retryAfter, raw, err := c.doJSON(ctx, http.MethodPost, "/api/lock/acquire",
		map[string]string{"slot_id": slotID, "owner": owner}, &out)
	if err != nil {
		return nil, err
	}
	switch code {
	case http.StatusOK:
		return &out, nil
	case http.StatusConflict:
		return nil, &SlotBusyError{SlotID: slotID, RetryAfter: retryAfter}
	}
	return nil, &UnexpectedStatusError{Method: http.MethodPost, Path: "/api/lock/acquire", Code: code, Body: raw}
}

// ReleaseLock is safe to call twice; the server treats a missing lock as a
// no-op.
func (c *Client) ReleaseLock(ctx context.Context, slotID, lockID string) error {
	code, _, raw, err := c.doJSON(ctx, http.MethodPost, "/api/lock/release",
		map[string]string{"slot_id": slotID, "lock_id": lockID}, nil)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return &UnexpectedStatusError{Method: http.MethodPost, Path: "/api/lock/release", Code: code, Body: raw}
	}
	return nil
}

// ReportCredit reports a paid amount. Grant.Refund set on a non-2xx outcome
// tells the coin layer to give the money back.
func (c *Client) ReportCredit(ctx context.Context, report CreditReport) (*CreditGrant, error) {
	var out CreditGrant
	code, retryAfter, raw, err := c.doJSON(ctx, http.MethodPost, "/api/credit", report, &out)
	if err != nil {
		return nil, err
	}
	switch code {
	case http.StatusOK:
		return &out, nil
	case http.StatusConflict:
		return &CreditGrant{Refund: true}, &SlotBusyError{SlotID: report.SlotID, RetryAfter: retryAfter}
	case http.StatusUnprocessableEntity, http.StatusForbidden:
		return &CreditGrant{Refund: true}, fmt.Errorf("credit rejected: %s", raw)
	}
	return nil, &UnexpectedStatusError{Method: http.MethodPost, Path: "/api/credit", Code: code, Body: raw}
}

// Restore reattaches a stored token to its session. 503 maps to
// *UnresolvableError (keep the token, retry); 404 maps to ErrTokenGone
// (discard the token).
func (c *Client) Restore(ctx context.Context, token, clientID string) (*RestoreResult, error) {
	var out RestoreResult
	code, retryAfter, raw, err := c.doJSON(ctx, http.MethodPost, "/api/session/restore",
		map[string]string{"token": token, "client_id": clientID}, &out)
	if err != nil {
		return nil, err
	}
	switch code {
	case http.StatusOK:
		return &out, nil
	case http.StatusServiceUnavailable:
		return nil, &UnresolvableError{RetryAfter: retryAfter}
	case http.StatusNotFound:
		return nil, ErrTokenGone
	}
	return nil, &UnexpectedStatusError{Method: http.MethodPost, Path: "/api/session/restore", Code: code, Body: raw}
}

// RestoreWithRetry re-resolves the client identity and retries restoration
// under the bounded policy. Only transient outcomes are retried; ErrTokenGone
// is terminal.
func (c *Client) RestoreWithRetry(ctx context.Context, token string,
	resolve func(context.Context) (string, error), pol retrypolicy.Policy) (*RestoreResult, error) {
	var out *RestoreResult
	err := pol.Do(ctx, func() error {
		clientID, err := resolve(ctx)
		if err != nil {
			return &UnresolvableError{}
		}
		out, err = c.Restore(ctx, token, clientID)
		return err
	}, func(err error) bool {
		var unres *UnresolvableError
		return errors.As(err, &unres)
	})
	return out, err
}

// LicenseStatus reads the gate state, mostly for controller diagnostics.
func (c *Client) LicenseStatus(ctx context.Context) (*LicenseStatus, error) {
	var out LicenseStatus
	code, _, raw, err := c.doJSON(ctx, http.MethodGet, "/api/license/status", nil, &out)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, &UnexpectedStatusError{Method: http.MethodGet, Path: "/api/license/status", Code: code, Body: raw}
	}
	return &out, nil
}

// envelope is the server's response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doJSON sends JSON and decodes the enveloped response into out. It returns
// the status code, any Retry-After hint, and the raw body for diagnostics.
func (c *Client) doJSON(ctx context.Context, method, path string, req any, out any) (int, time.Duration, string, error) {
	var body io.Reader
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return 0, 0, "", err
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, 0, "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.deviceID != "" {
		httpReq.Header.Set("X-Device-ID", c.deviceID)
	}

	rsp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, 0, "", err
	}
	defer rsp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(rsp.Body, 1<<20))
	trimmed := strings.TrimSpace(string(raw))

	retryAfter := time.Second
	if v := rsp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
	}

	if out != nil && len(raw) > 0 {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, out)
		}
	}
	return rsp.StatusCode, retryAfter, trimmed, nil
}
