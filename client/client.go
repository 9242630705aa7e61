// Package client provides a client for the DevTools HTTP endpoints of a
// Chromium Edge browser started with a remote debugging port.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mailru/easyjson"
)

const (
	// DefaultEndpoint is the default endpoint to connect to.
	DefaultEndpoint = "http://localhost:9222/json"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// Error is a client error.
type Error string

// Error satisfies the error interface.
func (err Error) Error() string {
	return string(err)
}

const (
	// ErrNoWebsocketURL is the error returned when the browser does not
	// advertise a websocket debugger URL.
	ErrNoWebsocketURL Error = "no websocket debugger url"
)

// Client is a DevTools HTTP client.
type Client struct {
	url     string
	timeout time.Duration
	cl      *http.Client
}

// New creates a new DevTools HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		url:     DefaultEndpoint,
		timeout: DefaultTimeout,
	}

	// apply opts
	for _, o := range opts {
		o(c)
	}

	c.cl = &http.Client{Timeout: c.timeout}
	return c
}

// Endpoint returns the endpoint the client talks to.
func (c *Client) Endpoint() string {
	return c.url
}

// doReq executes a request.
func (c *Client) doReq(ctx context.Context, method, action string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.url+"/"+action, nil)
	if err != nil {
		return err
	}

	res, err := c.cl.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: %s: %s", method, action, res.Status, strings.TrimSpace(string(body)))
	}
	if v == nil {
		return nil
	}

	// unmarshal
	if z, ok := v.(easyjson.Unmarshaler); ok {
		return easyjson.Unmarshal(body, z)
	}
	return json.Unmarshal(body, v)
}

// ListTargets returns a list of all targets.
func (c *Client) ListTargets(ctx context.Context) ([]*Target, error) {
	var l []*Target
	if err := c.doReq(ctx, http.MethodGet, "list", &l); err != nil {
		return nil, err
	}
	return l, nil
}

// ListTargetsWithType returns a list of Targets with the specified target
// type.
func (c *Client) ListTargetsWithType(ctx context.Context, typ TargetType) ([]*Target, error) {
	targets, err := c.ListTargets(ctx)
	if err != nil {
		return nil, err
	}

	var ret []*Target
	for _, t := range targets {
		if t.Type == typ {
			ret = append(ret, t)
		}
	}
	return ret, nil
}

// ListPageTargets lists the available Page targets.
func (c *Client) ListPageTargets(ctx context.Context) ([]*Target, error) {
	return c.ListTargetsWithType(ctx, Page)
}

// NewPageTarget opens a new page target at urlstr. Newer browsers only
// accept the request with PUT.
func (c *Client) NewPageTarget(ctx context.Context, urlstr string) (*Target, error) {
	u := "new"
	if urlstr != "" {
		u += "?" + urlstr
	}
	t := new(Target)
	if err := c.doReq(ctx, http.MethodPut, u, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ActivateTarget activates a target.
func (c *Client) ActivateTarget(ctx context.Context, t *Target) error {
	return c.doReq(ctx, http.MethodGet, "activate/"+t.ID, nil)
}

// CloseTarget closes a target.
func (c *Client) CloseTarget(ctx context.Context, t *Target) error {
	return c.doReq(ctx, http.MethodGet, "close/"+t.ID, nil)
}

// VersionInfo returns information about the browser and the remote
// debugging protocol, keyed as sent ("Browser", "Protocol-Version",
// "webSocketDebuggerUrl", ...).
func (c *Client) VersionInfo(ctx context.Context) (map[string]string, error) {
	v := make(map[string]string)
	if err := c.doReq(ctx, http.MethodGet, "version", &v); err != nil {
		return nil, err
	}
	return v, nil
}

// BrowserWebsocketURL returns the websocket URL of the browser target.
func (c *Client) BrowserWebsocketURL(ctx context.Context) (string, error) {
	v, err := c.VersionInfo(ctx)
	if err != nil {
		return "", err
	}
	u := v["webSocketDebuggerUrl"]
	if u == "" {
		return "", ErrNoWebsocketURL
	}
	return u, nil
}

// Option is a DevTools HTTP client option.
type Option func(*Client)

// URL is a client option to specify the remote DevTools endpoint to connect
// to. A bare "host:port" debugger address is accepted.
func URL(urlstr string) Option {
	return func(c *Client) {
		if !strings.Contains(urlstr, "://") {
			urlstr = "http://" + urlstr
		}
		if !strings.HasSuffix(strings.TrimSuffix(urlstr, "/"), "/json") {
			urlstr = strings.TrimSuffix(urlstr, "/") + "/json"
		}
		// since chrome 66+, dev tools requires the host name to be either an
		// IP address, or "localhost"
		if strings.HasPrefix(strings.ToLower(urlstr), "http://") {
			host, port, path := urlstr[7:], "", ""
			if i := strings.Index(host, "/"); i != -1 {
				host, path = host[:i], host[i:]
			}
			if i := strings.Index(host, ":"); i != -1 {
				host, port = host[:i], host[i:]
			}
			if addr, err := net.ResolveIPAddr("ip", host); err == nil {
				urlstr = "http://" + addr.IP.String() + port + path
			}
		}
		c.url = urlstr
	}
}

// Timeout is a client option that specifies the request timeout.
func Timeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}
