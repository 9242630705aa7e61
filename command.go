package edgedriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mailru/easyjson"
)

// Vendor command names.
const (
	CommandLaunchApp               = "launchApp"
	CommandGetNetworkConditions    = "getNetworkConditions"
	CommandSetNetworkConditions    = "setNetworkConditions"
	CommandDeleteNetworkConditions = "deleteNetworkConditions"
	CommandExecuteCDP              = "executeCdpCommand"
)

// commandInfo is the HTTP method and path template of a command.
type commandInfo struct {
	method string
	path   string
}

// edgeCommands are the commands understood by the Edge driver services that
// the standard WebDriver client does not know about.
var edgeCommands = map[string]commandInfo{
	CommandLaunchApp:               {http.MethodPost, "/session/:sessionId/chromium/launch_app"},
	CommandGetNetworkConditions:    {http.MethodGet, "/session/:sessionId/chromium/network_conditions"},
	CommandSetNetworkConditions:    {http.MethodPost, "/session/:sessionId/chromium/network_conditions"},
	CommandDeleteNetworkConditions: {http.MethodDelete, "/session/:sessionId/chromium/network_conditions"},
	CommandExecuteCDP:              {http.MethodPost, "/session/:sessionId/ms/cdp/execute"},
}

// executor sends vendor commands to a driver service.
type executor struct {
	url    string
	client *http.Client
	debugf LogFunc
}

func newExecutor(serviceURL string, keepAlive bool, debugf LogFunc) *executor {
	return &executor{
		url: strings.TrimSuffix(serviceURL, "/"),
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: !keepAlive,
			},
		},
		debugf: debugf,
	}
}

// reply is a command response body. Status is only set by legacy JSON wire
// protocol services.
type reply struct {
	Status *int            `json:"status"`
	Value  json.RawMessage `json:"value"`
}

// execute runs the named command for the session and decodes the response
// value into res, when res is not nil.
func (e *executor) execute(ctx context.Context, sessionID, name string, params, res interface{}) error {
	cmd, ok := edgeCommands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if sessionID == "" {
		return ErrNoSession
	}

	var body io.Reader
	if params != nil {
		buf, err := marshal(params)
		if err != nil {
			return fmt.Errorf("could not encode %s params: %w", name, err)
		}
		e.debugf("-> %s %s", name, buf)
		body = bytes.NewReader(buf)
	}

	path := strings.ReplaceAll(cmd.path, ":sessionId", url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, cmd.method, e.url+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	e.debugf("<- %s %d %s", name, resp.StatusCode, buf)

	var r reply
	if len(bytes.TrimSpace(buf)) != 0 {
		if err := json.Unmarshal(buf, &r); err != nil {
			if resp.StatusCode >= http.StatusBadRequest {
				return &CommandError{
					Command:    name,
					HTTPStatus: resp.StatusCode,
					Message:    strings.TrimSpace(string(buf)),
				}
			}
			return fmt.Errorf("could not decode %s response: %w", name, err)
		}
	}
	if err := replyError(name, resp.StatusCode, &r); err != nil {
		return err
	}

	if res == nil || len(r.Value) == 0 || string(r.Value) == "null" {
		return nil
	}
	if err := unmarshal(r.Value, res); err != nil {
		return fmt.Errorf("could not decode %s value: %w", name, err)
	}
	return nil
}

// replyError returns the error carried by a response, if any.
func replyError(name string, status int, r *reply) error {
	var v struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if bytes.HasPrefix(bytes.TrimSpace(r.Value), []byte("{")) {
		json.Unmarshal(r.Value, &v)
	}

	switch {
	case v.Error != "":
		return &CommandError{
			Command:    name,
			HTTPStatus: status,
			Code:       v.Error,
			Message:    v.Message,
		}

	case r.Status != nil && *r.Status != 0:
		return &CommandError{
			Command:    name,
			HTTPStatus: status,
			Code:       strconv.Itoa(*r.Status),
			Message:    v.Message,
		}

	case status >= http.StatusBadRequest:
		return &CommandError{
			Command:    name,
			HTTPStatus: status,
			Message:    http.StatusText(status),
		}
	}
	return nil
}

// marshal encodes v with easyjson when v supports it.
func marshal(v interface{}) ([]byte, error) {
	if z, ok := v.(easyjson.Marshaler); ok {
		return easyjson.Marshal(z)
	}
	return json.Marshal(v)
}

// unmarshal decodes buf with easyjson when v supports it.
func unmarshal(buf []byte, v interface{}) error {
	if z, ok := v.(easyjson.Unmarshaler); ok {
		return easyjson.Unmarshal(buf, z)
	}
	return json.Unmarshal(buf, v)
}
