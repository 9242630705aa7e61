package edgedriver

import (
	"context"
	"encoding/json"

	"github.com/chromedp/cdproto/cdp"
	"github.com/mailru/easyjson"
)

// cdpCommand is the body of the executeCdpCommand command.
type cdpCommand struct {
	Cmd    string          `json:"cmd"`
	Params json.RawMessage `json:"params"`
}

// ExecuteCDP executes a Chrome DevTools Protocol command through the
// WebDriver session and returns its result, for example:
//
//	res, err := d.ExecuteCDP(ctx, "Network.getResponseBody", map[string]interface{}{"requestId": id})
//
// The result is an empty map for commands without a result. Legacy Edge does
// not implement the command and the remote end's error is returned.
func (d *Driver) ExecuteCDP(ctx context.Context, cmd string, args map[string]interface{}) (map[string]interface{}, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	params, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	res := map[string]interface{}{}
	if err := d.execute(ctx, CommandExecuteCDP, &cdpCommand{Cmd: cmd, Params: params}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Execute satisfies cdp.Executor, so the typed cdproto commands can be run
// through the WebDriver session:
//
//	_, product, _, _, _, err := browser.GetVersion().Do(cdp.WithExecutor(ctx, d))
func (d *Driver) Execute(ctx context.Context, method string, params easyjson.Marshaler, res easyjson.Unmarshaler) error {
	p := json.RawMessage("{}")
	if params != nil {
		buf, err := easyjson.Marshal(params)
		if err != nil {
			return err
		}
		p = buf
	}
	var raw json.RawMessage
	if err := d.execute(ctx, CommandExecuteCDP, &cdpCommand{Cmd: method, Params: p}, &raw); err != nil {
		return err
	}
	if res == nil || len(raw) == 0 {
		return nil
	}
	return easyjson.Unmarshal(raw, res)
}

var _ cdp.Executor = (*Driver)(nil)
