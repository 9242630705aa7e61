package edgedriver

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/cdp"
	"github.com/mailru/easyjson"

	"github.com/msedge/edgedriver/client"
)

// DevTools is a direct Chrome DevTools Protocol connection to the browser
// target of a Chromium Edge instance.
//
// Commands are executed one at a time. Events received while waiting for a
// result are passed to the event func, if any.
type DevTools struct {
	conn Transport

	mu   sync.Mutex
	next int64

	eventf func(*cdproto.Message)
	debugf LogFunc
}

// DevToolsOption is a DevTools option.
type DevToolsOption func(*DevTools)

// WithEventFunc is a DevTools option to receive the events sent by the
// browser while commands are executed.
func WithEventFunc(f func(*cdproto.Message)) DevToolsOption {
	return func(dt *DevTools) {
		dt.eventf = f
	}
}

// WithDevToolsDebugf is a DevTools option to specify a func to receive the
// protocol traffic.
func WithDevToolsDebugf(f LogFunc) DevToolsOption {
	return func(dt *DevTools) {
		dt.debugf = f
	}
}

// DialDevTools connects to the browser listening on the debugger address
// addr ("host:port").
func DialDevTools(ctx context.Context, addr string, opts ...DevToolsOption) (*DevTools, error) {
	urlstr, err := client.New(client.URL(addr)).BrowserWebsocketURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get websocket url for %s: %w", addr, err)
	}
	conn, err := DialContext(ctx, ForceIP(urlstr))
	if err != nil {
		return nil, err
	}
	return NewDevTools(conn, opts...), nil
}

// NewDevTools creates a DevTools over an established transport.
func NewDevTools(conn Transport, opts ...DevToolsOption) *DevTools {
	dt := &DevTools{
		conn:   conn,
		debugf: nopLogf,
	}
	for _, o := range opts {
		o(dt)
	}
	return dt
}

// Execute satisfies cdp.Executor.
func (dt *DevTools) Execute(ctx context.Context, method string, params easyjson.Marshaler, res easyjson.Unmarshaler) error {
	var buf []byte
	if params != nil {
		var err error
		if buf, err = easyjson.Marshal(params); err != nil {
			return err
		}
	}

	dt.mu.Lock()
	defer dt.mu.Unlock()

	dt.next++
	id := dt.next
	dt.debugf("-> %d %s %s", id, method, buf)
	if err := dt.conn.Write(ctx, &cdproto.Message{
		ID:     id,
		Method: cdproto.MethodType(method),
		Params: buf,
	}); err != nil {
		return err
	}

	for {
		msg, err := dt.conn.Read(ctx)
		if err != nil {
			return err
		}
		switch {
		case msg.Method != "":
			dt.debugf("<- event %s %s", msg.Method, msg.Params)
			if dt.eventf != nil {
				dt.eventf(msg)
			}

		case msg.ID == id:
			dt.debugf("<- %d %s", id, msg.Result)
			if msg.Error != nil {
				return msg.Error
			}
			if res == nil || len(msg.Result) == 0 {
				return nil
			}
			return easyjson.Unmarshal(msg.Result, res)

		default:
			dt.debugf("<- unexpected message id %d", msg.ID)
		}
	}
}

// Close closes the connection.
func (dt *DevTools) Close() error {
	return dt.conn.Close()
}

var _ cdp.Executor = (*DevTools)(nil)
